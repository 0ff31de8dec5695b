package report

import (
	"context"
	"fmt"
	"time"

	"danawa/crawler/internal/domain/event"

	"resty.dev/v3"
)

type webhookReporter struct {
	client *resty.Client
	url    string
	types  map[string]struct{}
}

// NewWebhookReporter POSTs selected events as JSON to url. With no types
// given it sends category and sweep completions plus sub-category aborts.
func NewWebhookReporter(url string, timeout time.Duration, types ...string) Reporter {
	if len(types) == 0 {
		types = []string{
			(&event.SubCategoryAbortedEvent{}).EventType(),
			(&event.CategoryDoneEvent{}).EventType(),
			(&event.SweepDoneEvent{}).EventType(),
		}
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json")

	return &webhookReporter{
		client: client,
		url:    url,
		types:  set,
	}
}

type webhookPayload struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (r *webhookReporter) Report(ctx context.Context, e event.Event) error {
	if _, ok := r.types[e.EventType()]; !ok {
		return nil
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{Type: e.EventType(), Data: e}).
		Post(r.url)
	if err != nil {
		return fmt.Errorf("failed to post %s webhook: %w", e.EventType(), err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s rejected: %d %s", e.EventType(), resp.StatusCode(), resp.Status())
	}
	return nil
}
