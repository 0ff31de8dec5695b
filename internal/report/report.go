// Package report fans crawl progress events out to logs, a redis stream
// and an optional webhook. Reporting is best effort: callers log failures
// and carry on.
package report

import (
	"context"
	"errors"

	"danawa/crawler/internal/domain/event"
)

type Reporter interface {
	Report(ctx context.Context, e event.Event) error
}

type multiReporter struct {
	reporters []Reporter
}

// NewMulti returns a Reporter that forwards every event to each non-nil reporter.
func NewMulti(reporters ...Reporter) Reporter {
	kept := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &multiReporter{reporters: kept}
}

func (m *multiReporter) Report(ctx context.Context, e event.Event) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopReporter struct{}

// Nop discards every event.
func Nop() Reporter {
	return nopReporter{}
}

func (nopReporter) Report(context.Context, event.Event) error {
	return nil
}
