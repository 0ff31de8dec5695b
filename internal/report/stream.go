package report

import (
	"context"
	"fmt"

	"danawa/crawler/internal/domain/event"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type streamReporter struct {
	redisClient *redis.Client
	stream      string
	maxLen      int64
}

// NewStreamReporter appends every event to a capped redis stream so other
// services can follow the sweep.
func NewStreamReporter(redisClient *redis.Client, stream string) Reporter {
	return &streamReporter{
		redisClient: redisClient,
		stream:      stream,
		maxLen:      10000,
	}
}

func (r *streamReporter) Report(ctx context.Context, e event.Event) error {
	eventType := e.EventType()

	value, err := e.EventValue()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	// Fields: event_type, event_data
	messageID, err := r.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event_type": eventType,
			"event_data": string(value),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to add event to Redis stream %s: %w", r.stream, err)
	}

	log.Debugf("Added event %s to stream %s with message ID: %s", eventType, r.stream, messageID)
	return nil
}
