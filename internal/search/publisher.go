package search

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamPublisher appends index events to a Redis stream
type StreamPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher for stream. A positive maxLen caps
// the stream length approximately.
func NewStreamPublisher(rdb *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{
		rdb:    rdb,
		stream: stream,
		maxLen: maxLen,
	}
}

// ShopChanged requests the shop document to be refreshed from the store
func (p *StreamPublisher) ShopChanged(ctx context.Context, shopID int64) error {
	return p.publish(ctx, newIndexEvent(OpUpsert, shopID))
}

// ShopRemoved requests the shop document to be dropped from the index
func (p *StreamPublisher) ShopRemoved(ctx context.Context, shopID int64) error {
	return p.publish(ctx, newIndexEvent(OpRemove, shopID))
}

func (p *StreamPublisher) publish(ctx context.Context, event IndexEvent) error {
	payload, err := event.encode()
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{payloadField: payload},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event for shop %d: %w", event.Op, event.ShopID, err)
	}
	return nil
}
