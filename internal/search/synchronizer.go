package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-catalog/internal/config"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	readBatch    = 50
	readBlock    = 5 * time.Second
	retryBackoff = 2 * time.Second
)

// ShopSource is the read side of the catalog store used to (re)build the index
type ShopSource interface {
	FindByID(ctx context.Context, id int64) (*domain.Shop, error)
	Find(ctx context.Context, criteria repository.ShopCriteria, page domain.PageRequest) (*domain.Page[domain.Shop], error)
}

// Synchronizer applies index events from a Redis stream to an Index.
// Delivery is at least once: an entry is acknowledged only after it has been
// applied. Entries left pending by a previous run are replayed first, and
// entries that fail while running are retried every retryInterval until
// they apply.
type Synchronizer struct {
	rdb           *redis.Client
	index         Index
	shops         ShopSource
	stream        string
	group         string
	consumer      string
	retryInterval time.Duration
	logger        *zap.Logger
}

// NewSynchronizer creates a consumer of cfg.Stream in group cfg.Group
func NewSynchronizer(rdb *redis.Client, index Index, shops ShopSource, cfg config.SearchConfig, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		rdb:           rdb,
		index:         index,
		shops:         shops,
		stream:        cfg.Stream,
		group:         cfg.Group,
		consumer:      cfg.Consumer,
		retryInterval: retryBackoff,
		logger:        logger.With(zap.String("stream", cfg.Stream), zap.String("consumer", cfg.Consumer)),
	}
}

// Run consumes the stream until ctx is cancelled
func (s *Synchronizer) Run(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	s.logger.Info("Index synchronizer started")
	defer s.logger.Info("Index synchronizer stopped")

	stalled := s.retryPending(ctx)
	lastRetry := time.Now()

	for ctx.Err() == nil {
		// wake up in time to retry entries that failed to apply
		block := readBlock
		if stalled {
			block = s.retryInterval
		}

		_, failed, err := s.poll(ctx, ">", block)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error("Failed to read index events", zap.Error(err))

			select {
			case <-ctx.Done():
			case <-time.After(s.retryInterval):
			}
			continue
		}

		if failed > 0 {
			stalled = true
		}

		if stalled && time.Since(lastRetry) >= s.retryInterval {
			stalled = s.retryPending(ctx)
			lastRetry = time.Now()
		}
	}

	return nil
}

// retryPending replays pending entries and reports whether some are still
// pending afterwards
func (s *Synchronizer) retryPending(ctx context.Context) bool {
	left, err := s.replayPending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Failed to replay pending index events", zap.Error(err))
		}
		return true
	}
	return left > 0
}

func (s *Synchronizer) ensureGroup(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", s.group, err)
	}
	return nil
}

// replayPending walks the entries delivered to this consumer but never
// acknowledged. It returns how many of them are still pending.
func (s *Synchronizer) replayPending(ctx context.Context) (int, error) {
	start := "0"
	left := 0
	for {
		messages, err := s.read(ctx, start, -1)
		if err != nil {
			return left, err
		}
		if len(messages) == 0 {
			return left, nil
		}

		s.logger.Info("Replaying pending index events", zap.Int("count", len(messages)))
		left += len(messages) - s.handle(ctx, messages)
		start = messages[len(messages)-1].ID
	}
}

// poll reads one batch starting at start and applies it, returning how many
// entries were applied and how many stay pending. A negative block returns
// immediately when nothing is available.
func (s *Synchronizer) poll(ctx context.Context, start string, block time.Duration) (applied, failed int, err error) {
	messages, err := s.read(ctx, start, block)
	if err != nil {
		return 0, 0, err
	}
	applied = s.handle(ctx, messages)
	return applied, len(messages) - applied, nil
}

func (s *Synchronizer) read(ctx context.Context, start string, block time.Duration) ([]redis.XMessage, error) {
	streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, start},
		Count:    readBatch,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", s.stream, err)
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

// handle applies messages in order and acknowledges the ones that succeeded
func (s *Synchronizer) handle(ctx context.Context, messages []redis.XMessage) int {
	applied := 0
	for _, msg := range messages {
		if err := s.apply(ctx, msg); err != nil {
			s.logger.Warn("Failed to apply index event, leaving it pending",
				zap.String("entry_id", msg.ID),
				zap.Error(err),
			)
			continue
		}

		if err := s.rdb.XAck(ctx, s.stream, s.group, msg.ID).Err(); err != nil {
			s.logger.Warn("Failed to acknowledge index event",
				zap.String("entry_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		applied++
	}
	return applied
}

func (s *Synchronizer) apply(ctx context.Context, msg redis.XMessage) error {
	event, err := decodeIndexEvent(msg.Values)
	if err != nil {
		// cannot succeed on retry
		s.logger.Error("Dropping malformed index event", zap.String("entry_id", msg.ID), zap.Error(err))
		return nil
	}

	switch event.Op {
	case OpRemove:
		return s.index.Remove(ctx, event.ShopID)
	default:
		shop, err := s.shops.FindByID(ctx, event.ShopID)
		if errors.Is(err, repository.ErrShopNotFound) {
			return s.index.Remove(ctx, event.ShopID)
		}
		if err != nil {
			return err
		}

		s.logger.Debug("Indexing shop", zap.Int64("shop_id", shop.ID))
		return s.index.Upsert(ctx, Document{ID: shop.ID, Name: shop.Name})
	}
}
