package places

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/metrics"
	"github.com/venue-map-service/internal/worker"
)

const (
	CacheInvalidationWorkerName = "places-cache-invalidation"

	defaultBatchSize = 20
)

// CacheInvalidationWorker сбрасывает кеш мест по событиям из админки и
// публикует событие для пересборки слоев в API
type CacheInvalidationWorker struct {
	*worker.BaseWorker
	streams     repository.StreamRepository
	invalidator repository.PlaceCacheInvalidator
	batchSize   int64
}

func NewCacheInvalidationWorker(
	streams repository.StreamRepository,
	invalidator repository.PlaceCacheInvalidator,
	consumerGroup string,
	batchSize int,
	logger *zap.Logger,
) *CacheInvalidationWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &CacheInvalidationWorker{
		BaseWorker:  worker.NewBaseWorker(CacheInvalidationWorkerName, consumerGroup, logger),
		streams:     streams,
		invalidator: invalidator,
		batchSize:   int64(batchSize),
	}
}

// Start запускает воркер
func (w *CacheInvalidationWorker) Start(ctx context.Context) error {
	w.Logger().Info("Starting cache invalidation worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()),
		zap.Int64("batch_size", w.batchSize))

	if err := w.streams.CreateConsumerGroup(ctx, domain.StreamPlacesChanged, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return w.RunLoop(ctx, w.ProcessBatch)
}

// ProcessBatch обрабатывает одну пачку событий. Сообщение, которое не удалось
// применить, не подтверждается и остается в pending группы.
func (w *CacheInvalidationWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streams.ConsumeBatch(ctx, domain.StreamPlacesChanged, w.ConsumerGroup(), w.ConsumerName(), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	for _, msg := range messages {
		event, err := parseEvent(msg)
		if err != nil {
			logger.Warn("Skipping malformed place event",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			metrics.IncPlaceEvent(w.Name(), "invalid")
			w.ack(ctx, msg.ID)
			continue
		}

		if err := w.invalidate(ctx, event); err != nil {
			logger.Error("Failed to invalidate places cache",
				zap.String("message_id", msg.ID),
				zap.String("category", event.CategoryID),
				zap.Error(err))
			metrics.IncPlaceEvent(w.Name(), "failed")
			continue
		}

		if err := w.streams.PublishToStream(ctx, domain.StreamPlacesInvalidated, event); err != nil {
			// кеш уже сброшен, слои пересоберутся при следующем событии
			logger.Warn("Failed to publish invalidated event",
				zap.String("category", event.CategoryID),
				zap.Error(err))
		}

		metrics.IncPlaceEvent(w.Name(), string(event.Action))
		w.ack(ctx, msg.ID)
	}

	logger.Debug("Batch processed", zap.Int("messages", len(messages)))
	return len(messages), nil
}

// invalidate: смена зоны или событие без зоны сбрасывает всю категорию
func (w *CacheInvalidationWorker) invalidate(ctx context.Context, event *domain.PlaceChangedEvent) error {
	if event.ZoneID == nil || event.AffectsZoneList() {
		if err := w.invalidator.InvalidateCategory(ctx, event.CategoryID); err != nil {
			return err
		}
	}
	if event.ZoneID != nil {
		return w.invalidator.InvalidateZone(ctx, *event.ZoneID)
	}
	return nil
}

func (w *CacheInvalidationWorker) ack(ctx context.Context, id string) {
	if err := w.streams.AckMessage(ctx, domain.StreamPlacesChanged, w.ConsumerGroup(), id); err != nil {
		w.Logger().Warn("Failed to ack message", zap.String("message_id", id), zap.Error(err))
	}
}
