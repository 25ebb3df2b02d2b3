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

const LayerRefreshWorkerName = "places-layer-refresh"

// CategoryRefresher пересобирает слои категории в открытых картах
type CategoryRefresher interface {
	RefreshCategory(ctx context.Context, categoryID string) error
}

// LayerRefreshWorker работает в процессе API: после сброса кеша пересобирает
// слои затронутых категорий во всех сессиях
type LayerRefreshWorker struct {
	*worker.BaseWorker
	streams   repository.StreamRepository
	refresher CategoryRefresher
	batchSize int64
}

func NewLayerRefreshWorker(
	streams repository.StreamRepository,
	refresher CategoryRefresher,
	consumerGroup string,
	batchSize int,
	logger *zap.Logger,
) *LayerRefreshWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &LayerRefreshWorker{
		BaseWorker: worker.NewBaseWorker(LayerRefreshWorkerName, consumerGroup, logger),
		streams:    streams,
		refresher:  refresher,
		batchSize:  int64(batchSize),
	}
}

// Start запускает воркер
func (w *LayerRefreshWorker) Start(ctx context.Context) error {
	w.Logger().Info("Starting layer refresh worker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()))

	if err := w.streams.CreateConsumerGroup(ctx, domain.StreamPlacesInvalidated, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return w.RunLoop(ctx, w.ProcessBatch)
}

// ProcessBatch пересобирает каждую категорию пачки один раз. Ошибки пересборки
// не возвращают сообщение в очередь: сессия могла закрыться.
func (w *LayerRefreshWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streams.ConsumeBatch(ctx, domain.StreamPlacesInvalidated, w.ConsumerGroup(), w.ConsumerName(), w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	var categories []string
	seen := make(map[string]bool)
	for _, msg := range messages {
		event, err := parseEvent(msg)
		if err != nil {
			logger.Warn("Skipping malformed invalidated event",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			metrics.IncPlaceEvent(w.Name(), "invalid")
			continue
		}
		if !seen[event.CategoryID] {
			seen[event.CategoryID] = true
			categories = append(categories, event.CategoryID)
		}
	}

	for _, cat := range categories {
		if err := w.refresher.RefreshCategory(ctx, cat); err != nil {
			logger.Warn("Layer refresh finished with errors",
				zap.String("category", cat),
				zap.Error(err))
			metrics.IncPlaceEvent(w.Name(), "failed")
			continue
		}
		metrics.IncPlaceEvent(w.Name(), "refreshed")
	}

	for _, msg := range messages {
		if err := w.streams.AckMessage(ctx, domain.StreamPlacesInvalidated, w.ConsumerGroup(), msg.ID); err != nil {
			logger.Warn("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return len(messages), nil
}
