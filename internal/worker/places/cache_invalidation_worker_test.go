package places_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/worker/places"
)

const group = "venue-map-workers"

func TestCacheInvalidationWorker_Name(t *testing.T) {
	w := places.NewCacheInvalidationWorker(&MockStreamRepository{}, &MockInvalidator{}, group, 0, zap.NewNop())
	assert.Equal(t, places.CacheInvalidationWorkerName, w.Name())
	assert.Equal(t, group, w.ConsumerGroup())
	assert.Contains(t, w.ConsumerName(), places.CacheInvalidationWorkerName)
}

func TestCacheInvalidationWorker_EmptyQueue(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("ConsumeBatch", mock.Anything, domain.StreamPlacesChanged, group, mock.Anything, int64(20)).
		Return([]domain.StreamMessage{}, nil)

	w := places.NewCacheInvalidationWorker(streams, &MockInvalidator{}, group, 0, zap.NewNop())
	n, err := w.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	streams.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCacheInvalidationWorker_ProcessBatch(t *testing.T) {
	streams := &MockStreamRepository{}
	invalidator := &MockInvalidator{}

	zoneEvent := domain.PlaceChangedEvent{CategoryID: "competition", ZoneID: strPtr("z1"), Action: domain.ZoneChanged}
	placeEvent := domain.PlaceChangedEvent{CategoryID: "hotels", ZoneID: strPtr("z2"), PlaceID: strPtr("p1"), Action: domain.PlaceUpdated}
	rootEvent := domain.PlaceChangedEvent{CategoryID: "hotels", PlaceID: strPtr("p2"), Action: domain.PlaceCreated}

	streams.On("ConsumeBatch", mock.Anything, domain.StreamPlacesChanged, group, mock.Anything, int64(5)).
		Return([]domain.StreamMessage{
			message("1-0", zoneEvent),
			message("2-0", placeEvent),
			{ID: "3-0", Data: "{broken"},
			message("4-0", rootEvent),
		}, nil)

	invalidator.On("InvalidateCategory", mock.Anything, "competition").Return(nil).Once()
	invalidator.On("InvalidateZone", mock.Anything, "z1").Return(nil).Once()
	invalidator.On("InvalidateZone", mock.Anything, "z2").Return(nil).Once()
	invalidator.On("InvalidateCategory", mock.Anything, "hotels").Return(nil).Once()

	streams.On("PublishToStream", mock.Anything, domain.StreamPlacesInvalidated, mock.AnythingOfType("*domain.PlaceChangedEvent")).Return(nil).Times(3)
	for _, id := range []string{"1-0", "2-0", "3-0", "4-0"} {
		streams.On("AckMessage", mock.Anything, domain.StreamPlacesChanged, group, id).Return(nil).Once()
	}

	w := places.NewCacheInvalidationWorker(streams, invalidator, group, 5, zap.NewNop())
	n, err := w.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	invalidator.AssertExpectations(t)
	streams.AssertExpectations(t)
}

func TestCacheInvalidationWorker_FailedInvalidationIsNotAcked(t *testing.T) {
	streams := &MockStreamRepository{}
	invalidator := &MockInvalidator{}

	event := domain.PlaceChangedEvent{CategoryID: "hotels", Action: domain.PlaceDeleted, PlaceID: strPtr("p1")}
	streams.On("ConsumeBatch", mock.Anything, domain.StreamPlacesChanged, group, mock.Anything, int64(20)).
		Return([]domain.StreamMessage{message("1-0", event)}, nil)
	invalidator.On("InvalidateCategory", mock.Anything, "hotels").Return(errors.New("redis down"))

	w := places.NewCacheInvalidationWorker(streams, invalidator, group, 0, zap.NewNop())
	n, err := w.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	streams.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	streams.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestCacheInvalidationWorker_ConsumeError(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	w := places.NewCacheInvalidationWorker(streams, &MockInvalidator{}, group, 0, zap.NewNop())
	_, err := w.ProcessBatch(context.Background())
	assert.Error(t, err)
}

func TestCacheInvalidationWorker_Stop(t *testing.T) {
	w := places.NewCacheInvalidationWorker(&MockStreamRepository{}, &MockInvalidator{}, group, 0, zap.NewNop())

	require.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
	// повторный Stop безопасен
	require.NoError(t, w.Stop())
}

func TestCacheInvalidationWorker_ContextCancellation(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamPlacesChanged, group).Return(nil)
	streams.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil)

	w := places.NewCacheInvalidationWorker(streams, &MockInvalidator{}, group, 0, zap.NewNop())
	w.SetIdleSleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestCacheInvalidationWorker_ConsumerGroupError(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamPlacesChanged, group).Return(errors.New("NOAUTH"))

	w := places.NewCacheInvalidationWorker(streams, &MockInvalidator{}, group, 0, zap.NewNop())
	err := w.Start(context.Background())
	assert.Error(t, err)
}
