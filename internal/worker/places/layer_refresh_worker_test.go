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

const refreshGroup = "venue-map-api"

func TestLayerRefreshWorker_RefreshesEachCategoryOnce(t *testing.T) {
	streams := &MockStreamRepository{}
	refresher := &MockRefresher{}

	streams.On("ConsumeBatch", mock.Anything, domain.StreamPlacesInvalidated, refreshGroup, mock.Anything, int64(20)).
		Return([]domain.StreamMessage{
			message("1-0", domain.PlaceChangedEvent{CategoryID: "hotels", Action: domain.PlaceCreated}),
			message("2-0", domain.PlaceChangedEvent{CategoryID: "competition", Action: domain.ZoneChanged, ZoneID: strPtr("z1")}),
			message("3-0", domain.PlaceChangedEvent{CategoryID: "hotels", Action: domain.PlaceDeleted}),
			{ID: "4-0", Data: `{"action":"nope"}`},
		}, nil)

	var order []string
	refresher.On("RefreshCategory", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { order = append(order, args.String(1)) }).
		Return(nil)
	for _, id := range []string{"1-0", "2-0", "3-0", "4-0"} {
		streams.On("AckMessage", mock.Anything, domain.StreamPlacesInvalidated, refreshGroup, id).Return(nil).Once()
	}

	w := places.NewLayerRefreshWorker(streams, refresher, refreshGroup, 0, zap.NewNop())
	n, err := w.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"hotels", "competition"}, order)
	streams.AssertExpectations(t)
}

func TestLayerRefreshWorker_RefreshErrorStillAcks(t *testing.T) {
	streams := &MockStreamRepository{}
	refresher := &MockRefresher{}

	streams.On("ConsumeBatch", mock.Anything, domain.StreamPlacesInvalidated, refreshGroup, mock.Anything, int64(20)).
		Return([]domain.StreamMessage{
			message("1-0", domain.PlaceChangedEvent{CategoryID: "hotels", Action: domain.PlaceUpdated}),
		}, nil)
	refresher.On("RefreshCategory", mock.Anything, "hotels").Return(errors.New("map removed"))
	streams.On("AckMessage", mock.Anything, domain.StreamPlacesInvalidated, refreshGroup, "1-0").Return(nil).Once()

	w := places.NewLayerRefreshWorker(streams, refresher, refreshGroup, 0, zap.NewNop())
	_, err := w.ProcessBatch(context.Background())

	require.NoError(t, err)
	streams.AssertExpectations(t)
}

func TestLayerRefreshWorker_StopEndsLoop(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamPlacesInvalidated, refreshGroup).Return(nil)
	streams.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil)

	w := places.NewLayerRefreshWorker(streams, &MockRefresher{}, refreshGroup, 0, zap.NewNop())
	w.SetIdleSleep(5 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
