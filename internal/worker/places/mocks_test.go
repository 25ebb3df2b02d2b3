package places_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/venue-map-service/internal/domain"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int64) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockInvalidator is a mock of PlaceCacheInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateCategory(ctx context.Context, categoryID string) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func (m *MockInvalidator) InvalidateZone(ctx context.Context, zoneID string) error {
	args := m.Called(ctx, zoneID)
	return args.Error(0)
}

// MockRefresher is a mock of CategoryRefresher
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshCategory(ctx context.Context, categoryID string) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func message(id string, event domain.PlaceChangedEvent) domain.StreamMessage {
	data, _ := json.Marshal(event)
	return domain.StreamMessage{ID: id, Data: string(data)}
}
