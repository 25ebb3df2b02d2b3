package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	redisRepo "github.com/venue-map-service/internal/repository/redis"
)

const (
	testStream = "test:stream:places:changed"
	testGroup  = "test-group"
)

// getTestRedisClient поднимает miniredis на время теста
func getTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func placeEvent(categoryID string, action domain.PlaceAction) *domain.PlaceChangedEvent {
	zoneID := "zone-dakar"
	placeID := "place-42"
	return &domain.PlaceChangedEvent{
		CategoryID: categoryID,
		ZoneID:     &zoneID,
		PlaceID:    &placeID,
		Action:     action,
	}
}

func TestStreamRepository_CreateConsumerGroup(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))

	groups, err := client.XInfoGroups(ctx, testStream).Result()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, testGroup, groups[0].Name)

	// BUSYGROUP не ошибка
	assert.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))
}

func TestStreamRepository_PublishToStream(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.PublishToStream(ctx, testStream, placeEvent("competition", domain.PlaceUpdated)))

	messages, err := client.XRange(ctx, testStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)

	dataStr, ok := messages[0].Values["data"].(string)
	require.True(t, ok)

	var received domain.PlaceChangedEvent
	require.NoError(t, json.Unmarshal([]byte(dataStr), &received))
	assert.Equal(t, "competition", received.CategoryID)
	assert.Equal(t, domain.PlaceUpdated, received.Action)
	require.NotNil(t, received.PlaceID)
	assert.Equal(t, "place-42", *received.PlaceID)
}

func TestStreamRepository_ConsumeStream(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))
	require.NoError(t, repo.PublishToStream(ctx, testStream, placeEvent("hotels", domain.PlaceCreated)))

	msgChan, err := repo.ConsumeStream(ctx, testStream, testGroup, "consumer-1")
	require.NoError(t, err)

	select {
	case msg := <-msgChan:
		assert.NotEmpty(t, msg.ID)
		var received domain.PlaceChangedEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Data), &received))
		assert.Equal(t, "hotels", received.CategoryID)
		assert.Equal(t, domain.PlaceCreated, received.Action)
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for message")
	}
}

func TestStreamRepository_ConsumeBatch(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))

	empty, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, cat := range []string{"competition", "hotels", "hospitals"} {
		require.NoError(t, repo.PublishToStream(ctx, testStream, placeEvent(cat, domain.PlaceUpdated)))
	}
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{"payload": "no data field"},
	}).Err())

	batch, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	rest, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 10)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	// три валидных в pending, битое подтверждено сразу
	pending, err := client.XPending(ctx, testStream, testGroup).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending.Count)
}

func TestStreamRepository_AckMessage(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))
	require.NoError(t, repo.PublishToStream(ctx, testStream, placeEvent("competition", domain.PlaceDeleted)))

	batch, err := repo.ConsumeBatch(ctx, testStream, testGroup, "consumer-1", 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	pending, err := client.XPending(ctx, testStream, testGroup).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	require.NoError(t, repo.AckMessage(ctx, testStream, testGroup, batch[0].ID))

	pending, err = client.XPending(ctx, testStream, testGroup).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestStreamRepository_ConsumeStream_ContextCancellation(t *testing.T) {
	client := getTestRedisClient(t)
	repo := redisRepo.NewStreamRepository(client, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, repo.CreateConsumerGroup(ctx, testStream, testGroup))

	msgChan, err := repo.ConsumeStream(ctx, testStream, testGroup, "consumer-1")
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-msgChan:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("Channel not closed after context cancellation")
		}
	}
}
