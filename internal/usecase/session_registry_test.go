package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/directions"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/frames"
	"github.com/venue-map-service/internal/usecase"
)

func newRegistry(t *testing.T, builder *fakeCategoryBuilder, now func() time.Time) *usecase.SessionRegistry {
	t.Helper()
	logger := zap.NewNop()
	mapbox := &MockMapboxRepository{}
	engine := directions.NewEngine(mapbox, logger)
	sched := frames.NewManualScheduler(time.Now())

	r := usecase.NewSessionRegistry(func(id string) *usecase.MapSession {
		return usecase.NewMapSession(id, usecase.SessionConfig{Center: venue, Zoom: 10}, usecase.SessionDeps{
			Categories: builder,
			Routes:     engine,
			Scheduler:  sched,
			Notifier:   usecase.NewNotificationBuffer(0),
			Now:        now,
		}, logger)
	}, logger)
	t.Cleanup(r.Close)
	return r
}

func awaitSession(t *testing.T, s *usecase.MapSession) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.AwaitLayers(ctx))
}

func TestSessionRegistry_CreateGetDestroy(t *testing.T) {
	r := newRegistry(t, newFakeCategoryBuilder(), nil)

	s := r.Create(usecase.InitOptions{Container: "map"})
	require.NotEmpty(t, s.ID())
	require.NotNil(t, s.GetMap())
	awaitSession(t, s)

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Destroy(s.ID()))
	assert.Nil(t, s.GetMap())

	_, err = r.Get(s.ID())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	assert.ErrorIs(t, r.Destroy(s.ID()), apperrors.ErrSessionNotFound)
}

func TestSessionRegistry_SessionsAreIndependent(t *testing.T) {
	r := newRegistry(t, newFakeCategoryBuilder(), nil)

	a := r.Create(usecase.InitOptions{})
	b := r.Create(usecase.InitOptions{})
	awaitSession(t, a)
	awaitSession(t, b)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotSame(t, a.GetMap(), b.GetMap())
	assert.Len(t, r.All(), 2)

	require.NoError(t, a.SetCategoryVisible("hotels", true))
	visB, err := b.CategoryVisibility()
	require.NoError(t, err)
	assert.False(t, visB["hotels"])
}

func TestSessionRegistry_RefreshCategory(t *testing.T) {
	builder := newFakeCategoryBuilder()
	r := newRegistry(t, builder, nil)

	a := r.Create(usecase.InitOptions{})
	b := r.Create(usecase.InitOptions{})
	awaitSession(t, a)
	awaitSession(t, b)

	require.NoError(t, r.RefreshCategory(context.Background(), "hotels"))
	// две сессии: по одной сборке при создании и по одной при обновлении
	assert.Equal(t, 4, builder.count("hotels"))
	assert.Equal(t, 2, builder.count("competition"))

	assert.Error(t, r.RefreshCategory(context.Background(), "casinos"))
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	r := newRegistry(t, newFakeCategoryBuilder(), clock)

	stale := r.Create(usecase.InitOptions{})
	awaitSession(t, stale)

	now = now.Add(20 * time.Minute)
	fresh := r.Create(usecase.InitOptions{})
	awaitSession(t, fresh)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, r.EvictIdle(now, 30*time.Minute))

	_, err := r.Get(stale.ID())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	assert.Nil(t, stale.GetMap())

	_, err = r.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestSessionRegistry_Close(t *testing.T) {
	r := newRegistry(t, newFakeCategoryBuilder(), nil)
	s := r.Create(usecase.InitOptions{})
	awaitSession(t, s)

	r.Close()
	assert.Zero(t, r.Len())
	assert.Nil(t, s.GetMap())
}
