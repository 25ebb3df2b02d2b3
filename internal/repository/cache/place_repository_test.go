package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/repository/cache"
)

// MockPlaceRepository is a mock of PlaceRepository
type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) ListZones(ctx context.Context, categoryID string) ([]*domain.Zone, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Zone), args.Error(1)
}

func (m *MockPlaceRepository) GetZone(ctx context.Context, zoneID string) (*domain.Zone, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockPlaceRepository) ListZonePlaces(ctx context.Context, zoneID string) (*domain.ZonePlaces, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ZonePlaces), args.Error(1)
}

func (m *MockPlaceRepository) ListUnassignedPlaces(ctx context.Context, categoryID string) ([]*domain.Place, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Place), args.Error(1)
}

func newCachedRepo(t *testing.T) (*cache.CachedPlaceRepository, *MockPlaceRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := &MockPlaceRepository{}
	repo := cache.NewCachedPlaceRepository(
		db,
		cache.NewCacheRepository(cache.NewRedisFromClient(client, zap.NewNop())),
		10*time.Minute,
		zap.NewNop(),
	)
	return repo, db, mr
}

var dakar = &domain.Zone{ID: "zone-dakar", Name: "Dakar", Color: "#E91E63", CategoryID: "competition"}

func dakarPlaces() *domain.ZonePlaces {
	rating := 4.5
	zoneID := dakar.ID
	return &domain.ZonePlaces{
		Zone: *dakar,
		Places: []*domain.Place{{
			ID:         "place-42",
			Name:       "Stade Abdoulaye Wade",
			Location:   orb.Point{-17.45, 14.70},
			Rating:     &rating,
			Tags:       []string{"football"},
			CategoryID: "competition",
			ZoneID:     &zoneID,
		}},
	}
}

func TestCachedPlaceRepository_ListZonesHitsDatabaseOnce(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	db.On("ListZones", ctx, "competition").Return([]*domain.Zone{dakar}, nil).Once()

	for i := 0; i < 3; i++ {
		zones, err := repo.ListZones(ctx, "competition")
		require.NoError(t, err)
		require.Len(t, zones, 1)
		assert.Equal(t, "Dakar", zones[0].Name)
	}

	db.AssertExpectations(t)
	assert.True(t, mr.Exists("places:cat:competition:zones"))
	assert.Equal(t, 10*time.Minute, mr.TTL("places:cat:competition:zones"))
}

func TestCachedPlaceRepository_ZonePlacesRoundTrip(t *testing.T) {
	repo, db, _ := newCachedRepo(t)
	ctx := context.Background()
	db.On("ListZonePlaces", ctx, "zone-dakar").Return(dakarPlaces(), nil).Once()

	_, err := repo.ListZonePlaces(ctx, "zone-dakar")
	require.NoError(t, err)
	got, err := repo.ListZonePlaces(ctx, "zone-dakar")
	require.NoError(t, err)

	assert.Equal(t, dakarPlaces(), got)
	db.AssertExpectations(t)
}

func TestCachedPlaceRepository_ErrorsAreNotCached(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	db.On("ListUnassignedPlaces", ctx, "hotels").Return(nil, errors.New("db down")).Once()
	db.On("ListUnassignedPlaces", ctx, "hotels").Return([]*domain.Place{}, nil).Once()

	_, err := repo.ListUnassignedPlaces(ctx, "hotels")
	assert.Error(t, err)
	assert.False(t, mr.Exists("places:cat:hotels:unassigned"))

	places, err := repo.ListUnassignedPlaces(ctx, "hotels")
	require.NoError(t, err)
	assert.Empty(t, places)
	db.AssertExpectations(t)
}

func TestCachedPlaceRepository_NilZoneIsNotCached(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	db.On("GetZone", ctx, "nope").Return(nil, nil)

	zone, err := repo.GetZone(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, zone)
	assert.False(t, mr.Exists("places:zone:nope"))
}

func TestCachedPlaceRepository_BrokenEntryReloads(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("places:zone:zone-dakar", "{not json"))
	db.On("GetZone", ctx, "zone-dakar").Return(dakar, nil).Once()

	zone, err := repo.GetZone(ctx, "zone-dakar")
	require.NoError(t, err)
	assert.Equal(t, dakar, zone)
	db.AssertExpectations(t)
}

func TestCachedPlaceRepository_FallsBackWhenRedisDown(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	mr.Close()
	db.On("ListZones", ctx, "competition").Return([]*domain.Zone{dakar}, nil)

	zones, err := repo.ListZones(ctx, "competition")
	require.NoError(t, err)
	assert.Len(t, zones, 1)
}

func TestCachedPlaceRepository_InvalidateCategory(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	db.On("ListZones", ctx, "competition").Return([]*domain.Zone{dakar}, nil).Twice()
	db.On("ListZonePlaces", ctx, "zone-dakar").Return(dakarPlaces(), nil).Twice()
	db.On("ListUnassignedPlaces", ctx, "competition").Return([]*domain.Place{}, nil).Twice()
	db.On("ListUnassignedPlaces", ctx, "hotels").Return([]*domain.Place{}, nil).Once()

	warm := func() {
		_, err := repo.ListZones(ctx, "competition")
		require.NoError(t, err)
		_, err = repo.ListZonePlaces(ctx, "zone-dakar")
		require.NoError(t, err)
		_, err = repo.ListUnassignedPlaces(ctx, "competition")
		require.NoError(t, err)
		_, err = repo.ListUnassignedPlaces(ctx, "hotels")
		require.NoError(t, err)
	}

	warm()
	require.NoError(t, repo.InvalidateCategory(ctx, "competition"))

	assert.False(t, mr.Exists("places:cat:competition:zones"))
	assert.False(t, mr.Exists("places:zone:zone-dakar:places"))
	assert.True(t, mr.Exists("places:cat:hotels:unassigned"))

	warm()
	db.AssertExpectations(t)
}

func TestCachedPlaceRepository_InvalidateZone(t *testing.T) {
	repo, db, mr := newCachedRepo(t)
	ctx := context.Background()
	db.On("ListZonePlaces", ctx, "zone-dakar").Return(dakarPlaces(), nil).Twice()
	db.On("ListZones", ctx, "competition").Return([]*domain.Zone{dakar}, nil).Once()

	_, err := repo.ListZonePlaces(ctx, "zone-dakar")
	require.NoError(t, err)
	_, err = repo.ListZones(ctx, "competition")
	require.NoError(t, err)

	require.NoError(t, repo.InvalidateZone(ctx, "zone-dakar"))
	assert.True(t, mr.Exists("places:cat:competition:zones"))

	_, err = repo.ListZonePlaces(ctx, "zone-dakar")
	require.NoError(t, err)
	db.AssertExpectations(t)
}
