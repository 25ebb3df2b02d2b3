package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
)

const placesKeyPrefix = "places:"

func categoryKeyPrefix(categoryID string) string {
	return placesKeyPrefix + "cat:" + categoryID + ":"
}

func zonesKey(categoryID string) string      { return categoryKeyPrefix(categoryID) + "zones" }
func unassignedKey(categoryID string) string { return categoryKeyPrefix(categoryID) + "unassigned" }
func zoneKey(zoneID string) string           { return placesKeyPrefix + "zone:" + zoneID }
func zonePlacesKey(zoneID string) string     { return placesKeyPrefix + "zone:" + zoneID + ":places" }

// CachedPlaceRepository кеширует списки зон и мест в Redis.
// Ошибки кеша не ломают чтение: запрос уходит в базу.
type CachedPlaceRepository struct {
	next   repository.PlaceRepository
	cache  repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

var (
	_ repository.PlaceRepository       = (*CachedPlaceRepository)(nil)
	_ repository.PlaceCacheInvalidator = (*CachedPlaceRepository)(nil)
)

func NewCachedPlaceRepository(
	next repository.PlaceRepository,
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *CachedPlaceRepository {
	return &CachedPlaceRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *CachedPlaceRepository) ListZones(ctx context.Context, categoryID string) ([]*domain.Zone, error) {
	return cached(ctx, r, zonesKey(categoryID), func() ([]*domain.Zone, error) {
		return r.next.ListZones(ctx, categoryID)
	})
}

func (r *CachedPlaceRepository) GetZone(ctx context.Context, zoneID string) (*domain.Zone, error) {
	return cached(ctx, r, zoneKey(zoneID), func() (*domain.Zone, error) {
		return r.next.GetZone(ctx, zoneID)
	})
}

func (r *CachedPlaceRepository) ListZonePlaces(ctx context.Context, zoneID string) (*domain.ZonePlaces, error) {
	return cached(ctx, r, zonePlacesKey(zoneID), func() (*domain.ZonePlaces, error) {
		return r.next.ListZonePlaces(ctx, zoneID)
	})
}

func (r *CachedPlaceRepository) ListUnassignedPlaces(ctx context.Context, categoryID string) ([]*domain.Place, error) {
	return cached(ctx, r, unassignedKey(categoryID), func() ([]*domain.Place, error) {
		return r.next.ListUnassignedPlaces(ctx, categoryID)
	})
}

// InvalidateCategory сбрасывает списки категории и места всех ее известных зон
func (r *CachedPlaceRepository) InvalidateCategory(ctx context.Context, categoryID string) error {
	if data, err := r.cache.Get(ctx, zonesKey(categoryID)); err == nil && data != nil {
		var zones []*domain.Zone
		if err := json.Unmarshal(data, &zones); err == nil {
			for _, z := range zones {
				if err := r.InvalidateZone(ctx, z.ID); err != nil {
					return err
				}
			}
		}
	}

	n, err := r.cache.DeleteByPrefix(ctx, categoryKeyPrefix(categoryID))
	if err != nil {
		return fmt.Errorf("invalidate category %s: %w", categoryID, err)
	}

	r.logger.Info("Places cache invalidated",
		zap.String("category_id", categoryID),
		zap.Int("keys", n))
	return nil
}

func (r *CachedPlaceRepository) InvalidateZone(ctx context.Context, zoneID string) error {
	for _, key := range []string{zoneKey(zoneID), zonePlacesKey(zoneID)} {
		if err := r.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("invalidate zone %s: %w", zoneID, err)
		}
	}
	r.logger.Debug("Zone cache invalidated", zap.String("zone_id", zoneID))
	return nil
}

func cached[T any](ctx context.Context, r *CachedPlaceRepository, key string, load func() (T, error)) (T, error) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Places cache unavailable, reading from database",
			zap.String("key", key),
			zap.Error(err))
	}
	if data != nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		r.logger.Warn("Broken cache entry, reloading", zap.String("key", key))
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if string(encoded) == "null" {
		return v, nil
	}
	if err := r.cache.Set(ctx, key, encoded, r.ttl); err != nil {
		r.logger.Warn("Failed to store cache entry", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}
