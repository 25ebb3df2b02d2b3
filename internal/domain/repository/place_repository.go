package repository

import (
	"context"

	"github.com/venue-map-service/internal/domain"
)

// PlaceRepository - источник зон и мест для построителя слоев
type PlaceRepository interface {
	// ListZones возвращает зоны категории; для пустой категории соревнований создает зоны по умолчанию
	ListZones(ctx context.Context, categoryID string) ([]*domain.Zone, error)

	// GetZone возвращает зону по id
	GetZone(ctx context.Context, zoneID string) (*domain.Zone, error)

	// ListZonePlaces возвращает зону (ради цвета) и ее места
	ListZonePlaces(ctx context.Context, zoneID string) (*domain.ZonePlaces, error)

	// ListUnassignedPlaces возвращает места категории без зоны
	ListUnassignedPlaces(ctx context.Context, categoryID string) ([]*domain.Place, error)
}

// PlaceCacheInvalidator сбрасывает закешированные списки
type PlaceCacheInvalidator interface {
	InvalidateCategory(ctx context.Context, categoryID string) error
	InvalidateZone(ctx context.Context, zoneID string) error
}
