package repository

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/venue-map-service/internal/domain"
)

// GeocodeOptions - параметры прямого геокодирования
type GeocodeOptions struct {
	Country   string
	Proximity *orb.Point
	Limit     int
}

// MapboxRepository определяет методы для работы с Mapbox API
type MapboxRepository interface {
	// GetDirections возвращает маршрут между двумя точками со всеми шагами и аннотациями
	GetDirections(ctx context.Context, origin, destination orb.Point) (*domain.DirectionsResponse, error)

	// ForwardGeocode ищет адреса и места по строке
	ForwardGeocode(ctx context.Context, query string, opts GeocodeOptions) ([]domain.GeocodeResult, error)
}
