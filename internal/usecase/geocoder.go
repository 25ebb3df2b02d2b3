package usecase

import (
	"context"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/utils"
)

const (
	geocoderFlyZoom     = 14.0
	geocoderLimit       = 5
	geocoderMinQueryLen = 2
)

// GeocoderControl - поиск мест по строке, привязанный к сессии карты
type GeocoderControl struct {
	mapbox  repository.MapboxRepository
	country string
	logger  *zap.Logger
}

func NewGeocoderControl(mapbox repository.MapboxRepository, country string, logger *zap.Logger) *GeocoderControl {
	return &GeocoderControl{
		mapbox:  mapbox,
		country: country,
		logger:  logger,
	}
}

// Search ищет места; proximity поднимает выше результаты рядом с камерой
func (g *GeocoderControl) Search(ctx context.Context, query string, proximity *orb.Point) ([]domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < geocoderMinQueryLen {
		return nil, apperrors.ErrInvalidRequest.WithMessage("Search query is too short")
	}

	opts := repository.GeocodeOptions{
		Country: g.country,
		Limit:   geocoderLimit,
	}
	if proximity != nil && utils.ValidatePoint(*proximity) {
		opts.Proximity = proximity
	}

	results, err := g.mapbox.ForwardGeocode(ctx, query, opts)
	if err != nil {
		g.logger.Warn("Forward geocoding failed", zap.String("query", query), zap.Error(err))
		return nil, apperrors.ErrGeocodingFailed
	}

	if proximity != nil {
		for i := range results {
			if len(results[i].Center) >= 2 {
				results[i].DistanceKm = utils.DistanceKm(*proximity, orb.Point{results[i].Center[0], results[i].Center[1]})
			}
		}
	}
	return results, nil
}
