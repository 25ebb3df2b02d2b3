package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/directions"
	"github.com/venue-map-service/internal/domain"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/utils"
)

// Command - сообщение от UI к сессии карты
type Command interface {
	CommandName() string
}

// RequestRoute - построить маршрут; без Origin берется положение пользователя
type RequestRoute struct {
	Origin      *orb.Point
	Destination orb.Point
}

// FeatureSelected - пользователь выбрал точку на карте или в списке
type FeatureSelected struct {
	CategoryID string
	PlaceID    string
}

// ClearRoute - убрать маршрут
type ClearRoute struct{}

// GeocoderResult - пользователь выбрал результат поиска
type GeocoderResult struct {
	Result domain.GeocodeResult
}

// GeocoderCleared - поле поиска очищено
type GeocoderCleared struct{}

// SetBasemap - сменить подложку
type SetBasemap struct {
	ID domain.BasemapID
}

func (RequestRoute) CommandName() string    { return "request_route" }
func (FeatureSelected) CommandName() string { return "feature_selected" }
func (ClearRoute) CommandName() string      { return "clear_route" }
func (GeocoderResult) CommandName() string  { return "geocoder_result" }
func (GeocoderCleared) CommandName() string { return "geocoder_cleared" }
func (SetBasemap) CommandName() string      { return "set_basemap" }

// Dispatch выполняет команду. Неудача дополнительно уходит пользователю через Notifier.
func (s *MapSession) Dispatch(ctx context.Context, cmd Command) error {
	var err error
	switch c := cmd.(type) {
	case RequestRoute:
		_, err = s.requestRoute(ctx, c)
	case FeatureSelected:
		err = s.selectFeature(c)
	case ClearRoute:
		err = s.ClearCurrentRoute()
	case GeocoderResult:
		err = s.geocoderResult(ctx, c)
	case GeocoderCleared:
		err = s.ClearCurrentRoute()
	case SetBasemap:
		err = s.SetBasemap(ctx, c.ID)
	default:
		err = fmt.Errorf("%w: unknown command %T", apperrors.ErrInvalidRequest, cmd)
	}

	if err != nil {
		s.logger.Warn("Command failed",
			zap.String("session_id", s.id),
			zap.String("command", commandName(cmd)),
			zap.Error(err))
		s.notify(NotifyError, userMessage(err))
	}
	return err
}

func commandName(cmd Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.CommandName()
}

func (s *MapSession) requestRoute(ctx context.Context, c RequestRoute) (*domain.RouteDetails, error) {
	if !utils.ValidatePoint(c.Destination) {
		return nil, apperrors.ErrInvalidCoordinates
	}

	origin := c.Origin
	if origin == nil {
		p, real := s.locator.Locate(ctx)
		if !real && !s.locator.UsesDummy() {
			s.notify(NotifyInfo, "Your location is unavailable, showing the route from the city center")
		}
		origin = &p
	}
	return s.ShowRouteToVenue(ctx, origin, c.Destination)
}

func (s *MapSession) selectFeature(c FeatureSelected) error {
	if _, ok := domain.CategoryByID(c.CategoryID); !ok {
		return apperrors.ErrUnknownCategory
	}
	placeID := c.PlaceID
	if _, err := s.HighlightCategoryPlace(c.CategoryID, &placeID); err != nil {
		return err
	}
	s.StartBounceSelected()
	return nil
}

func (s *MapSession) geocoderResult(ctx context.Context, c GeocoderResult) error {
	if len(c.Result.Center) < 2 {
		return apperrors.ErrInvalidCoordinates
	}
	dest := orb.Point{c.Result.Center[0], c.Result.Center[1]}
	if !utils.ValidatePoint(dest) {
		return apperrors.ErrInvalidCoordinates
	}

	m := s.GetMap()
	if m == nil {
		return apperrors.ErrMapNotInitialized
	}
	zoom := geocoderFlyZoom
	m.FlyTo(cameraTo(dest, zoom))

	if _, err := s.requestRoute(ctx, RequestRoute{Destination: dest}); err != nil {
		return err
	}
	m.ClosePopup()
	return nil
}

// userMessage - текст для toast
func userMessage(err error) string {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, directions.ErrNoRoute):
		return "No route found to this destination"
	case errors.Is(err, apperrors.ErrMapNotInitialized):
		return "The map is not ready yet"
	case errors.As(err, &appErr):
		return appErr.Message
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request took too long, please try again"
	default:
		return "Could not get directions, please try again"
	}
}
