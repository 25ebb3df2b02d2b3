package handler

import (
	"errors"

	"github.com/venue-map-service/internal/directions"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
)

// routeError: пустой ответ Directions API - это NO_ROUTE, остальное как есть
func routeError(err error) error {
	if errors.Is(err, directions.ErrNoRoute) {
		return apperrors.ErrNoRoute
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.ErrDirectionsFailed
}
