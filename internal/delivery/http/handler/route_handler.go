package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/utils"
	"github.com/venue-map-service/internal/pkg/validator"
	"github.com/venue-map-service/internal/usecase"
	"github.com/venue-map-service/internal/usecase/dto"
)

// RouteHandler - маршрут до места соревнований
type RouteHandler struct {
	sessions *usecase.SessionRegistry
	logger   *zap.Logger
}

func NewRouteHandler(sessions *usecase.SessionRegistry, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Show godoc
// @Summary Построение маршрута
// @Description Строит маршрут с альтернативами и шагами. Без origin маршрут строится от положения пользователя или от запасной точки.
// @Tags Route
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.RouteRequest true "Концы маршрута"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/route [post]
func (h *RouteHandler) Show(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.RouteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	cmd := usecase.RequestRoute{Destination: orb.Point{req.Destination.Lng, req.Destination.Lat}}
	if req.Origin != nil {
		cmd.Origin = &orb.Point{req.Origin.Lng, req.Origin.Lat}
	}
	if err := s.Dispatch(c.UserContext(), cmd); err != nil {
		return utils.SendError(c, routeError(err))
	}
	return utils.SendSuccess(c, routeResponse(s), nil)
}

// Get godoc
// @Summary Активный маршрут
// @Tags Route
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/route [get]
func (h *RouteHandler) Get(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, routeResponse(s), nil)
}

// Clear godoc
// @Summary Удаление маршрута
// @Description Идемпотентно: без маршрута ничего не происходит
// @Tags Route
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/route [delete]
func (h *RouteHandler) Clear(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := s.Dispatch(c.UserContext(), usecase.ClearRoute{}); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func routeResponse(s *usecase.MapSession) dto.RouteResponse {
	return dto.RouteResponse{
		HasRoute: s.HasRoute(),
		Summary:  s.GetLastRouteSummary(),
		Details:  s.GetLastRouteDetails(),
	}
}
