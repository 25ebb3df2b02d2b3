package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/mapengine"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/utils"
	"github.com/venue-map-service/internal/pkg/validator"
	"github.com/venue-map-service/internal/usecase"
	"github.com/venue-map-service/internal/usecase/dto"
)

// InteractionHandler - действия пользователя на карте
type InteractionHandler struct {
	sessions *usecase.SessionRegistry
	logger   *zap.Logger
}

func NewInteractionHandler(sessions *usecase.SessionRegistry, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// SetBasemap godoc
// @Summary Смена подложки
// @Description Камера, видимость категорий, выделение и маршрут сохраняются
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.BasemapRequest true "ID подложки"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/basemap [put]
func (h *InteractionHandler) SetBasemap(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.BasemapRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	if err := s.Dispatch(c.UserContext(), usecase.SetBasemap{ID: domain.BasemapID(req.Basemap)}); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, sessionResponse(s), nil)
}

// Select godoc
// @Summary Выделение точки категории
// @Description Без place_id выделение снимается. Смена категории останавливает анимацию.
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SelectionRequest true "Категория и точка"
// @Success 200 {object} utils.SuccessResponse{data=dto.SelectionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/selection [post]
func (h *InteractionHandler) Select(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.SelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	found, err := s.HighlightCategoryPlace(req.Category, req.PlaceID)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, selectionResponse(s, found), nil)
}

// StartBounce godoc
// @Summary Запуск анимации выбранной точки
// @Tags Interaction
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SelectionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/bounce [post]
func (h *InteractionHandler) StartBounce(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	if !s.StartBounceSelected() {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("No place is selected"))
	}
	return utils.SendSuccess(c, selectionResponse(s, true), nil)
}

// StopBounce godoc
// @Summary Остановка анимации
// @Tags Interaction
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/bounce [delete]
func (h *InteractionHandler) StopBounce(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	s.StopBounceSelected()
	return c.SendStatus(fiber.StatusNoContent)
}

// Visibility godoc
// @Summary Видимость категорий
// @Tags Interaction
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.VisibilityResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/categories/visibility [get]
func (h *InteractionHandler) Visibility(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	vis, err := s.CategoryVisibility()
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.VisibilityResponse{Categories: vis}, nil)
}

// SetVisibility godoc
// @Summary Показ или скрытие категории
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param category path string true "ID категории"
// @Param request body dto.VisibilityRequest true "Видимость"
// @Success 200 {object} utils.SuccessResponse{data=dto.VisibilityResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/categories/{category}/visibility [put]
func (h *InteractionHandler) SetVisibility(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.VisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	if err := s.SetCategoryVisible(c.Params("category"), *req.Visible); err != nil {
		return utils.SendError(c, err)
	}
	vis, err := s.CategoryVisibility()
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.VisibilityResponse{Categories: vis}, nil)
}

// Event godoc
// @Summary Событие пользователя на слое
// @Description click по кластеру приближает карту, click по точке открывает попап и выделяет ее; mouseenter и mouseleave меняют курсор
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.ClickRequest true "Событие"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/events/click [post]
func (h *InteractionHandler) Event(c *fiber.Ctx) error {
	m, err := mapOf(h.sessions, c)
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.ClickRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	switch req.Event {
	case mapengine.EventClick:
		if req.FeatureID == "" && req.ClusterID == nil {
			return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("feature_id or cluster_id is required"))
		}
		err = m.Click(req.Layer, mapengine.FeatureRef{FeatureID: req.FeatureID, ClusterID: req.ClusterID})
	default:
		err = m.Hover(req.Layer, req.Event == mapengine.EventMouseEnter)
	}
	if err != nil {
		return utils.SendError(c, mapError(err))
	}

	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, sessionResponse(s), nil)
}

// Position godoc
// @Summary Положение устройства
// @Description Принимает координаты устройства или отказ в геолокации
// @Tags Interaction
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.PositionRequest true "Положение"
// @Success 200 {object} utils.SuccessResponse{data=dto.PositionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/position [post]
func (h *InteractionHandler) Position(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.PositionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}

	if req.Unavailable {
		s.Locator().ReportUnavailable()
		return utils.SendSuccess(c, dto.PositionResponse{Accepted: true}, nil)
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	pos := usecase.Position{
		Point:     orb.Point{req.Lng, req.Lat},
		Accuracy:  req.Accuracy,
		Timestamp: time.Now(),
	}
	if req.Timestamp != nil {
		pos.Timestamp = *req.Timestamp
	}
	return utils.SendSuccess(c, dto.PositionResponse{Accepted: s.Locator().Report(pos)}, nil)
}

// Geocode godoc
// @Summary Поиск мест
// @Description Результаты ранжируются по близости к центру карты
// @Tags Geocoder
// @Produce json
// @Param id path string true "ID сессии"
// @Param q query string true "Поисковый запрос (минимум 2 символа)"
// @Success 200 {object} utils.SuccessResponse{data=dto.GeocodeResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/geocode [get]
func (h *InteractionHandler) Geocode(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	req := dto.GeocodeSearchRequest{Query: c.Query("q")}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	results, err := s.GeocodeSearch(c.UserContext(), req.Query)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.GeocodeResponse{Results: results}, &utils.Meta{Total: len(results)})
}

// GeocodeSelect godoc
// @Summary Выбор результата поиска
// @Description Камера перелетает к месту, затем строится маршрут до него
// @Tags Geocoder
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.GeocodeSelectRequest true "Результат поиска"
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/geocode/select [post]
func (h *InteractionHandler) GeocodeSelect(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	var req dto.GeocodeSelectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	cmd := usecase.GeocoderResult{Result: domain.GeocodeResult{
		ID:        req.ID,
		PlaceName: req.PlaceName,
		Center:    []float64{req.Center.Lng, req.Center.Lat},
	}}
	if err := s.Dispatch(c.UserContext(), cmd); err != nil {
		return utils.SendError(c, routeError(err))
	}
	return utils.SendSuccess(c, routeResponse(s), nil)
}

// GeocodeClear godoc
// @Summary Очистка поиска
// @Description Убирает маршрут, построенный по результату поиска
// @Tags Geocoder
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/geocode [delete]
func (h *InteractionHandler) GeocodeClear(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := s.Dispatch(c.UserContext(), usecase.GeocoderCleared{}); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func selectionResponse(s *usecase.MapSession, highlighted bool) dto.SelectionResponse {
	sel := s.Selection()
	return dto.SelectionResponse{
		Category:    sel.Category,
		PlaceID:     sel.PlaceID,
		Highlighted: highlighted,
		Bounce:      s.BounceState().String(),
	}
}
