package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/mapengine"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/utils"
	"github.com/venue-map-service/internal/pkg/validator"
	"github.com/venue-map-service/internal/usecase"
	"github.com/venue-map-service/internal/usecase/dto"
)

// SessionHandler - жизненный цикл карты клиента
type SessionHandler struct {
	sessions *usecase.SessionRegistry
	logger   *zap.Logger
}

func NewSessionHandler(sessions *usecase.SessionRegistry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Create godoc
// @Summary Создание карты
// @Description Создает сессию и карту; слои зон и категорий строятся после загрузки стиля
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest false "Параметры карты"
// @Success 201 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("Invalid request body"))
		}
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	opts := usecase.InitOptions{Container: req.Container, Mobile: req.Mobile}
	if req.Width > 0 && req.Height > 0 {
		opts.Viewport = &mapengine.Viewport{Width: req.Width, Height: req.Height}
	}

	s := h.sessions.Create(opts)
	h.logger.Info("Session created", zap.String("session_id", s.ID()))
	return utils.SendCreated(c, sessionResponse(s))
}

// Get godoc
// @Summary Состояние сессии
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, sessionResponse(s), nil)
}

// Destroy godoc
// @Summary Уничтожение карты
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) Destroy(c *fiber.Ctx) error {
	if err := h.sessions.Destroy(c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Style godoc
// @Summary Снимок стиля карты
// @Description Источники, слои, картинки, камера, маркеры и попап в том виде, в котором их должен отрисовать клиент
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=mapengine.Style}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/style [get]
func (h *SessionHandler) Style(c *fiber.Ctx) error {
	m, err := h.mapOf(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, m.Style(), nil)
}

// Clusters godoc
// @Summary Кластеры источника на зуме
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Param source path string true "ID кластерного источника"
// @Param zoom query number false "Зум, по умолчанию текущий"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/sources/{source}/clusters [get]
func (h *SessionHandler) Clusters(c *fiber.Ctx) error {
	m, err := h.mapOf(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	zoom := m.Camera().Zoom
	if q := c.Query("zoom"); q != "" {
		z, perr := strconv.ParseFloat(q, 64)
		if perr != nil || z < 0 || z > 24 {
			return utils.SendError(c, apperrors.ErrInvalidRequest.WithMessage("zoom must be a number between 0 and 24"))
		}
		zoom = z
	}

	fc, err := m.Clusters(c.Params("source"), zoom)
	if err != nil {
		return utils.SendError(c, mapError(err))
	}
	return utils.SendSuccess(c, fc, &utils.Meta{Total: len(fc.Features)})
}

// Reset godoc
// @Summary Сброс вида
// @Description Убирает маршрут и возвращает камеру в начальную точку
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/reset [post]
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	if err := s.ResetView(); err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, sessionResponse(s), nil)
}

// Notifications godoc
// @Summary Уведомления для пользователя
// @Description Возвращает накопленные уведомления и очищает очередь
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=[]dto.NotificationResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/notifications [get]
func (h *SessionHandler) Notifications(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	drained := s.Notifications()
	out := make([]dto.NotificationResponse, 0, len(drained))
	for _, n := range drained {
		out = append(out, dto.NotificationResponse{
			Level:   string(n.Level),
			Message: n.Message,
			Time:    n.Time,
		})
	}
	return utils.SendSuccess(c, out, &utils.Meta{Total: len(out)})
}

func (h *SessionHandler) mapOf(c *fiber.Ctx) (*mapengine.StyleMap, error) {
	return mapOf(h.sessions, c)
}

func mapOf(sessions *usecase.SessionRegistry, c *fiber.Ctx) (*mapengine.StyleMap, error) {
	s, err := sessions.Get(c.Params("id"))
	if err != nil {
		return nil, err
	}
	m := s.GetMap()
	if m == nil {
		return nil, apperrors.ErrMapNotInitialized
	}
	return m, nil
}

func sessionResponse(s *usecase.MapSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:       s.ID(),
		State:    s.State().String(),
		HasRoute: s.HasRoute(),
	}
	if m := s.GetMap(); m != nil {
		resp.Camera = m.Camera()
		resp.StyleURL = m.Style().URL
	}
	return resp
}

// mapError переводит ошибки карты в ответы API
func mapError(err error) error {
	switch {
	case errors.Is(err, mapengine.ErrMapRemoved):
		return apperrors.ErrMapNotInitialized
	case errors.Is(err, mapengine.ErrSourceNotFound),
		errors.Is(err, mapengine.ErrLayerNotFound),
		errors.Is(err, mapengine.ErrFeatureNotFound),
		errors.Is(err, mapengine.ErrClusterNotFound),
		errors.Is(err, mapengine.ErrNotClustered):
		return apperrors.ErrInvalidRequest.WithMessage(err.Error())
	default:
		return err
	}
}
