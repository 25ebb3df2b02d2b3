package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/pkg/utils"
	"github.com/venue-map-service/internal/usecase"
	"github.com/venue-map-service/internal/usecase/dto"
)

const healthTimeout = 2 * time.Second

// HealthChecker - зависимость, которую проверяет /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CatalogHandler - справочники и состояние сервиса
type CatalogHandler struct {
	sessions *usecase.SessionRegistry
	checks   map[string]HealthChecker
	logger   *zap.Logger
}

func NewCatalogHandler(sessions *usecase.SessionRegistry, checks map[string]HealthChecker, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		sessions: sessions,
		checks:   checks,
		logger:   logger,
	}
}

// Health godoc
// @Summary Состояние сервиса
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Success 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *CatalogHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   "healthy",
		Services: make(map[string]string, len(h.checks)),
		Sessions: h.sessions.Len(),
		Time:     time.Now(),
	}
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("service", name), zap.Error(err))
			resp.Services[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Services[name] = "healthy"
	}

	status := fiber.StatusOK
	if resp.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

// Basemaps godoc
// @Summary Каталог подложек
// @Tags Catalog
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Basemap}
// @Router /api/v1/basemaps [get]
func (h *CatalogHandler) Basemaps(c *fiber.Ctx) error {
	basemaps := domain.Basemaps()
	return utils.SendSuccess(c, basemaps, &utils.Meta{Total: len(basemaps)})
}

// Categories godoc
// @Summary Каталог категорий мест
// @Tags Catalog
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Category}
// @Router /api/v1/categories [get]
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	return utils.SendSuccess(c, domain.Categories, &utils.Meta{Total: len(domain.Categories)})
}
