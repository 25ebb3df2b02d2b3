package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/config"
	"github.com/venue-map-service/internal/delivery/http/handler"
	"github.com/venue-map-service/internal/delivery/http/middleware"
	"github.com/venue-map-service/internal/metrics"
	"github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/utils"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	sessionHandler     *handler.SessionHandler
	routeHandler       *handler.RouteHandler
	interactionHandler *handler.InteractionHandler
	catalogHandler     *handler.CatalogHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *handler.SessionHandler,
	routeHandler *handler.RouteHandler,
	interactionHandler *handler.InteractionHandler,
	catalogHandler *handler.CatalogHandler,
) *Server {
	readTimeout, writeTimeout := cfg.Server.ReadTimeout, cfg.Server.WriteTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:      "Venue Map Service",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:                app,
		config:             cfg,
		logger:             logger,
		sessionHandler:     sessionHandler,
		routeHandler:       routeHandler,
		interactionHandler: interactionHandler,
		catalogHandler:     catalogHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - fiber-приложение, нужно тестам для app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	if s.config.Metrics.Enabled {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.app.Get(path, adaptor.HTTPHandler(metrics.Handler()))
	}

	api := s.app.Group("/api/v1")

	api.Get("/health", s.catalogHandler.Health)
	api.Get("/basemaps", s.catalogHandler.Basemaps)
	api.Get("/categories", s.catalogHandler.Categories)

	// Sessions
	api.Post("/sessions", s.sessionHandler.Create)
	api.Get("/sessions/:id", s.sessionHandler.Get)
	api.Delete("/sessions/:id", s.sessionHandler.Destroy)
	api.Get("/sessions/:id/style", s.sessionHandler.Style)
	api.Get("/sessions/:id/sources/:source/clusters", s.sessionHandler.Clusters)
	api.Post("/sessions/:id/reset", s.sessionHandler.Reset)
	api.Get("/sessions/:id/notifications", s.sessionHandler.Notifications)

	// Route
	api.Post("/sessions/:id/route", s.routeHandler.Show)
	api.Get("/sessions/:id/route", s.routeHandler.Get)
	api.Delete("/sessions/:id/route", s.routeHandler.Clear)

	// Interaction
	api.Put("/sessions/:id/basemap", s.interactionHandler.SetBasemap)
	api.Post("/sessions/:id/selection", s.interactionHandler.Select)
	api.Post("/sessions/:id/bounce", s.interactionHandler.StartBounce)
	api.Delete("/sessions/:id/bounce", s.interactionHandler.StopBounce)
	api.Get("/sessions/:id/categories/visibility", s.interactionHandler.Visibility)
	api.Put("/sessions/:id/categories/:category/visibility", s.interactionHandler.SetVisibility)
	api.Post("/sessions/:id/events/click", s.interactionHandler.Event)
	api.Post("/sessions/:id/position", s.interactionHandler.Position)

	// Geocoder
	api.Get("/sessions/:id/geocode", s.interactionHandler.Geocode)
	api.Post("/sessions/:id/geocode/select", s.interactionHandler.GeocodeSelect)
	api.Delete("/sessions/:id/geocode", s.interactionHandler.GeocodeClear)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(utils.ErrorResponse{
			Error: errors.New(httpErrorCode(code), err.Error(), code),
		})
	}
}

func httpErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
