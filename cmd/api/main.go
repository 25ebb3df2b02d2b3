package main

// @title Venue Map Service API
// @version 1.0.0
// @description Серверная карта площадок соревнований. Каждая сессия клиента владеет стилем Mapbox GL
// @description с кластерными слоями категорий мест, контурами зон и маршрутом до площадки.
// @description
// @description Основные возможности:
// @description - Создание карты сессии и снимок ее стиля
// @description - Маршрут до площадки с пошаговыми подсказками
// @description - Смена подложки без потери камеры, видимости и маршрута
// @description - Выделение и анимация точек категорий
// @description - Поиск мест через Mapbox Geocoding

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	_ "github.com/venue-map-service/docs/swagger"
	"github.com/venue-map-service/internal/config"
	httpDelivery "github.com/venue-map-service/internal/delivery/http"
	"github.com/venue-map-service/internal/delivery/http/handler"
	"github.com/venue-map-service/internal/directions"
	"github.com/venue-map-service/internal/infrastructure/assets"
	"github.com/venue-map-service/internal/infrastructure/mapbox"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
	"github.com/venue-map-service/internal/pkg/frames"
	"github.com/venue-map-service/internal/pkg/logger"
	"github.com/venue-map-service/internal/repository/cache"
	"github.com/venue-map-service/internal/repository/postgres"
	redisRepo "github.com/venue-map-service/internal/repository/redis"
	"github.com/venue-map-service/internal/usecase"
	"github.com/venue-map-service/internal/worker"
	"github.com/venue-map-service/internal/worker/places"
	"github.com/venue-map-service/internal/worker/sessions"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Venue Map Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Bool("dummy_location", cfg.Map.UseDummyLocation),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("PostgreSQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	log.Info("All connections healthy")

	// 6. Repositories and external clients
	placeRepo := cache.NewCachedPlaceRepository(
		postgres.NewPlaceRepository(db),
		cache.NewCacheRepository(redisClient),
		cfg.Cache.PlacesCacheTTL,
		log,
	)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)
	mapboxClient := mapbox.NewMapboxClient(&cfg.Mapbox, log)
	assetRepo := assets.NewFetcher(cfg.Map.AssetsBaseURL, cfg.Mapbox.RequestTimeout, log)

	// 7. Layer builders shared by all sessions
	markerImages, err := maplayers.NewMarkerImages(assetRepo, cfg.Map.MarkerCacheSize, log)
	if err != nil {
		log.Fatal("Failed to create marker image cache", zap.Error(err))
	}
	categoryBuilder := maplayers.NewCategoryPointsBuilder(placeRepo, markerImages, maplayers.NewHTMLPopupRenderer(), log)
	zoneBuilder := maplayers.NewZoneLayerBuilder(assetRepo, nil, log)
	routeEngine := directions.NewEngine(mapboxClient, log)
	geocoder := usecase.NewGeocoderControl(mapboxClient, cfg.Mapbox.GeocodingCountry, log)

	scheduler := frames.NewTickerScheduler(cfg.Map.FrameInterval(), log)
	scheduler.Start()
	defer scheduler.Stop()

	sessionCfg := usecase.SessionConfig{
		StyleURL:   cfg.Map.StyleURL,
		Center:     orb.Point{cfg.Map.InitialCenterLon, cfg.Map.InitialCenterLat},
		Zoom:       cfg.Map.InitialZoom,
		MobileZoom: cfg.Map.MobileInitialZoom,
		Viewport:   mapengine.Viewport{Width: cfg.Map.ViewportWidth, Height: cfg.Map.ViewportHeight},
		Locator: usecase.LocatorConfig{
			UseDummy: cfg.Map.UseDummyLocation,
			Dummy:    orb.Point{cfg.Map.DummyLon, cfg.Map.DummyLat},
			Timeout:  cfg.Map.GeolocationTimeout,
			MaxAge:   cfg.Map.GeolocationMaxAge,
		},
	}

	// 8. Session registry
	registry := usecase.NewSessionRegistry(func(id string) *usecase.MapSession {
		return usecase.NewMapSession(id, sessionCfg, usecase.SessionDeps{
			Categories: categoryBuilder,
			Zones:      zoneBuilder,
			Routes:     routeEngine,
			Geocoder:   geocoder,
			Scheduler:  scheduler,
			Notifier:   usecase.NewNotificationBuffer(0),
		}, log)
	}, log)
	defer registry.Close()

	// 9. Background workers: layer refresh and idle session sweeping.
	// Сессии живут в памяти процесса, поэтому у каждого экземпляра своя группа.
	hostname, _ := os.Hostname()
	refreshGroup := fmt.Sprintf("%s-api-%s-%d", cfg.Worker.ConsumerGroup, hostname, os.Getpid())

	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(places.NewLayerRefreshWorker(
		streamRepo,
		registry,
		refreshGroup,
		cfg.Worker.BatchSize,
		log,
	))
	workerManager.Register(sessions.NewIdleSweeper(registry, cfg.Server.SessionIdle, log))

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if err := workerManager.Start(workersCtx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 10. HTTP handlers and server
	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewSessionHandler(registry, log),
		handler.NewRouteHandler(registry, log),
		handler.NewInteractionHandler(registry, log),
		handler.NewCatalogHandler(registry, map[string]handler.HealthChecker{
			"postgres": db,
			"redis":    redisClient,
		}, log),
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	stopWorkers()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
