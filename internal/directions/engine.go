package directions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
	"github.com/venue-map-service/internal/metrics"
)

// ErrNoRoute - API ответил, но маршрута нет
var ErrNoRoute = errors.New("no route found")

// Id слоев и источников маршрута
const (
	RouteLayerID     = "route-line"
	RouteSourceID    = "route-source"
	AltRoutePrefix   = "route-alt-"
	StepsLayerID     = "steps-layer"
	StepsSourceID    = "steps-source"
	stepMarkerPrefix = "route-step-"

	routeColor      = "#3b82f6"
	routeWidth      = 4
	routeFitPadding = 40
)

// Engine строит маршрут через Directions API и рисует его на карте.
// Маркеры шагов учитываются отдельно для каждой карты; отрисовка и очистка
// одной карты идут строго по очереди.
type Engine struct {
	mapbox repository.MapboxRepository
	logger *zap.Logger

	mu       sync.Mutex
	markers  map[string][]string
	mapLocks map[string]*sync.Mutex
}

func NewEngine(mapbox repository.MapboxRepository, logger *zap.Logger) *Engine {
	return &Engine{
		mapbox:   mapbox,
		logger:   logger,
		markers:  make(map[string][]string),
		mapLocks: make(map[string]*sync.Mutex),
	}
}

// lockMap захватывает очередь карты и возвращает функцию освобождения
func (e *Engine) lockMap(mapID string) func() {
	e.mu.Lock()
	l, ok := e.mapLocks[mapID]
	if !ok {
		l = &sync.Mutex{}
		e.mapLocks[mapID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// DrawRoute запрашивает маршрут и рисует его. Карта меняется только после
// успешного запроса и разбора, поэтому при ошибке прежний маршрут остается как был.
func (e *Engine) DrawRoute(ctx context.Context, m mapengine.Map, origin, destination orb.Point) (*domain.RouteDetails, error) {
	start := time.Now()
	resp, err := e.mapbox.GetDirections(ctx, origin, destination)
	if err != nil {
		metrics.ObserveDirections(metrics.OutcomeError, time.Since(start).Seconds())
		e.logger.Error("Directions request failed",
			zap.String("map_id", m.ID()),
			zap.Error(err))
		return nil, fmt.Errorf("directions: %w", err)
	}

	details, err := ParseRoute(resp)
	if err != nil {
		metrics.ObserveDirections(metrics.OutcomeEmpty, time.Since(start).Seconds())
		return nil, err
	}
	metrics.ObserveDirections(metrics.OutcomeOK, time.Since(start).Seconds())

	if err := e.Render(m, details); err != nil {
		return nil, err
	}

	e.logger.Info("Route drawn",
		zap.String("map_id", m.ID()),
		zap.Float64("distance_m", details.Distance),
		zap.Float64("duration_s", details.Duration),
		zap.Int("steps", len(details.Steps)),
		zap.Int("alternatives", len(details.Alternatives)))

	return details, nil
}

// Render рисует уже полученный маршрут: линия, подгонка камеры, маркеры шагов
func (e *Engine) Render(m mapengine.Map, details *domain.RouteDetails) error {
	return e.render(m, details, true)
}

// Redraw - то же без подгонки камеры; для восстановления маршрута после смены подложки
func (e *Engine) Redraw(m mapengine.Map, details *domain.RouteDetails) error {
	return e.render(m, details, false)
}

func (e *Engine) render(m mapengine.Map, details *domain.RouteDetails, fit bool) error {
	if details == nil || len(details.Geometry) < 2 {
		return ErrNoRoute
	}

	unlock := e.lockMap(m.ID())
	defer unlock()

	if err := maplayers.EnsureNoLayer(m, RouteLayerID); err != nil {
		return err
	}
	if err := maplayers.EnsureNoSource(m, RouteSourceID); err != nil {
		return err
	}

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(geojson.NewLineStringFeature(lineCoords(details.Geometry)))

	if err := m.AddSource(RouteSourceID, mapengine.Source{Type: mapengine.SourceTypeGeoJSON, Data: fc}); err != nil {
		return fmt.Errorf("route source: %w", err)
	}
	err := m.AddLayer(mapengine.Layer{
		ID:     RouteLayerID,
		Type:   mapengine.LayerLine,
		Source: RouteSourceID,
		Layout: map[string]any{
			"line-join": "round",
			"line-cap":  "round",
		},
		Paint: map[string]any{
			"line-color": routeColor,
			"line-width": routeWidth,
		},
	}, "")
	if err != nil {
		_ = maplayers.EnsureNoSource(m, RouteSourceID)
		return fmt.Errorf("route layer: %w", err)
	}

	if fit {
		maplayers.FitToLine(m, details.Geometry, routeFitPadding)
	}

	e.clearMarkers(m)
	e.addStepMarkers(m, details.Steps)
	return nil
}

func (e *Engine) addStepMarkers(m mapengine.Map, steps []domain.StepDetail) {
	ids := make([]string, 0, len(steps))
	for i, step := range steps {
		html, err := renderStepPopup(step)
		if err != nil {
			e.logger.Warn("Failed to render step popup", zap.Int("step", i), zap.Error(err))
			continue
		}

		id := fmt.Sprintf("%s%d", stepMarkerPrefix, i)
		m.AddMarker(mapengine.Marker{
			ID:     id,
			LngLat: step.Location,
			Anchor: "center",
			Icon:   turnIcon(step.Maneuver),
			Popup: &mapengine.Popup{
				ID:     id + "-popup",
				LngLat: step.Location,
				Offset: 12,
				HTML:   html,
			},
		})
		ids = append(ids, id)
	}

	e.mu.Lock()
	e.markers[m.ID()] = ids
	e.mu.Unlock()
}

// clearMarkers снимает учтенные маркеры шагов и все прочие маркеры с префиксом шагов
func (e *Engine) clearMarkers(m mapengine.Map) {
	e.mu.Lock()
	ids := e.markers[m.ID()]
	delete(e.markers, m.ID())
	e.mu.Unlock()

	for _, id := range ids {
		m.RemoveMarker(id)
	}
	for _, marker := range m.Style().Markers {
		if strings.HasPrefix(marker.ID, stepMarkerPrefix) {
			m.RemoveMarker(marker.ID)
		}
	}
}

// ClearRoute убирает все следы маршрута. Без маршрута ничего не делает.
func (e *Engine) ClearRoute(m mapengine.Map) error {
	unlock := e.lockMap(m.ID())
	defer unlock()

	var errs []error
	keep := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	keep(maplayers.EnsureNoLayer(m, RouteLayerID))
	keep(maplayers.EnsureNoSource(m, RouteSourceID))

	st := m.Style()
	for _, l := range st.Layers {
		if strings.HasPrefix(l.ID, AltRoutePrefix) {
			keep(maplayers.EnsureNoLayer(m, l.ID))
		}
	}
	for id := range st.Sources {
		if strings.HasPrefix(id, AltRoutePrefix) {
			keep(maplayers.EnsureNoSource(m, id))
		}
	}

	keep(maplayers.EnsureNoLayer(m, StepsLayerID))
	keep(maplayers.EnsureNoSource(m, StepsSourceID))

	e.clearMarkers(m)
	return errors.Join(errs...)
}

// Forget забывает маркеры карты, которая уничтожена
func (e *Engine) Forget(mapID string) {
	e.mu.Lock()
	delete(e.markers, mapID)
	delete(e.mapLocks, mapID)
	e.mu.Unlock()
}

// StepMarkers - id маркеров шагов на карте
func (e *Engine) StepMarkers(mapID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.markers[mapID]...)
}

func lineCoords(line orb.LineString) [][]float64 {
	out := make([][]float64, len(line))
	for i, p := range line {
		out[i] = []float64{p.Lon(), p.Lat()}
	}
	return out
}
