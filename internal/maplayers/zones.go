package maplayers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/metrics"
)

// Цвета неонового контура зоны
const (
	zoneGlowOuterColor = "#0066FF"
	zoneGlowInnerColor = "#00E5FF"
	zoneCoreColor      = "#E6F7FF"
	zoneLabelColor     = "#0B1220"
	zoneLabelHalo      = "#FFFFFF"
)

// ZoneLayerBuilder рисует контуры зон соревнований
type ZoneLayerBuilder struct {
	assets repository.AssetRepository
	zones  []domain.ZoneBoundary
	logger *zap.Logger
}

func NewZoneLayerBuilder(assets repository.AssetRepository, zones []domain.ZoneBoundary, logger *zap.Logger) *ZoneLayerBuilder {
	if zones == nil {
		zones = domain.CompetitionZoneBoundaries
	}
	return &ZoneLayerBuilder{
		assets: assets,
		zones:  zones,
		logger: logger,
	}
}

// Build дожидается загрузки стиля и добавляет все зоны параллельно.
// Ошибка одной зоны пишется в лог и не мешает остальным.
func (b *ZoneLayerBuilder) Build(ctx context.Context, m mapengine.Map) error {
	if err := WaitStyleLoaded(ctx, m); err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, zone := range b.zones {
		wg.Add(1)
		go func(zone domain.ZoneBoundary) {
			defer wg.Done()
			if err := b.addZone(ctx, m, zone); err != nil {
				metrics.IncLayerBuild("zone", metrics.OutcomeError)
				b.logger.Warn("Failed to add zone layers",
					zap.String("map_id", m.ID()),
					zap.String("zone", zone.Name),
					zap.Error(err),
				)
				return
			}
			metrics.IncLayerBuild("zone", metrics.OutcomeOK)
		}(zone)
	}
	wg.Wait()

	return ctx.Err()
}

// WaitStyleLoaded возвращается сразу, если стиль загружен, иначе ждет styledata
func WaitStyleLoaded(ctx context.Context, m mapengine.Map) error {
	if m.IsStyleLoaded() {
		return nil
	}

	ready := make(chan struct{})
	var once sync.Once
	id := m.On(mapengine.EventStyleData, "", func(mapengine.Event) {
		once.Do(func() { close(ready) })
	})
	defer m.Off(id)

	// стиль мог загрузиться между проверкой и подпиской
	if m.IsStyleLoaded() {
		return nil
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *ZoneLayerBuilder) addZone(ctx context.Context, m mapengine.Map, zone domain.ZoneBoundary) error {
	sourceID := zone.SourceID()

	if _, ok := m.GetSource(sourceID); !ok {
		data, err := b.assets.Fetch(ctx, zone.File)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", zone.File, err)
		}
		fc, err := parsePolygons(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", zone.File, err)
		}
		if err := addOrSetSource(m, sourceID, mapengine.Source{Type: mapengine.SourceTypeGeoJSON, Data: fc}); err != nil {
			return err
		}
	}

	for _, l := range zoneLayers(zone) {
		if _, err := ensureLayer(m, l, ""); err != nil {
			return fmt.Errorf("layer %s: %w", l.ID, err)
		}
	}
	return nil
}

func zoneLayers(zone domain.ZoneBoundary) []mapengine.Layer {
	source := zone.SourceID()
	lineLayout := func() map[string]any {
		return map[string]any{"line-join": "round", "line-cap": "round"}
	}
	fillColor := zone.Color
	if fillColor == "" {
		fillColor = "transparent"
	}

	return []mapengine.Layer{
		{
			ID:     zone.FillID(),
			Type:   mapengine.LayerFill,
			Source: source,
			Paint: map[string]any{
				"fill-color":   fillColor,
				"fill-opacity": 0,
			},
		},
		{
			ID:     zone.Glow1ID(),
			Type:   mapengine.LayerLine,
			Source: source,
			Layout: lineLayout(),
			Paint: map[string]any{
				"line-color":   zoneGlowOuterColor,
				"line-width":   18,
				"line-blur":    12,
				"line-opacity": 0.45,
			},
		},
		{
			ID:     zone.Glow2ID(),
			Type:   mapengine.LayerLine,
			Source: source,
			Layout: lineLayout(),
			Paint: map[string]any{
				"line-color":   zoneGlowInnerColor,
				"line-width":   10,
				"line-blur":    6,
				"line-opacity": 0.7,
			},
		},
		{
			ID:     zone.OutlineID(),
			Type:   mapengine.LayerLine,
			Source: source,
			Layout: lineLayout(),
			Paint: map[string]any{
				"line-color":   zoneCoreColor,
				"line-width":   2.4,
				"line-opacity": 1,
			},
		},
		{
			ID:     zone.LabelID(),
			Type:   mapengine.LayerSymbol,
			Source: source,
			Layout: map[string]any{
				"symbol-placement":      "point",
				"text-field":            zone.Name,
				"text-font":             []any{"Open Sans Bold"},
				"text-size":             mapengine.InterpolateZoom(8, 12, 12, 16, 16, 22),
				"text-anchor":           "center",
				"text-allow-overlap":    true,
				"text-ignore-placement": true,
			},
			Paint: map[string]any{
				"text-color":      zoneLabelColor,
				"text-halo-color": zoneLabelHalo,
				"text-halo-width": 1.6,
				"text-halo-blur":  0.4,
			},
		},
	}
}

// parsePolygons принимает FeatureCollection, одиночный Feature или голую геометрию
func parsePolygons(data []byte) (*geojson.FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case "FeatureCollection":
		return geojson.UnmarshalFeatureCollection(data)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.AddFeature(f)
		return fc, nil
	case "Polygon", "MultiPolygon":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.AddFeature(geojson.NewFeature(g))
		return fc, nil
	default:
		return nil, fmt.Errorf("unsupported GeoJSON type %q", probe.Type)
	}
}
