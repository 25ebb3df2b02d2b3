package maplayers

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/metrics"
)

// Суффиксы слоев кластерного источника
const (
	SuffixClustersGlow = "-clusters-glow"
	SuffixClustersCore = "-clusters-core"
	SuffixClustersRing = "-clusters-ring"
	SuffixClusterCount = "-cluster-count"
	SuffixSymbols      = "-symbols"
	SuffixSelectedHalo = "-selected-halo"

	legacyPointsSuffix = "-points"

	ClusterRadius  = 50
	ClusterMaxZoom = 14

	// минимальный зум после клика по точке
	placeFocusZoom = 15
)

// ClusterLayerIDs - id слоев одного кластерного источника
type ClusterLayerIDs struct {
	Glow, Core, Ring, Count, Symbols, Halo string
}

func LayerIDsFor(clusterSourceID string) ClusterLayerIDs {
	return ClusterLayerIDs{
		Glow:    clusterSourceID + SuffixClustersGlow,
		Core:    clusterSourceID + SuffixClustersCore,
		Ring:    clusterSourceID + SuffixClustersRing,
		Count:   clusterSourceID + SuffixClusterCount,
		Symbols: clusterSourceID + SuffixSymbols,
		Halo:    clusterSourceID + SuffixSelectedHalo,
	}
}

// BuildOptions - параметры одной сборки слоев категории
type BuildOptions struct {
	Visible bool
	// OnSelect вызывается при клике по точке, после открытия попапа
	OnSelect func(categoryID, placeID string)
}

// CategoryPointsBuilder строит кластерные слои мест категории
type CategoryPointsBuilder struct {
	places repository.PlaceRepository
	images *MarkerImages
	popups PopupRenderer
	logger *zap.Logger
}

func NewCategoryPointsBuilder(
	places repository.PlaceRepository,
	images *MarkerImages,
	popups PopupRenderer,
	logger *zap.Logger,
) *CategoryPointsBuilder {
	return &CategoryPointsBuilder{
		places: places,
		images: images,
		popups: popups,
		logger: logger,
	}
}

// Build загружает зоны и места категории и строит слои для каждой непустой зоны.
// Повторный вызов не создает дублей: существующие слои остаются, данные источников заменяются.
func (b *CategoryPointsBuilder) Build(ctx context.Context, m mapengine.Map, cat domain.Category, opts BuildOptions) error {
	log := b.logger.With(zap.String("map_id", m.ID()), zap.String("category", cat.ID))

	// картинка маркера обязательна: без нее категория не рисуется
	imageID, err := b.images.Ensure(ctx, m, cat.Marker())
	if err != nil {
		metrics.IncLayerBuild("category", metrics.OutcomeError)
		return fmt.Errorf("marker image for category %s: %w", cat.ID, err)
	}

	zones, err := b.places.ListZones(ctx, cat.ID)
	if err != nil {
		log.Warn("Failed to list zones", zap.Error(err))
		zones = nil
	}

	built := 0
	for _, zone := range zones {
		if err := ctx.Err(); err != nil {
			return err
		}

		zp, err := b.places.ListZonePlaces(ctx, zone.ID)
		if err != nil {
			log.Warn("Failed to load zone places, skipping zone",
				zap.String("zone_id", zone.ID),
				zap.String("zone", zone.Name),
				zap.Error(err),
			)
			continue
		}

		color := zp.Zone.Color
		if color == "" {
			color = domain.DefaultZoneColor
		}
		fc := placesToFeatures(zp.Places, zone.Name, color, cat, imageID)
		if len(fc.Features) == 0 {
			continue
		}
		if err := b.addClusterLayers(m, cat, zone.Name, fc, opts); err != nil {
			return err
		}
		built++
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	unassigned, err := b.places.ListUnassignedPlaces(ctx, cat.ID)
	if err != nil {
		log.Warn("Failed to load unassigned places", zap.Error(err))
	} else {
		fc := placesToFeatures(unassigned, domain.UnassignedZoneName, domain.UnassignedZoneColor, cat, imageID)
		if len(fc.Features) > 0 {
			if err := b.addClusterLayers(m, cat, domain.UnassignedZoneName, fc, opts); err != nil {
				return err
			}
			built++
		}
	}

	outcome := metrics.OutcomeOK
	if built == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.IncLayerBuild("category", outcome)
	log.Debug("Category layers built", zap.Int("sources", built))
	return nil
}

func placesToFeatures(places []*domain.Place, zoneName, color string, cat domain.Category, imageID string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range places {
		if p == nil {
			continue
		}
		props := domain.NewFeatureProperties(p, zoneName)
		if props.PointColor == "" {
			props.PointColor = color
		}
		if props.CategoryID == "" {
			props.CategoryID = cat.ID
		}
		props.Image = imageID
		props.Icon = cat.Icon()
		fc.AddFeature(domain.NewPlaceFeature(p, props))
	}
	return fc
}

func (b *CategoryPointsBuilder) addClusterLayers(
	m mapengine.Map,
	cat domain.Category,
	zoneName string,
	fc *geojson.FeatureCollection,
	opts BuildOptions,
) error {
	plainID := cat.SourceID(zoneName)
	clusterID := cat.ClusterSourceID(zoneName)

	if err := AddOrSetSource(m, plainID, fc); err != nil {
		return fmt.Errorf("source %s: %w", plainID, err)
	}
	if err := EnsureNoLayer(m, plainID+legacyPointsSuffix); err != nil {
		return err
	}

	err := addOrSetSource(m, clusterID, mapengine.Source{
		Type:           mapengine.SourceTypeGeoJSON,
		Data:           fc,
		Cluster:        true,
		ClusterRadius:  ClusterRadius,
		ClusterMaxZoom: ClusterMaxZoom,
	})
	if err != nil {
		return fmt.Errorf("source %s: %w", clusterID, err)
	}

	visibility := mapengine.VisibilityNone
	if opts.Visible {
		visibility = mapengine.VisibilityVisible
	}

	ids := LayerIDsFor(clusterID)
	layers := clusterLayers(ids, clusterID, visibility)

	for _, l := range layers {
		before := ""
		if l.ID == ids.Halo {
			before = ids.Symbols
		}
		created, err := ensureLayer(m, l, before)
		if err != nil {
			return fmt.Errorf("layer %s: %w", l.ID, err)
		}
		if !created {
			continue
		}

		switch l.ID {
		case ids.Core:
			b.bindClusterClick(m, clusterID, ids.Core)
			bindCursor(m, ids.Core)
		case ids.Symbols:
			b.bindSymbolClick(m, cat.ID, ids.Symbols, opts.OnSelect)
			bindCursor(m, ids.Symbols)
		}
	}
	return nil
}

func clusterLayers(ids ClusterLayerIDs, source, visibility string) []mapengine.Layer {
	isCluster := mapengine.Has(mapengine.PropPointCount)
	count := mapengine.Get(mapengine.PropPointCount)
	vis := func(extra map[string]any) map[string]any {
		layout := map[string]any{mapengine.PropVisibility: visibility}
		for k, v := range extra {
			layout[k] = v
		}
		return layout
	}

	return []mapengine.Layer{
		{
			ID:     ids.Glow,
			Type:   mapengine.LayerCircle,
			Source: source,
			Filter: isCluster,
			Layout: vis(nil),
			Paint: map[string]any{
				"circle-color":       "rgba(0, 167, 255, 0.22)",
				"circle-radius":      mapengine.Step(count, 22, 10, 28, 25, 34),
				"circle-blur":        0.6,
				"circle-pitch-scale": "viewport",
			},
		},
		{
			ID:     ids.Core,
			Type:   mapengine.LayerCircle,
			Source: source,
			Filter: isCluster,
			Layout: vis(nil),
			Paint: map[string]any{
				"circle-color":        "#F4FBFF",
				"circle-radius":       mapengine.Step(count, 12, 10, 14, 25, 16),
				"circle-stroke-color": "#0B2033",
				"circle-stroke-width": 2,
			},
		},
		{
			ID:     ids.Ring,
			Type:   mapengine.LayerCircle,
			Source: source,
			Filter: isCluster,
			Layout: vis(nil),
			Paint: map[string]any{
				"circle-color":        "rgba(0,0,0,0)",
				"circle-radius":       mapengine.Step(count, 14, 10, 18, 25, 22),
				"circle-stroke-color": "#00A7FF",
				"circle-stroke-width": 2,
			},
		},
		{
			ID:     ids.Count,
			Type:   mapengine.LayerSymbol,
			Source: source,
			Filter: isCluster,
			Layout: vis(map[string]any{
				"text-field":         mapengine.ToString(count),
				"text-font":          []any{"Open Sans Bold", "Arial Unicode MS Regular"},
				"text-size":          12,
				"text-allow-overlap": true,
			}),
			Paint: map[string]any{
				"text-color":      "#0B2033",
				"text-halo-color": "rgba(255,255,255,0.85)",
				"text-halo-width": 1.6,
				"text-halo-blur":  0.2,
			},
		},
		{
			ID:     ids.Symbols,
			Type:   mapengine.LayerSymbol,
			Source: source,
			Filter: mapengine.Not(isCluster),
			Layout: vis(map[string]any{
				"icon-image":            mapengine.Get(domain.PropImage),
				"icon-allow-overlap":    true,
				"icon-ignore-placement": true,
				"icon-anchor":           "bottom",
				"icon-size":             DefaultIconSize(),
				"icon-offset":           []any{0.0, 0.0},
				"text-field":            mapengine.Coalesce(mapengine.Get(domain.PropTitle), mapengine.Get("Name"), ""),
				"text-size":             11,
				"text-anchor":           "top",
				"text-offset":           []any{0.0, 1.0},
				"text-optional":         true,
			}),
			Paint: map[string]any{
				"text-color":      "#1f2937",
				"text-halo-color": "#ffffff",
				"text-halo-width": 1.2,
			},
		},
		{
			ID:     ids.Halo,
			Type:   mapengine.LayerCircle,
			Source: source,
			Filter: HaloFilter(""),
			Layout: vis(nil),
			Paint: map[string]any{
				"circle-radius":       DefaultHaloRadius(),
				"circle-color":        "rgba(59, 130, 246, 0.18)",
				"circle-stroke-color": "rgba(59, 130, 246, 0.55)",
				"circle-stroke-width": 1.5,
			},
		},
	}
}

func (b *CategoryPointsBuilder) bindClusterClick(m mapengine.Map, sourceID, layerID string) {
	m.On(mapengine.EventClick, layerID, func(ev mapengine.Event) {
		if len(ev.Features) == 0 {
			return
		}
		f := ev.Features[0]
		cid, ok := clusterIDOf(f)
		if !ok {
			return
		}

		zoom, err := m.ClusterExpansionZoom(sourceID, cid)
		if err != nil {
			b.logger.Debug("Cluster expansion zoom failed",
				zap.String("source", sourceID),
				zap.Int("cluster_id", cid),
				zap.Error(err),
			)
			return
		}

		center := featurePoint(f, ev.LngLat)
		m.EaseTo(mapengine.CameraOptions{Center: &center, Zoom: &zoom})
	})
}

func (b *CategoryPointsBuilder) bindSymbolClick(m mapengine.Map, categoryID, layerID string, onSelect func(categoryID, placeID string)) {
	m.On(mapengine.EventClick, layerID, func(ev mapengine.Event) {
		if len(ev.Features) == 0 {
			return
		}
		f := ev.Features[0]
		props := domain.FeaturePropertiesFromMap(f.Properties)
		center := featurePoint(f, ev.LngLat)

		html, err := b.popups.Render(props)
		if err != nil {
			b.logger.Error("Failed to render place popup", zap.String("place_id", props.ID), zap.Error(err))
		} else {
			placeID := props.ID
			m.OpenPopup(mapengine.Popup{
				ID:     "place-" + placeID,
				LngLat: center,
				Offset: 18,
				HTML:   html,
				OnClose: func() {
					b.popups.Destroy(placeID)
				},
			})
		}

		zoom := math.Max(m.Camera().Zoom, placeFocusZoom)
		m.EaseTo(mapengine.CameraOptions{Center: &center, Zoom: &zoom})

		if onSelect != nil {
			onSelect(categoryID, props.ID)
		}
	})
}

func bindCursor(m mapengine.Map, layerID string) {
	m.On(mapengine.EventMouseEnter, layerID, func(mapengine.Event) { m.SetCursor("pointer") })
	m.On(mapengine.EventMouseLeave, layerID, func(mapengine.Event) { m.SetCursor("") })
}

func clusterIDOf(f *geojson.Feature) (int, bool) {
	switch v := f.Properties[mapengine.PropClusterID].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func featurePoint(f *geojson.Feature, fallback orb.Point) orb.Point {
	if f.Geometry != nil && f.Geometry.IsPoint() && len(f.Geometry.Point) >= 2 {
		return orb.Point{f.Geometry.Point[0], f.Geometry.Point[1]}
	}
	return fallback
}
