package mapengine

import (
	"fmt"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
)

// FeatureRef указывает на фичу источника слоя: по id точки или по id кластера
type FeatureRef struct {
	FeatureID string
	ClusterID *int
}

// Click имитирует клик по фиче слоя. Фича должна быть видна слою на текущем зуме,
// иначе возвращается ErrFeatureNotFound и обработчики не вызываются.
func (m *StyleMap) Click(layerID string, ref FeatureRef) error {
	f, err := m.resolveFeature(layerID, ref)
	if err != nil {
		return err
	}
	ev := Event{
		Type:     EventClick,
		LayerID:  layerID,
		Features: []*geojson.Feature{f},
	}
	if f.Geometry != nil && f.Geometry.IsPoint() && len(f.Geometry.Point) >= 2 {
		ev.LngLat = orb.Point{f.Geometry.Point[0], f.Geometry.Point[1]}
	}
	m.Fire(ev)
	return nil
}

// Hover рассылает mouseenter или mouseleave для слоя
func (m *StyleMap) Hover(layerID string, enter bool) error {
	if _, ok := m.GetLayer(layerID); !ok {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	t := EventMouseLeave
	if enter {
		t = EventMouseEnter
	}
	m.Fire(Event{Type: t, LayerID: layerID})
	return nil
}

func (m *StyleMap) resolveFeature(layerID string, ref FeatureRef) (*geojson.Feature, error) {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return nil, ErrMapRemoved
	}
	layer, ok := m.layers[layerID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	s, ok := m.sources[layer.Source]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, layer.Source)
	}
	filter := append(Expr(nil), layer.Filter...)
	zoom := m.camera.Zoom
	if s.src.Cluster && s.index == nil {
		s.index = newClusterIndex(s.src.Data, s.src.ClusterRadius, s.src.ClusterMaxZoom)
	}
	src, idx := s.src, s.index
	m.mu.Unlock()

	var candidates []*geojson.Feature
	switch {
	case ref.ClusterID != nil:
		if idx == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotClustered, layer.Source)
		}
		c, ok := idx.cluster(*ref.ClusterID)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, *ref.ClusterID)
		}
		candidates = append(candidates, c)
	case idx != nil:
		candidates = idx.featuresAt(zoom).Features
	default:
		candidates = src.Data.Features
	}

	for _, f := range candidates {
		if ref.ClusterID == nil && fmt.Sprint(f.ID) != ref.FeatureID {
			continue
		}
		if MatchesFilter(filter, FeatureContext(f, zoom)) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: layer %s", ErrFeatureNotFound, layerID)
}
