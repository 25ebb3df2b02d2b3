package maplayers

import (
	"errors"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"

	"github.com/venue-map-service/internal/mapengine"
)

// AddOrSetSource заменяет данные существующего источника или создает новый GeoJSON-источник.
// Слои, привязанные к источнику, при замене не трогаются.
func AddOrSetSource(m mapengine.Map, id string, data *geojson.FeatureCollection) error {
	return addOrSetSource(m, id, mapengine.Source{Type: mapengine.SourceTypeGeoJSON, Data: data})
}

func addOrSetSource(m mapengine.Map, id string, src mapengine.Source) error {
	if _, ok := m.GetSource(id); ok {
		return m.SetSourceData(id, src.Data)
	}

	err := m.AddSource(id, src)
	if errors.Is(err, mapengine.ErrSourceExists) {
		// источник успел появиться из параллельной сборки
		return m.SetSourceData(id, src.Data)
	}
	return err
}

// EnsureNoLayer удаляет слой, если он есть
func EnsureNoLayer(m mapengine.Map, id string) error {
	if err := m.RemoveLayer(id); err != nil && !errors.Is(err, mapengine.ErrLayerNotFound) {
		return err
	}
	return nil
}

// EnsureNoSource удаляет источник, если он есть
func EnsureNoSource(m mapengine.Map, id string) error {
	if err := m.RemoveSource(id); err != nil && !errors.Is(err, mapengine.ErrSourceNotFound) {
		return err
	}
	return nil
}

// ensureLayer добавляет слой, если его еще нет. true - слой создан этим вызовом.
func ensureLayer(m mapengine.Map, layer mapengine.Layer, beforeID string) (bool, error) {
	if _, ok := m.GetLayer(layer.ID); ok {
		return false, nil
	}
	if beforeID != "" {
		if _, ok := m.GetLayer(beforeID); !ok {
			beforeID = ""
		}
	}

	err := m.AddLayer(layer, beforeID)
	if errors.Is(err, mapengine.ErrLayerExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FitToLine подгоняет камеру под линию с отступом в пикселях
func FitToLine(m mapengine.Map, line orb.LineString, padding float64) {
	if len(line) == 0 {
		return
	}
	m.FitBounds(line.Bound(), padding)
}
