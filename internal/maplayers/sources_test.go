package maplayers_test

import (
	"testing"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
)

func TestAddOrSetSource_ReplacesInPlace(t *testing.T) {
	m := newTestMap(t)

	first := geojson.NewFeatureCollection()
	first.AddFeature(geojson.NewPointFeature([]float64{1, 1}))
	first.AddFeature(geojson.NewPointFeature([]float64{2, 2}))

	second := geojson.NewFeatureCollection()
	second.AddFeature(geojson.NewPointFeature([]float64{3, 3}))

	require.NoError(t, maplayers.AddOrSetSource(m, "src", first))
	require.NoError(t, m.AddLayer(mapengine.Layer{ID: "bound", Type: mapengine.LayerCircle, Source: "src"}, ""))
	require.NoError(t, maplayers.AddOrSetSource(m, "src", second))

	st := m.Style()
	assert.Len(t, st.Sources, 1)
	assert.Same(t, second, st.Sources["src"].Data)
	_, ok := st.FindLayer("bound")
	assert.True(t, ok)
}

func TestEnsureNoLayerAndSource_Idempotent(t *testing.T) {
	m := newTestMap(t)

	assert.NoError(t, maplayers.EnsureNoLayer(m, "missing"))
	assert.NoError(t, maplayers.EnsureNoSource(m, "missing"))

	require.NoError(t, maplayers.AddOrSetSource(m, "src", nil))
	require.NoError(t, m.AddLayer(mapengine.Layer{ID: "l", Type: mapengine.LayerLine, Source: "src"}, ""))

	assert.NoError(t, maplayers.EnsureNoLayer(m, "l"))
	assert.NoError(t, maplayers.EnsureNoLayer(m, "l"))
	assert.NoError(t, maplayers.EnsureNoSource(m, "src"))
	assert.NoError(t, maplayers.EnsureNoSource(m, "src"))
	assert.Empty(t, m.Style().Sources)
}

func TestEnsureNoSource_SourceInUse(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, maplayers.AddOrSetSource(m, "src", nil))
	require.NoError(t, m.AddLayer(mapengine.Layer{ID: "l", Type: mapengine.LayerLine, Source: "src"}, ""))

	assert.ErrorIs(t, maplayers.EnsureNoSource(m, "src"), mapengine.ErrSourceInUse)
}

func TestFitToLine(t *testing.T) {
	m := newTestMap(t)
	before := m.Camera()

	maplayers.FitToLine(m, nil, 40)
	assert.Equal(t, before, m.Camera())

	line := orb.LineString{{-17.45, 14.70}, {-17.30, 14.75}, {-17.10, 14.60}}
	maplayers.FitToLine(m, line, 40)

	cam := m.Camera()
	assert.True(t, line.Bound().Contains(cam.Center))
	assert.Equal(t, mapengine.TransitionFit, m.Transition())
}
