package mapengine

import (
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointFC(coords ...[2]float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, c := range coords {
		f := geojson.NewPointFeature([]float64{c[0], c[1]})
		f.ID = string(rune('a' + i))
		f.Properties = map[string]interface{}{"id": f.ID}
		fc.AddFeature(f)
	}
	return fc
}

func totalPoints(fc *geojson.FeatureCollection) int {
	n := 0
	for _, f := range fc.Features {
		if c, ok := f.Properties[PropPointCount].(int); ok {
			n += c
			continue
		}
		n++
	}
	return n
}

func TestClusterIndex_GroupsNearbyPoints(t *testing.T) {
	data := pointFC(
		[2]float64{-17.44, 14.69},
		[2]float64{-17.45, 14.70},
		[2]float64{-17.46, 14.71},
		[2]float64{100, 0},
	)
	idx := newClusterIndex(data, 50, 14)

	low := idx.featuresAt(0)
	assert.Len(t, low.Features, 2)
	assert.Equal(t, 4, totalPoints(low))

	high := idx.featuresAt(15)
	assert.Len(t, high.Features, 4)
	for _, f := range high.Features {
		_, isCluster := f.Properties[PropCluster]
		assert.False(t, isCluster)
	}
}

func TestClusterIndex_ExpansionZoom(t *testing.T) {
	data := pointFC(
		[2]float64{-17.44, 14.69},
		[2]float64{-17.45, 14.70},
		[2]float64{-17.46, 14.71},
	)
	idx := newClusterIndex(data, 50, 14)

	low := idx.featuresAt(0)
	require.Len(t, low.Features, 1)
	clusterID, ok := low.Features[0].Properties[PropClusterID].(int)
	require.True(t, ok)
	assert.Equal(t, "3", low.Features[0].Properties[PropPointCountAbbreviated])

	z, err := idx.expansionZoom(clusterID)
	require.NoError(t, err)
	assert.Greater(t, z, 0.0)
	assert.LessOrEqual(t, z, 15.0)

	for _, f := range idx.featuresAt(z).Features {
		if id, ok := f.Properties[PropClusterID].(int); ok {
			assert.NotEqual(t, clusterID, id)
		}
	}

	_, err = idx.expansionZoom(9999)
	assert.ErrorIs(t, err, ErrClusterNotFound)
}

func TestClusterIndex_SkipsNonPoints(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.AddFeature(geojson.NewLineStringFeature([][]float64{{0, 0}, {1, 1}}))
	fc.AddFeature(geojson.NewPointFeature([]float64{1, 1}))

	idx := newClusterIndex(fc, 0, 0)
	assert.Len(t, idx.featuresAt(20).Features, 1)
}

func TestAbbreviateCount(t *testing.T) {
	assert.Equal(t, "999", abbreviateCount(999))
	assert.Equal(t, "1.5k", abbreviateCount(1520))
	assert.Equal(t, "12k", abbreviateCount(12345))
}
