package mapengine

import (
	"fmt"
	"math"

	geojson "github.com/paulmach/go.geojson"
)

const (
	tileExtent = 512.0

	DefaultClusterRadius  = 50
	DefaultClusterMaxZoom = 14

	PropCluster               = "cluster"
	PropClusterID             = "cluster_id"
	PropPointCount            = "point_count"
	PropPointCountAbbreviated = "point_count_abbreviated"
)

// clusterNode - точка или кластер на одном уровне зума
type clusterNode struct {
	x, y      float64
	numPoints int
	// id кластера; для одиночной точки -1
	id int
	// индекс фичи в исходных данных, только у точек
	featureIndex int
	// зум, на котором узел уже обработан
	zoom int
	// индексы детей на уровне zoom+1
	children []int
	// зум, на котором кластер существует
	originZoom int
}

// clusterIndex - иерархия кластеров по уровням зума, как в supercluster
type clusterIndex struct {
	features []*geojson.Feature
	radius   float64
	maxZoom  int
	levels   [][]*clusterNode
	byID     map[int]*clusterNode
}

func newClusterIndex(data *geojson.FeatureCollection, radius, maxZoom int) *clusterIndex {
	if radius <= 0 {
		radius = DefaultClusterRadius
	}
	if maxZoom <= 0 {
		maxZoom = DefaultClusterMaxZoom
	}

	idx := &clusterIndex{
		radius:  float64(radius),
		maxZoom: maxZoom,
		levels:  make([][]*clusterNode, maxZoom+2),
		byID:    make(map[int]*clusterNode),
	}

	var leaves []*clusterNode
	if data != nil {
		for _, f := range data.Features {
			if f == nil || f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
				continue
			}
			idx.features = append(idx.features, f)
			leaves = append(leaves, &clusterNode{
				x:            projectX(f.Geometry.Point[0]),
				y:            projectY(f.Geometry.Point[1]),
				numPoints:    1,
				id:           -1,
				featureIndex: len(idx.features) - 1,
				zoom:         math.MaxInt32,
			})
		}
	}
	idx.levels[maxZoom+1] = leaves

	nextID := 1
	for z := maxZoom; z >= 0; z-- {
		idx.levels[z] = idx.clusterLevel(idx.levels[z+1], z, &nextID)
	}

	return idx
}

// clusterLevel жадно объединяет соседей уровня z+1 в кластеры уровня z
func (idx *clusterIndex) clusterLevel(prev []*clusterNode, z int, nextID *int) []*clusterNode {
	r := idx.radius / (tileExtent * math.Pow(2, float64(z)))
	r2 := r * r

	out := make([]*clusterNode, 0, len(prev))
	for i, p := range prev {
		if p.zoom <= z {
			continue
		}
		p.zoom = z

		members := []int{i}
		wx := p.x * float64(p.numPoints)
		wy := p.y * float64(p.numPoints)
		total := p.numPoints

		for j := i + 1; j < len(prev); j++ {
			b := prev[j]
			if b.zoom <= z {
				continue
			}
			dx, dy := b.x-p.x, b.y-p.y
			if dx*dx+dy*dy > r2 {
				continue
			}
			b.zoom = z
			members = append(members, j)
			wx += b.x * float64(b.numPoints)
			wy += b.y * float64(b.numPoints)
			total += b.numPoints
		}

		if len(members) == 1 {
			out = append(out, &clusterNode{
				x:            p.x,
				y:            p.y,
				numPoints:    p.numPoints,
				id:           p.id,
				featureIndex: p.featureIndex,
				zoom:         math.MaxInt32,
				children:     []int{i},
				originZoom:   z,
			})
			continue
		}

		node := &clusterNode{
			x:          wx / float64(total),
			y:          wy / float64(total),
			numPoints:  total,
			id:         *nextID,
			zoom:       math.MaxInt32,
			children:   members,
			originZoom: z,
		}
		*nextID++
		idx.byID[node.id] = node
		out = append(out, node)
	}
	return out
}

// expansionZoom - минимальный зум, на котором кластер распадается
func (idx *clusterIndex) expansionZoom(clusterID int) (float64, error) {
	node, ok := idx.byID[clusterID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrClusterNotFound, clusterID)
	}

	z := node.originZoom
	for z <= idx.maxZoom {
		children := node.children
		z++
		if len(children) != 1 {
			break
		}
		child := idx.levels[z][children[0]]
		if child.id < 0 {
			break
		}
		node = child
	}
	return float64(z), nil
}

// features возвращает то, что видно на зуме: кластеры и одиночные точки
func (idx *clusterIndex) featuresAt(zoom float64) *geojson.FeatureCollection {
	z := int(math.Floor(zoom))
	if z < 0 {
		z = 0
	}
	if z > idx.maxZoom+1 {
		z = idx.maxZoom + 1
	}

	fc := geojson.NewFeatureCollection()
	for _, n := range idx.levels[z] {
		if n.id < 0 {
			fc.AddFeature(idx.features[n.featureIndex])
			continue
		}
		fc.AddFeature(idx.clusterFeature(n))
	}
	return fc
}

func (idx *clusterIndex) cluster(clusterID int) (*geojson.Feature, bool) {
	n, ok := idx.byID[clusterID]
	if !ok {
		return nil, false
	}
	return idx.clusterFeature(n), true
}

func (idx *clusterIndex) clusterFeature(n *clusterNode) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{unprojectX(n.x), unprojectY(n.y)})
	f.ID = n.id
	f.Properties = map[string]interface{}{
		PropCluster:               true,
		PropClusterID:             n.id,
		PropPointCount:            n.numPoints,
		PropPointCountAbbreviated: abbreviateCount(n.numPoints),
	}
	return f
}

func abbreviateCount(n int) string {
	switch {
	case n >= 10000:
		return fmt.Sprintf("%dk", int(math.Round(float64(n)/1000)))
	case n >= 1000:
		return fmt.Sprintf("%.1fk", math.Round(float64(n)/100)/10)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Проекция в единичный квадрат Web Mercator

func projectX(lng float64) float64 {
	return lng/360 + 0.5
}

func projectY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	return math.Max(0, math.Min(1, y))
}

func unprojectX(x float64) float64 {
	return (x - 0.5) * 360
}

func unprojectY(y float64) float64 {
	y2 := (180 - y*360) * math.Pi / 180
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}
