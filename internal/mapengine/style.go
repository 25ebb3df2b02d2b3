package mapengine

import (
	"image"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
)

// Expr - выражение стиля в JSON-форме Mapbox GL
type Expr = []any

type LayerType string

const (
	LayerCircle LayerType = "circle"
	LayerSymbol LayerType = "symbol"
	LayerLine   LayerType = "line"
	LayerFill   LayerType = "fill"
)

const (
	VisibilityVisible = "visible"
	VisibilityNone    = "none"

	PropVisibility = "visibility"
)

// Layer - слой стиля
type Layer struct {
	ID     string         `json:"id"`
	Type   LayerType      `json:"type"`
	Source string         `json:"source,omitempty"`
	Filter Expr           `json:"filter,omitempty"`
	Layout map[string]any `json:"layout,omitempty"`
	Paint  map[string]any `json:"paint,omitempty"`
}

// Visibility - значение layout.visibility, по умолчанию visible
func (l Layer) Visibility() string {
	if v, ok := l.Layout[PropVisibility].(string); ok && v != "" {
		return v
	}
	return VisibilityVisible
}

func (l Layer) clone() Layer {
	out := l
	out.Filter = append(Expr(nil), l.Filter...)
	out.Layout = cloneProps(l.Layout)
	out.Paint = cloneProps(l.Paint)
	return out
}

func cloneProps(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

const SourceTypeGeoJSON = "geojson"

// Source - GeoJSON-источник. Данные после передачи в карту не изменяются.
type Source struct {
	Type           string                     `json:"type"`
	Data           *geojson.FeatureCollection `json:"data"`
	Cluster        bool                       `json:"cluster,omitempty"`
	ClusterRadius  int                        `json:"clusterRadius,omitempty"`
	ClusterMaxZoom int                        `json:"clusterMaxZoom,omitempty"`
}

// Image - зарегистрированная картинка для icon-image
type Image struct {
	Bitmap     image.Image `json:"-"`
	PixelRatio float64     `json:"pixelRatio"`
}

// ImageInfo - описание картинки в снимке стиля
type ImageInfo struct {
	ID         string  `json:"id"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

// Camera - положение камеры
type Camera struct {
	Center  orb.Point `json:"center"`
	Zoom    float64   `json:"zoom"`
	Bearing float64   `json:"bearing"`
	Pitch   float64   `json:"pitch"`
}

// CameraOptions - частичное изменение камеры; nil-поля не меняются
type CameraOptions struct {
	Center  *orb.Point
	Zoom    *float64
	Bearing *float64
	Pitch   *float64
}

// Transition - каким движением клиент должен прийти к текущей камере
type Transition string

const (
	TransitionNone Transition = ""
	TransitionJump Transition = "jump"
	TransitionEase Transition = "ease"
	TransitionFly  Transition = "fly"
	TransitionFit  Transition = "fit"
)

// Viewport - размер области отрисовки в пикселях
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Marker - HTML-маркер; переживает смену стиля
type Marker struct {
	ID     string    `json:"id"`
	LngLat orb.Point `json:"lngLat"`
	Anchor string    `json:"anchor,omitempty"`
	Icon   string    `json:"icon,omitempty"`
	Popup  *Popup    `json:"popup,omitempty"`
}

// Popup - всплывающее окно с готовым HTML
type Popup struct {
	ID      string    `json:"id"`
	LngLat  orb.Point `json:"lngLat"`
	Offset  float64   `json:"offset,omitempty"`
	HTML    string    `json:"html"`
	OnClose func()    `json:"-"`
}

// Style - снимок состояния карты для клиента
type Style struct {
	Version    int               `json:"version"`
	URL        string            `json:"url"`
	Loaded     bool              `json:"loaded"`
	Sources    map[string]Source `json:"sources"`
	Layers     []Layer           `json:"layers"`
	Images     []ImageInfo       `json:"images"`
	Camera     Camera            `json:"camera"`
	Transition Transition        `json:"transition,omitempty"`
	Viewport   Viewport          `json:"viewport"`
	Markers    []Marker          `json:"markers"`
	Popup      *Popup            `json:"popup,omitempty"`
	Cursor     string            `json:"cursor"`
}

// LayerIDs - id слоев в порядке отрисовки
func (s Style) LayerIDs() []string {
	ids := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		ids[i] = l.ID
	}
	return ids
}

// FindLayer ищет слой в снимке
func (s Style) FindLayer(id string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}
