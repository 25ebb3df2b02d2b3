package mapengine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"
)

// Map - то, что построители слоев и маршрутов знают о карте
type Map interface {
	ID() string

	AddSource(id string, src Source) error
	GetSource(id string) (Source, bool)
	SetSourceData(id string, data *geojson.FeatureCollection) error
	RemoveSource(id string) error

	AddLayer(layer Layer, beforeID string) error
	GetLayer(id string) (Layer, bool)
	RemoveLayer(id string) error
	SetFilter(layerID string, filter Expr) error
	SetLayoutProperty(layerID, name string, value any) error
	GetLayoutProperty(layerID, name string) (any, bool)
	SetPaintProperty(layerID, name string, value any) error

	HasImage(id string) bool
	AddImage(id string, img Image) error

	Style() Style
	IsStyleLoaded() bool

	Camera() Camera
	JumpTo(opts CameraOptions)
	EaseTo(opts CameraOptions)
	FlyTo(opts CameraOptions)
	FitBounds(bounds orb.Bound, padding float64)

	AddMarker(marker Marker)
	RemoveMarker(id string)
	OpenPopup(popup Popup)
	ClosePopup()
	SetCursor(cursor string)

	On(event, layerID string, fn Handler) HandlerID
	Once(event string, fn Handler) HandlerID
	Off(id HandlerID)

	ClusterExpansionZoom(sourceID string, clusterID int) (float64, error)
}

// Options - параметры создания карты
type Options struct {
	ID       string
	StyleURL string
	Center   orb.Point
	Zoom     float64
	Viewport Viewport
	MaxZoom  float64
}

const (
	styleVersion   = 8
	defaultMaxZoom = 22
	defaultWidth   = 1280
	defaultHeight  = 800
)

type sourceState struct {
	src   Source
	index *clusterIndex
}

// StyleMap - карта в памяти процесса.
// Все мутации идут под мьютексом, обработчики событий вызываются после его освобождения.
type StyleMap struct {
	mu sync.Mutex

	id       string
	styleURL string
	loaded   bool
	removed  bool
	maxZoom  float64
	viewport Viewport

	sources    map[string]*sourceState
	layerOrder []string
	layers     map[string]*Layer
	images     map[string]Image

	camera     Camera
	transition Transition

	markers     map[string]Marker
	markerOrder []string
	popup       *Popup
	cursor      string

	handlers handlers
	logger   *zap.Logger
}

// New создает карту; стиль считается загруженным только после Load
func New(opts Options, logger *zap.Logger) *StyleMap {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = defaultMaxZoom
	}
	if opts.Viewport.Width <= 0 {
		opts.Viewport.Width = defaultWidth
	}
	if opts.Viewport.Height <= 0 {
		opts.Viewport.Height = defaultHeight
	}

	return &StyleMap{
		id:       opts.ID,
		styleURL: opts.StyleURL,
		maxZoom:  opts.MaxZoom,
		viewport: opts.Viewport,
		sources:  make(map[string]*sourceState),
		layers:   make(map[string]*Layer),
		images:   make(map[string]Image),
		markers:  make(map[string]Marker),
		camera: Camera{
			Center: opts.Center,
			Zoom:   opts.Zoom,
		},
		logger: logger.With(zap.String("map_id", opts.ID)),
	}
}

func (m *StyleMap) ID() string {
	return m.id
}

// Load отмечает стиль загруженным и рассылает styledata и load
func (m *StyleMap) Load() {
	m.mu.Lock()
	if m.loaded || m.removed {
		m.mu.Unlock()
		return
	}
	m.loaded = true
	m.mu.Unlock()

	m.Fire(Event{Type: EventStyleData})
	m.Fire(Event{Type: EventLoad})
}

// SetStyle меняет стиль: все источники, слои и картинки пропадают,
// маркеры и камера остаются. Затем приходят styledata и style.load.
func (m *StyleMap) SetStyle(url string) {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	m.styleURL = url
	m.loaded = false
	m.sources = make(map[string]*sourceState)
	m.layers = make(map[string]*Layer)
	m.layerOrder = nil
	m.images = make(map[string]Image)
	m.handlers.dropLayerScoped()
	m.loaded = true
	m.mu.Unlock()

	m.logger.Debug("Style replaced", zap.String("style_url", url))

	m.Fire(Event{Type: EventStyleData})
	m.Fire(Event{Type: EventStyleLoad})
}

func (m *StyleMap) IsStyleLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded && !m.removed
}

// Remove уничтожает карту; дальнейшие мутации возвращают ErrMapRemoved
func (m *StyleMap) Remove() {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	m.removed = true
	m.loaded = false
	popup := m.popup
	m.popup = nil
	m.sources = make(map[string]*sourceState)
	m.layers = make(map[string]*Layer)
	m.layerOrder = nil
	m.images = make(map[string]Image)
	m.markers = make(map[string]Marker)
	m.markerOrder = nil
	m.mu.Unlock()

	if popup != nil && popup.OnClose != nil {
		popup.OnClose()
	}
	m.Fire(Event{Type: EventRemove})

	m.mu.Lock()
	m.handlers = handlers{}
	m.mu.Unlock()
}

// Removed - была ли карта уничтожена
func (m *StyleMap) Removed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed
}

// Sources

func (m *StyleMap) AddSource(id string, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	if _, exists := m.sources[id]; exists {
		return fmt.Errorf("%w: %s", ErrSourceExists, id)
	}
	if src.Type == "" {
		src.Type = SourceTypeGeoJSON
	}
	if src.Data == nil {
		src.Data = geojson.NewFeatureCollection()
	}
	if src.Cluster {
		if src.ClusterRadius <= 0 {
			src.ClusterRadius = DefaultClusterRadius
		}
		if src.ClusterMaxZoom <= 0 {
			src.ClusterMaxZoom = DefaultClusterMaxZoom
		}
	}
	m.sources[id] = &sourceState{src: src}
	return nil
}

func (m *StyleMap) GetSource(id string) (Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sources[id]
	if !ok {
		return Source{}, false
	}
	return s.src, true
}

// SetSourceData заменяет данные источника на месте; слои остаются привязанными
func (m *StyleMap) SetSourceData(id string, data *geojson.FeatureCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	s, ok := m.sources[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	if data == nil {
		data = geojson.NewFeatureCollection()
	}
	s.src.Data = data
	s.index = nil
	return nil
}

func (m *StyleMap) RemoveSource(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	for _, lid := range m.layerOrder {
		if m.layers[lid].Source == id {
			return fmt.Errorf("%w: %s used by %s", ErrSourceInUse, id, lid)
		}
	}
	delete(m.sources, id)
	return nil
}

// Layers

// AddLayer добавляет слой; beforeID - вставить под указанным слоем
func (m *StyleMap) AddLayer(layer Layer, beforeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	if _, exists := m.layers[layer.ID]; exists {
		return fmt.Errorf("%w: %s", ErrLayerExists, layer.ID)
	}
	if layer.Source != "" {
		if _, ok := m.sources[layer.Source]; !ok {
			return fmt.Errorf("%w: %s for layer %s", ErrSourceNotFound, layer.Source, layer.ID)
		}
	}

	pos := len(m.layerOrder)
	if beforeID != "" {
		pos = indexOf(m.layerOrder, beforeID)
		if pos < 0 {
			return fmt.Errorf("%w: %s (insert before)", ErrLayerNotFound, beforeID)
		}
	}

	l := layer.clone()
	if l.Layout == nil {
		l.Layout = map[string]any{}
	}
	if l.Paint == nil {
		l.Paint = map[string]any{}
	}
	m.layers[l.ID] = &l

	m.layerOrder = append(m.layerOrder, "")
	copy(m.layerOrder[pos+1:], m.layerOrder[pos:])
	m.layerOrder[pos] = l.ID
	return nil
}

func (m *StyleMap) GetLayer(id string) (Layer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.layers[id]
	if !ok {
		return Layer{}, false
	}
	return l.clone(), true
}

func (m *StyleMap) RemoveLayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	if _, ok := m.layers[id]; !ok {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	delete(m.layers, id)
	if i := indexOf(m.layerOrder, id); i >= 0 {
		m.layerOrder = append(m.layerOrder[:i], m.layerOrder[i+1:]...)
	}
	return nil
}

func (m *StyleMap) SetFilter(layerID string, filter Expr) error {
	return m.mutateLayer(layerID, func(l *Layer) {
		l.Filter = append(Expr(nil), filter...)
	})
}

func (m *StyleMap) SetLayoutProperty(layerID, name string, value any) error {
	return m.mutateLayer(layerID, func(l *Layer) {
		l.Layout[name] = value
	})
}

func (m *StyleMap) GetLayoutProperty(layerID, name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.layers[layerID]
	if !ok {
		return nil, false
	}
	v, ok := l.Layout[name]
	return v, ok
}

func (m *StyleMap) SetPaintProperty(layerID, name string, value any) error {
	return m.mutateLayer(layerID, func(l *Layer) {
		l.Paint[name] = value
	})
}

func (m *StyleMap) mutateLayer(layerID string, fn func(l *Layer)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	l, ok := m.layers[layerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	fn(l)
	return nil
}

// Images

func (m *StyleMap) HasImage(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.images[id]
	return ok
}

func (m *StyleMap) AddImage(id string, img Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return ErrMapRemoved
	}
	if _, ok := m.images[id]; ok {
		return fmt.Errorf("%w: %s", ErrImageExists, id)
	}
	if img.PixelRatio <= 0 {
		img.PixelRatio = 1
	}
	m.images[id] = img
	return nil
}

// Style возвращает снимок; изменения снимка не влияют на карту
func (m *StyleMap) Style() Style {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Style{
		Version:    styleVersion,
		URL:        m.styleURL,
		Loaded:     m.loaded && !m.removed,
		Sources:    make(map[string]Source, len(m.sources)),
		Layers:     make([]Layer, 0, len(m.layerOrder)),
		Images:     make([]ImageInfo, 0, len(m.images)),
		Camera:     m.camera,
		Transition: m.transition,
		Viewport:   m.viewport,
		Markers:    make([]Marker, 0, len(m.markerOrder)),
		Cursor:     m.cursor,
	}
	for id, s := range m.sources {
		st.Sources[id] = s.src
	}
	for _, id := range m.layerOrder {
		st.Layers = append(st.Layers, m.layers[id].clone())
	}
	for id, img := range m.images {
		info := ImageInfo{ID: id, PixelRatio: img.PixelRatio}
		if img.Bitmap != nil {
			b := img.Bitmap.Bounds()
			info.Width, info.Height = b.Dx(), b.Dy()
		}
		st.Images = append(st.Images, info)
	}
	sort.Slice(st.Images, func(i, j int) bool { return st.Images[i].ID < st.Images[j].ID })
	for _, id := range m.markerOrder {
		st.Markers = append(st.Markers, m.markers[id])
	}
	if m.popup != nil {
		p := *m.popup
		st.Popup = &p
	}
	return st
}

// Markers and popups

func (m *StyleMap) AddMarker(marker Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.removed {
		return
	}
	if _, exists := m.markers[marker.ID]; !exists {
		m.markerOrder = append(m.markerOrder, marker.ID)
	}
	m.markers[marker.ID] = marker
}

func (m *StyleMap) RemoveMarker(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.markers[id]; !ok {
		return
	}
	delete(m.markers, id)
	if i := indexOf(m.markerOrder, id); i >= 0 {
		m.markerOrder = append(m.markerOrder[:i], m.markerOrder[i+1:]...)
	}
}

// OpenPopup показывает попап; предыдущий закрывается с вызовом его OnClose
func (m *StyleMap) OpenPopup(popup Popup) {
	m.mu.Lock()
	if m.removed {
		m.mu.Unlock()
		return
	}
	prev := m.popup
	m.popup = &popup
	m.mu.Unlock()

	if prev != nil && prev.OnClose != nil {
		prev.OnClose()
	}
}

func (m *StyleMap) ClosePopup() {
	m.mu.Lock()
	prev := m.popup
	m.popup = nil
	m.mu.Unlock()

	if prev != nil && prev.OnClose != nil {
		prev.OnClose()
	}
}

func (m *StyleMap) SetCursor(cursor string) {
	m.mu.Lock()
	m.cursor = cursor
	m.mu.Unlock()
}

// Events

func (m *StyleMap) On(event, layerID string, fn Handler) HandlerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers.add(event, layerID, false, fn)
}

func (m *StyleMap) Once(event string, fn Handler) HandlerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers.add(event, "", true, fn)
}

func (m *StyleMap) Off(id HandlerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers.remove(id)
}

// HandlerCount - число подписок на событие слоя
func (m *StyleMap) HandlerCount(event, layerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers.count(event, layerID)
}

// Fire рассылает событие подписчикам вне мьютекса
func (m *StyleMap) Fire(ev Event) {
	m.mu.Lock()
	fns := m.handlers.match(ev)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Clusters

// ClusterExpansionZoom - зум, на котором кластер распадается на части
func (m *StyleMap) ClusterExpansionZoom(sourceID string, clusterID int) (float64, error) {
	idx, err := m.clusterIndex(sourceID)
	if err != nil {
		return 0, err
	}
	return idx.expansionZoom(clusterID)
}

// Clusters возвращает содержимое кластерного источника на зуме:
// кластеры со свойствами point_count/cluster_id и одиночные точки как есть
func (m *StyleMap) Clusters(sourceID string, zoom float64) (*geojson.FeatureCollection, error) {
	idx, err := m.clusterIndex(sourceID)
	if err != nil {
		return nil, err
	}
	return idx.featuresAt(zoom), nil
}

func (m *StyleMap) clusterIndex(sourceID string) (*clusterIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}
	if !s.src.Cluster {
		return nil, fmt.Errorf("%w: %s", ErrNotClustered, sourceID)
	}
	if s.index == nil {
		s.index = newClusterIndex(s.src.Data, s.src.ClusterRadius, s.src.ClusterMaxZoom)
	}
	return s.index, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
