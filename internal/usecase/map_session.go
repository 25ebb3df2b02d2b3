package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
	"github.com/venue-map-service/internal/metrics"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/pkg/frames"
)

// SessionState - состояние жизненного цикла сессии
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateReady
	StateSwapping
)

func (s SessionState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateSwapping:
		return "swapping"
	default:
		return "uninitialized"
	}
}

// CategoryLayerBuilder строит кластерные слои одной категории
type CategoryLayerBuilder interface {
	Build(ctx context.Context, m mapengine.Map, cat domain.Category, opts maplayers.BuildOptions) error
}

// ZoneLayerBuilder рисует контуры зон соревнований
type ZoneLayerBuilder interface {
	Build(ctx context.Context, m mapengine.Map) error
}

// RouteEngine строит и убирает маршрут на карте
type RouteEngine interface {
	DrawRoute(ctx context.Context, m mapengine.Map, origin, destination orb.Point) (*domain.RouteDetails, error)
	Redraw(m mapengine.Map, details *domain.RouteDetails) error
	ClearRoute(m mapengine.Map) error
	Forget(mapID string)
}

// SessionConfig - параметры карты для новой сессии
type SessionConfig struct {
	StyleURL   string
	Center     orb.Point
	Zoom       float64
	MobileZoom float64
	MaxZoom    float64
	Viewport   mapengine.Viewport
	Categories []domain.Category
	Locator    LocatorConfig
}

// SessionDeps - общие для всех сессий зависимости
type SessionDeps struct {
	Categories CategoryLayerBuilder
	Zones      ZoneLayerBuilder
	Routes     RouteEngine
	Geocoder   *GeocoderControl
	Scheduler  frames.Scheduler
	Notifier   Notifier
	Now        func() time.Time
}

// InitOptions - параметры клиента, создающего карту
type InitOptions struct {
	Container string
	Mobile    bool
	Viewport  *mapengine.Viewport
}

// SelectionState - выбранная точка; сбрасывается при смене категории
type SelectionState struct {
	Category string  `json:"category,omitempty"`
	PlaceID  *string `json:"place_id,omitempty"`
}

// MapSession - единственный владелец карты клиента. Строит слои, переживает смену подложки,
// держит маршрут и выделение. Методы безопасны для вызова из разных горутин;
// вызовы карты делаются без удержания s.mu, потому что обработчики событий карты
// возвращаются в сессию синхронно.
type MapSession struct {
	id     string
	cfg    SessionConfig
	deps   SessionDeps
	logger *zap.Logger

	locator *Locator

	mu            sync.Mutex
	state         SessionState
	container     string
	m             *mapengine.StyleMap
	highlighter   *maplayers.Highlighter
	bouncer       *maplayers.Bouncer
	selection     SelectionState
	lastRoute     *domain.RouteDetails
	lastEndpoints *domain.RouteEndpoints
	layersGen     uint64
	layersCancel  context.CancelFunc
	layersDone    chan struct{}
	layersRestore *swapState
	createdAt     time.Time
	lastSeen      time.Time
}

func NewMapSession(id string, cfg SessionConfig, deps SessionDeps, logger *zap.Logger) *MapSession {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNotificationBuffer(0)
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = domain.Categories
	}
	logger = logger.With(zap.String("session_id", id))

	now := deps.Now()
	return &MapSession{
		id:        id,
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		locator:   NewLocator(cfg.Locator, deps.Now, logger),
		createdAt: now,
		lastSeen:  now,
	}
}

func (s *MapSession) ID() string { return s.id }

func (s *MapSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Locator - положение пользователя этой сессии
func (s *MapSession) Locator() *Locator { return s.locator }

// Touch отмечает активность клиента
func (s *MapSession) Touch() {
	s.mu.Lock()
	s.lastSeen = s.deps.Now()
	s.mu.Unlock()
}

// LastSeen - время последней активности клиента
func (s *MapSession) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// InitMap создает карту. Повторный вызов возвращает уже созданную.
// Слои зон и всех категорий строятся после события load.
func (s *MapSession) InitMap(opts InitOptions) *mapengine.StyleMap {
	s.mu.Lock()
	if s.m != nil {
		m := s.m
		s.mu.Unlock()
		return m
	}

	zoom := s.cfg.Zoom
	if opts.Mobile && s.cfg.MobileZoom > 0 {
		zoom = s.cfg.MobileZoom
	}
	viewport := s.cfg.Viewport
	if opts.Viewport != nil && opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		viewport = *opts.Viewport
	}

	m := mapengine.New(mapengine.Options{
		ID:       s.id,
		StyleURL: s.cfg.StyleURL,
		Center:   s.cfg.Center,
		Zoom:     zoom,
		MaxZoom:  s.cfg.MaxZoom,
		Viewport: viewport,
	}, s.logger)

	s.m = m
	s.container = opts.Container
	s.state = StateReady
	s.highlighter = maplayers.NewHighlighter(m, s.deps.Scheduler, s.deps.Now, s.logger)
	s.bouncer = maplayers.NewBouncer(m, s.deps.Scheduler, s.logger)
	s.mu.Unlock()

	m.Once(mapengine.EventLoad, func(mapengine.Event) {
		s.startLayers(m, nil)
	})
	m.Load()

	metrics.SessionOpened()
	s.logger.Info("Map initialized",
		zap.String("container", opts.Container),
		zap.Float64("zoom", zoom),
		zap.Bool("geocoder", s.deps.Geocoder != nil))
	return m
}

// GetMap возвращает карту или nil, если сессия не инициализирована
func (s *MapSession) GetMap() *mapengine.StyleMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

func (s *MapSession) requireMap() (*mapengine.StyleMap, error) {
	if m := s.GetMap(); m != nil {
		return m, nil
	}
	return nil, apperrors.ErrMapNotInitialized
}

// swapState - что восстановить после смены подложки
type swapState struct {
	visibility map[string]bool
}

// startLayers запускает построение слоев нового поколения; предыдущее отменяется
func (s *MapSession) startLayers(m *mapengine.StyleMap, restore *swapState) {
	s.mu.Lock()
	if s.m != m {
		s.mu.Unlock()
		return
	}
	if s.layersCancel != nil {
		s.layersCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.layersGen++
	gen := s.layersGen
	done := make(chan struct{})
	s.layersCancel, s.layersDone = cancel, done
	s.layersRestore = restore
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		s.addAppLayers(ctx, m)
		if ctx.Err() != nil {
			return
		}
		if restore != nil {
			s.restoreAfterSwap(m, restore)
		}

		s.mu.Lock()
		if s.layersGen == gen && s.state == StateSwapping {
			s.state = StateReady
		}
		s.mu.Unlock()
	}()
}

// addAppLayers: сначала контуры зон, затем все категории параллельно
func (s *MapSession) addAppLayers(ctx context.Context, m *mapengine.StyleMap) {
	start := s.deps.Now()

	if s.deps.Zones != nil {
		if err := s.deps.Zones.Build(ctx, m); err != nil {
			s.logger.Warn("Zone layers failed", zap.Error(err))
		}
	}

	var wg sync.WaitGroup
	for _, cat := range s.cfg.Categories {
		wg.Add(1)
		go func(cat domain.Category) {
			defer wg.Done()
			err := s.deps.Categories.Build(ctx, m, cat, maplayers.BuildOptions{
				Visible:  cat.InitiallyVisible,
				OnSelect: s.onFeatureSelected,
			})
			if err != nil {
				s.logger.Warn("Category layers failed",
					zap.String("category", cat.ID),
					zap.Error(err))
			}
		}(cat)
	}
	wg.Wait()

	s.logger.Info("App layers built",
		zap.Int("categories", len(s.cfg.Categories)),
		zap.Int("layers", len(m.Style().Layers)),
		zap.Duration("took", s.deps.Now().Sub(start)))
}

func (s *MapSession) onFeatureSelected(categoryID, placeID string) {
	_ = s.Dispatch(context.Background(), FeatureSelected{CategoryID: categoryID, PlaceID: placeID})
}

// AwaitLayers ждет завершения текущего построения слоев
func (s *MapSession) AwaitLayers(ctx context.Context) error {
	s.mu.Lock()
	done := s.layersDone
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetBasemap меняет стиль. Камера и видимость категорий запоминаются до смены,
// на style.load камера восстанавливается, слои строятся заново, видимость
// возвращается, активный маршрут перерисовывается.
func (s *MapSession) SetBasemap(ctx context.Context, id domain.BasemapID) error {
	url, ok := id.StyleURL()
	if !ok {
		return apperrors.ErrInvalidBasemap
	}

	s.mu.Lock()
	m := s.m
	if m == nil {
		s.mu.Unlock()
		return apperrors.ErrMapNotInitialized
	}
	cancel, done := s.layersCancel, s.layersDone
	gen, prev := s.layersGen, s.state
	s.state = StateSwapping
	s.mu.Unlock()

	// прежнее поколение слоев не должно писать в новый стиль
	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			s.abortSwap(m, gen, prev)
			return ctx.Err()
		}
	}

	cam := m.Camera()
	restore := &swapState{visibility: s.readCategoryVisibility(m)}
	s.highlighterCancel()

	m.Once(mapengine.EventStyleLoad, func(mapengine.Event) {
		m.JumpTo(mapengine.CameraOptions{
			Center:  &cam.Center,
			Zoom:    &cam.Zoom,
			Bearing: &cam.Bearing,
			Pitch:   &cam.Pitch,
		})
		s.startLayers(m, restore)
	})
	m.SetStyle(url)

	s.logger.Info("Basemap swapped",
		zap.String("basemap", string(id)),
		zap.Int("categories_tracked", len(restore.visibility)))
	return nil
}

// abortSwap откатывает SetBasemap, прерванный до смены стиля: состояние
// возвращается, отмененное поколение слоев строится заново на текущем стиле.
func (s *MapSession) abortSwap(m *mapengine.StyleMap, gen uint64, prev SessionState) {
	s.mu.Lock()
	if s.m != m || s.layersGen != gen {
		// слоями уже владеет более новое поколение
		s.mu.Unlock()
		return
	}
	s.state = prev
	restore := s.layersRestore
	s.mu.Unlock()

	if restore == nil {
		restore = &swapState{visibility: s.readCategoryVisibility(m)}
	}
	s.startLayers(m, restore)
	s.logger.Warn("Basemap swap aborted, layers restarted", zap.String("state", prev.String()))
}

func (s *MapSession) restoreAfterSwap(m *mapengine.StyleMap, restore *swapState) {
	s.applyCategoryVisibility(m, restore.visibility)

	s.mu.Lock()
	sel := s.selection
	route := s.lastRoute
	h := s.highlighter
	s.mu.Unlock()

	if sel.PlaceID != nil && h != nil {
		h.Highlight(sel.Category, sel.PlaceID)
	}
	if route != nil {
		if err := s.deps.Routes.Redraw(m, route); err != nil {
			s.logger.Warn("Failed to redraw route after basemap swap", zap.Error(err))
			s.notify(NotifyWarning, "The route could not be restored on the new map style")
		}
	}
}

func (s *MapSession) highlighterCancel() {
	s.mu.Lock()
	h := s.highlighter
	s.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// readCategoryVisibility: категория видима, если ее первый кластерный слой не скрыт.
// Категории без слоев в результат не попадают.
func (s *MapSession) readCategoryVisibility(m mapengine.Map) map[string]bool {
	out := make(map[string]bool)
	layers := m.Style().Layers
	for _, cat := range s.cfg.Categories {
		for _, l := range layers {
			if !cat.OwnsLayer(l.ID) {
				continue
			}
			vis, _ := m.GetLayoutProperty(l.ID, "visibility")
			out[cat.ID] = vis != mapengine.VisibilityNone
			break
		}
	}
	return out
}

func (s *MapSession) applyCategoryVisibility(m mapengine.Map, state map[string]bool) {
	layers := m.Style().Layers
	for _, cat := range s.cfg.Categories {
		visible, ok := state[cat.ID]
		if !ok {
			continue
		}
		value := mapengine.VisibilityNone
		if visible {
			value = mapengine.VisibilityVisible
		}
		for _, l := range layers {
			if cat.OwnsLayer(l.ID) {
				if err := m.SetLayoutProperty(l.ID, "visibility", value); err != nil {
					s.logger.Debug("Failed to set visibility", zap.String("layer", l.ID), zap.Error(err))
				}
			}
		}
	}
}

// CategoryVisibility - видимость категорий по текущему стилю
func (s *MapSession) CategoryVisibility() (map[string]bool, error) {
	m, err := s.requireMap()
	if err != nil {
		return nil, err
	}
	return s.readCategoryVisibility(m), nil
}

// SetCategoryVisible включает или скрывает все кластерные слои категории
func (s *MapSession) SetCategoryVisible(categoryID string, visible bool) error {
	cat, ok := domain.CategoryByID(categoryID)
	if !ok {
		return apperrors.ErrUnknownCategory
	}
	m, err := s.requireMap()
	if err != nil {
		return err
	}
	s.applyCategoryVisibility(m, map[string]bool{cat.ID: visible})
	return nil
}

// RefreshCategory пересобирает слои одной категории с сохранением ее видимости
func (s *MapSession) RefreshCategory(ctx context.Context, categoryID string) error {
	cat, ok := domain.CategoryByID(categoryID)
	if !ok {
		return apperrors.ErrUnknownCategory
	}

	s.mu.Lock()
	m, state := s.m, s.state
	s.mu.Unlock()
	if m == nil || state != StateReady {
		return nil
	}

	visible, known := s.readCategoryVisibility(m)[cat.ID]
	if !known {
		visible = cat.InitiallyVisible
	}
	err := s.deps.Categories.Build(ctx, m, cat, maplayers.BuildOptions{
		Visible:  visible,
		OnSelect: s.onFeatureSelected,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	sel, h := s.selection, s.highlighter
	s.mu.Unlock()
	if sel.Category == cat.ID && sel.PlaceID != nil && h != nil {
		h.Highlight(sel.Category, sel.PlaceID)
	}
	return nil
}

// ShowRouteToVenue строит маршрут. Без origin или при включенной запасной точке
// маршрут строится от нее. При ошибке кеш маршрута не трогается.
func (s *MapSession) ShowRouteToVenue(ctx context.Context, origin *orb.Point, destination orb.Point) (*domain.RouteDetails, error) {
	m, err := s.requireMap()
	if err != nil {
		return nil, err
	}

	from := s.locator.Dummy()
	if origin != nil && !s.locator.UsesDummy() {
		from = *origin
	}

	details, err := s.deps.Routes.DrawRoute(ctx, m, from, destination)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastRoute = details
	s.lastEndpoints = &domain.RouteEndpoints{From: from, To: destination}
	s.mu.Unlock()
	return details, nil
}

func (s *MapSession) GetLastRouteDetails() *domain.RouteDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRoute
}

func (s *MapSession) GetLastRouteSummary() *domain.RouteSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRoute == nil {
		return nil
	}
	summary := s.lastRoute.Summary()
	return &summary
}

// LastRouteEndpoints - концы активного маршрута
func (s *MapSession) LastRouteEndpoints() *domain.RouteEndpoints {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEndpoints
}

func (s *MapSession) HasRoute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEndpoints != nil
}

// ClearCurrentRoute убирает маршрут с карты и забывает его, чтобы смена подложки его не вернула
func (s *MapSession) ClearCurrentRoute() error {
	m := s.GetMap()
	if m == nil {
		return nil
	}

	err := s.deps.Routes.ClearRoute(m)

	s.mu.Lock()
	s.lastRoute = nil
	s.lastEndpoints = nil
	s.mu.Unlock()
	return err
}

// ResetView убирает маршрут и возвращает камеру в начальную точку
func (s *MapSession) ResetView() error {
	m, err := s.requireMap()
	if err != nil {
		return err
	}
	clearErr := s.ClearCurrentRoute()

	center, zoom := s.cfg.Center, s.cfg.Zoom
	m.FlyTo(mapengine.CameraOptions{Center: &center, Zoom: &zoom})
	return clearErr
}

// HighlightCategoryPlace выделяет точку; nil снимает выделение.
// Смена категории сбрасывает прежний выбор вместе с анимацией.
func (s *MapSession) HighlightCategoryPlace(categoryID string, placeID *string) (bool, error) {
	if _, ok := domain.CategoryByID(categoryID); !ok {
		return false, apperrors.ErrUnknownCategory
	}

	s.mu.Lock()
	if s.m == nil {
		s.mu.Unlock()
		return false, apperrors.ErrMapNotInitialized
	}
	h, b := s.highlighter, s.bouncer
	changed := s.selection.Category != categoryID || placeID == nil
	s.selection = SelectionState{Category: categoryID}
	if placeID != nil {
		id := *placeID
		s.selection.PlaceID = &id
	}
	s.mu.Unlock()

	if changed {
		b.Stop()
	}
	return h.Highlight(categoryID, placeID), nil
}

// StartBounceSelected запускает анимацию выбранной точки. false - ничего не выбрано.
func (s *MapSession) StartBounceSelected() bool {
	s.mu.Lock()
	sel, b := s.selection, s.bouncer
	s.mu.Unlock()

	if b == nil || sel.PlaceID == nil {
		return false
	}
	b.Start(sel.Category, *sel.PlaceID, s.deps.Now())
	return true
}

// StopBounceSelected можно вызывать без запущенной анимации
func (s *MapSession) StopBounceSelected() {
	s.mu.Lock()
	b := s.bouncer
	s.mu.Unlock()
	if b != nil {
		b.Stop()
	}
}

// BounceState - состояние анимации
func (s *MapSession) BounceState() maplayers.BounceState {
	s.mu.Lock()
	b := s.bouncer
	s.mu.Unlock()
	if b == nil {
		return maplayers.BounceIdle
	}
	state, _, _ := b.State()
	return state
}

func (s *MapSession) Selection() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// GeocodeSearch ищет места рядом с текущей камерой
func (s *MapSession) GeocodeSearch(ctx context.Context, query string) ([]domain.GeocodeResult, error) {
	m, err := s.requireMap()
	if err != nil {
		return nil, err
	}
	if s.deps.Geocoder == nil {
		return nil, apperrors.ErrGeocodingFailed.WithMessage("Geocoder is not configured")
	}
	center := m.Camera().Center
	return s.deps.Geocoder.Search(ctx, query, &center)
}

// DestroyMap уничтожает карту и возвращает сессию в исходное состояние
func (s *MapSession) DestroyMap() {
	s.mu.Lock()
	m := s.m
	if m == nil {
		s.mu.Unlock()
		return
	}
	cancel, done := s.layersCancel, s.layersDone
	h, b := s.highlighter, s.bouncer

	s.m = nil
	s.state = StateUninitialized
	s.highlighter, s.bouncer = nil, nil
	s.selection = SelectionState{}
	s.lastRoute, s.lastEndpoints = nil, nil
	s.layersCancel, s.layersDone, s.layersRestore = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if b != nil {
		b.Stop()
	}
	if h != nil {
		h.Cancel()
	}
	if done != nil {
		<-done
	}
	s.deps.Routes.Forget(m.ID())
	m.Remove()

	metrics.SessionClosed()
	s.logger.Info("Map destroyed")
}

// Notifications забирает накопленные уведомления, если Notifier их копит
func (s *MapSession) Notifications() []Notification {
	if buf, ok := s.deps.Notifier.(*NotificationBuffer); ok {
		return buf.Drain()
	}
	return nil
}

func (s *MapSession) notify(level NotificationLevel, message string) {
	s.deps.Notifier.Notify(Notification{
		SessionID: s.id,
		Level:     level,
		Message:   message,
		Time:      s.deps.Now(),
	})
}

func cameraTo(center orb.Point, zoom float64) mapengine.CameraOptions {
	return mapengine.CameraOptions{Center: &center, Zoom: &zoom}
}
