package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/venue-map-service/internal/directions"
	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
	"github.com/venue-map-service/internal/pkg/frames"
	"github.com/venue-map-service/internal/usecase"
)

// MockMapboxRepository is a mock of MapboxRepository
type MockMapboxRepository struct {
	mock.Mock
}

func (m *MockMapboxRepository) GetDirections(ctx context.Context, origin, destination orb.Point) (*domain.DirectionsResponse, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DirectionsResponse), args.Error(1)
}

func (m *MockMapboxRepository) ForwardGeocode(ctx context.Context, query string, opts repository.GeocodeOptions) ([]domain.GeocodeResult, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GeocodeResult), args.Error(1)
}

// fakeCategoryBuilder кладет одну точку категории в кластерный источник зоны Root
type fakeCategoryBuilder struct {
	mu     sync.Mutex
	builds map[string]int
	gate   chan struct{}
}

func newFakeCategoryBuilder() *fakeCategoryBuilder {
	return &fakeCategoryBuilder{builds: make(map[string]int)}
}

func (b *fakeCategoryBuilder) Build(ctx context.Context, m mapengine.Map, cat domain.Category, opts maplayers.BuildOptions) error {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		// закрытия ворот ждем без оглядки на ctx
		<-gate
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := maplayers.WaitStyleLoaded(ctx, m); err != nil {
		return err
	}

	src := cat.ClusterSourceID("Root")
	fc := geojson.NewFeatureCollection()
	f := geojson.NewPointFeature([]float64{-17.3, 14.7})
	f.SetProperty(domain.PropID, placeIDFor(cat))
	fc.AddFeature(f)
	if err := maplayers.AddOrSetSource(m, src, fc); err != nil {
		return err
	}

	vis := mapengine.VisibilityNone
	if opts.Visible {
		vis = mapengine.VisibilityVisible
	}
	ids := maplayers.LayerIDsFor(src)
	layers := []mapengine.Layer{
		{ID: ids.Core, Type: mapengine.LayerCircle},
		{ID: ids.Symbols, Type: mapengine.LayerSymbol},
		{ID: ids.Halo, Type: mapengine.LayerCircle},
	}
	for _, l := range layers {
		if err := maplayers.EnsureNoLayer(m, l.ID); err != nil {
			return err
		}
		l.Source = src
		l.Layout = map[string]any{mapengine.PropVisibility: vis}
		if err := m.AddLayer(l, ""); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.builds[cat.ID]++
	b.mu.Unlock()
	return nil
}

// hold задерживает все следующие Build до вызова возвращенной функции
func (b *fakeCategoryBuilder) hold() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.gate = nil
			b.mu.Unlock()
			close(gate)
		})
	}
}

func (b *fakeCategoryBuilder) count(categoryID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds[categoryID]
}

func placeIDFor(cat domain.Category) string {
	return cat.ID + "-place-1"
}

var (
	venue      = orb.Point{-17.194, 14.583}
	userOrigin = orb.Point{-17.46, 14.71}
)

func sampleDirections() *domain.DirectionsResponse {
	return &domain.DirectionsResponse{
		Code: "Ok",
		Routes: []domain.DirectionsRoute{{
			Distance: 30500,
			Duration: 1820,
			Geometry: domain.LineGeometry{Type: "LineString", Coordinates: [][]float64{
				{-17.4467, 14.6928}, {-17.30, 14.62}, {-17.194, 14.583},
			}},
			Legs: []domain.DirectionsLeg{{
				Distance: 30500,
				Duration: 1820,
				Steps: []domain.DirectionsStep{
					{
						Distance: 30500,
						Duration: 1820,
						Name:     "Autoroute",
						Geometry: &domain.LineGeometry{Coordinates: [][]float64{{-17.4467, 14.6928}, {-17.194, 14.583}}},
						Maneuver: domain.DirectionsManeuver{Type: "depart", Instruction: "Head east", Location: []float64{-17.4467, 14.6928}},
					},
					{
						Geometry: &domain.LineGeometry{Coordinates: [][]float64{{-17.194, 14.583}, {-17.194, 14.583}}},
						Maneuver: domain.DirectionsManeuver{Type: "arrive", Instruction: "You have arrived", Location: []float64{-17.194, 14.583}},
					},
				},
			}},
		}},
	}
}

type fixture struct {
	session  *usecase.MapSession
	mapbox   *MockMapboxRepository
	builder  *fakeCategoryBuilder
	notices  *usecase.NotificationBuffer
	sched    *frames.ManualScheduler
	locator  usecase.LocatorConfig
	initial  orb.Point
	initZoom float64
}

type fixtureOption func(*usecase.SessionConfig)

func withLocator(cfg usecase.LocatorConfig) fixtureOption {
	return func(c *usecase.SessionConfig) { c.Locator = cfg }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	mapbox := &MockMapboxRepository{}
	builder := newFakeCategoryBuilder()
	notices := usecase.NewNotificationBuffer(0)
	sched := frames.NewManualScheduler(time.Now())

	cfg := usecase.SessionConfig{
		StyleURL:   "mapbox://styles/mapbox/streets-v11",
		Center:     venue,
		Zoom:       10.12,
		MobileZoom: 8.2,
		Locator:    usecase.LocatorConfig{Timeout: 20 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := usecase.NewMapSession("session-1", cfg, usecase.SessionDeps{
		Categories: builder,
		Routes:     directions.NewEngine(mapbox, logger),
		Geocoder:   usecase.NewGeocoderControl(mapbox, "sn", logger),
		Scheduler:  sched,
		Notifier:   notices,
	}, logger)

	return &fixture{
		session:  s,
		mapbox:   mapbox,
		builder:  builder,
		notices:  notices,
		sched:    sched,
		locator:  cfg.Locator,
		initial:  cfg.Center,
		initZoom: cfg.Zoom,
	}
}

// ready инициализирует карту и ждет построения слоев
func (f *fixture) ready(t *testing.T) *mapengine.StyleMap {
	t.Helper()
	m := f.session.InitMap(usecase.InitOptions{Container: "map"})
	f.await(t)
	t.Cleanup(f.session.DestroyMap)
	return m
}

func (f *fixture) await(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.session.AwaitLayers(ctx))
}

func hasLayer(m *mapengine.StyleMap, id string) bool {
	_, ok := m.GetLayer(id)
	return ok
}

func categoryByID(t *testing.T, id string) domain.Category {
	t.Helper()
	cat, ok := domain.CategoryByID(id)
	require.True(t, ok, id)
	return cat
}
