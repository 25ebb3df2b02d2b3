package maplayers_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
)

// MockPlaceRepository is a mock of PlaceRepository
type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) ListZones(ctx context.Context, categoryID string) ([]*domain.Zone, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Zone), args.Error(1)
}

func (m *MockPlaceRepository) GetZone(ctx context.Context, zoneID string) (*domain.Zone, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *MockPlaceRepository) ListZonePlaces(ctx context.Context, zoneID string) (*domain.ZonePlaces, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ZonePlaces), args.Error(1)
}

func (m *MockPlaceRepository) ListUnassignedPlaces(ctx context.Context, categoryID string) ([]*domain.Place, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Place), args.Error(1)
}

// memAssets - статические файлы в памяти
type memAssets struct {
	mu      sync.Mutex
	files   map[string][]byte
	fetches map[string]int
}

func newMemAssets(files map[string][]byte) *memAssets {
	return &memAssets{files: files, fetches: map[string]int{}}
}

func (a *memAssets) Fetch(_ context.Context, path string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches[path]++
	data, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("asset %s: not found", path)
	}
	return data, nil
}

func (a *memAssets) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches[path]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestMap(t *testing.T) *mapengine.StyleMap {
	t.Helper()
	m := mapengine.New(mapengine.Options{
		ID:       "session-1",
		StyleURL: "mapbox://styles/mapbox/streets-v11",
		Center:   orb.Point{-17.194, 14.583},
		Zoom:     10,
	}, zap.NewNop())
	m.Load()
	return m
}

func competition(t *testing.T) domain.Category {
	t.Helper()
	cat, ok := domain.CategoryByID(domain.CompetitionCategoryID)
	require.True(t, ok)
	return cat
}

func stadiumA() *domain.Place {
	n := 3
	zone := "zone-dakar"
	return &domain.Place{
		ID:         "place-42",
		Name:       "Stadium A",
		Location:   orb.Point{-17.45, 14.70},
		SportCount: &n,
		CategoryID: domain.CompetitionCategoryID,
		ZoneID:     &zone,
	}
}

type popupRecorder struct {
	mu        sync.Mutex
	rendered  []string
	destroyed []string
}

func (r *popupRecorder) Render(props domain.FeatureProperties) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, props.ID)
	return "<div>" + props.Title + "</div>", nil
}

func (r *popupRecorder) Destroy(placeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed = append(r.destroyed, placeID)
}

type fixture struct {
	m       *mapengine.StyleMap
	repo    *MockPlaceRepository
	assets  *memAssets
	popups  *popupRecorder
	builder *maplayers.CategoryPointsBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	assets := newMemAssets(map[string][]byte{
		"/markers/stadium.png": pngBytes(t),
		"/markers/hotel.png":   pngBytes(t),
		"/markers/pin.png":     pngBytes(t),
	})
	images, err := maplayers.NewMarkerImages(assets, 8, zap.NewNop())
	require.NoError(t, err)

	repo := &MockPlaceRepository{}
	popups := &popupRecorder{}
	return &fixture{
		m:       newTestMap(t),
		repo:    repo,
		assets:  assets,
		popups:  popups,
		builder: maplayers.NewCategoryPointsBuilder(repo, images, popups, zap.NewNop()),
	}
}

// expectDakarOnly - категория соревнований с одной зоной Dakar и одним местом
func (f *fixture) expectDakarOnly() {
	dakar := &domain.Zone{ID: "zone-dakar", Name: "Dakar", Color: "#E91E63", CategoryID: domain.CompetitionCategoryID}
	f.repo.On("ListZones", mock.Anything, domain.CompetitionCategoryID).Return([]*domain.Zone{dakar}, nil)
	f.repo.On("ListZonePlaces", mock.Anything, "zone-dakar").Return(&domain.ZonePlaces{
		Zone:   *dakar,
		Places: []*domain.Place{stadiumA()},
	}, nil)
	f.repo.On("ListUnassignedPlaces", mock.Anything, domain.CompetitionCategoryID).Return([]*domain.Place{}, nil)
}
