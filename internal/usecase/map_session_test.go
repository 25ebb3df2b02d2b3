package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venue-map-service/internal/directions"
	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/maplayers"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/usecase"
)

func TestMapSession_InitMapBuildsAllCategories(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	assert.Equal(t, usecase.StateReady, f.session.State())
	for _, cat := range domain.Categories {
		assert.Equal(t, 1, f.builder.count(cat.ID), cat.ID)
	}

	vis, err := f.session.CategoryVisibility()
	require.NoError(t, err)
	for _, cat := range domain.Categories {
		assert.Equal(t, cat.InitiallyVisible, vis[cat.ID], cat.ID)
	}

	again := f.session.InitMap(usecase.InitOptions{Container: "other"})
	assert.Same(t, m, again)
	f.await(t)
	assert.Equal(t, 1, f.builder.count("hotels"))
}

func TestMapSession_InitMapMobileZoom(t *testing.T) {
	f := newFixture(t)
	m := f.session.InitMap(usecase.InitOptions{Mobile: true, Viewport: &mapengine.Viewport{Width: 390, Height: 844}})
	f.await(t)
	t.Cleanup(f.session.DestroyMap)

	assert.InDelta(t, 8.2, m.Camera().Zoom, 1e-9)
	assert.Equal(t, 390, m.Style().Viewport.Width)
}

func TestMapSession_OperationsBeforeInit(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.session.GetMap())
	assert.ErrorIs(t, f.session.SetBasemap(context.Background(), domain.BasemapDark), apperrors.ErrMapNotInitialized)
	_, err := f.session.ShowRouteToVenue(context.Background(), nil, venue)
	assert.ErrorIs(t, err, apperrors.ErrMapNotInitialized)
	_, err = f.session.HighlightCategoryPlace("hotels", nil)
	assert.ErrorIs(t, err, apperrors.ErrMapNotInitialized)
	assert.NoError(t, f.session.ClearCurrentRoute())
	assert.False(t, f.session.StartBounceSelected())
	f.session.StopBounceSelected()
	f.session.DestroyMap()
}

func TestMapSession_SetBasemapKeepsCamera(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	center, zoom, bearing, pitch := orb.Point{-17.25, 14.65}, 12.5, 30.0, 45.0
	m.JumpTo(mapengine.CameraOptions{Center: &center, Zoom: &zoom, Bearing: &bearing, Pitch: &pitch})
	before := m.Camera()

	require.NoError(t, f.session.SetBasemap(context.Background(), domain.BasemapDark))
	f.await(t)

	assert.Equal(t, before, m.Camera())
	url, _ := domain.BasemapDark.StyleURL()
	assert.Equal(t, url, m.Style().URL)
	assert.Equal(t, usecase.StateReady, f.session.State())
	assert.Equal(t, 2, f.builder.count("competition"))
}

func TestMapSession_SetBasemapCancelledKeepsSessionUsable(t *testing.T) {
	f := newFixture(t)
	release := f.builder.hold()
	defer release()

	m := f.session.InitMap(usecase.InitOptions{Container: "map"})
	t.Cleanup(f.session.DestroyMap)
	styleBefore := m.Style().URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.session.SetBasemap(ctx, domain.BasemapDark)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, usecase.StateReady, f.session.State())
	assert.Equal(t, styleBefore, m.Style().URL)

	release()
	f.await(t)

	assert.Equal(t, usecase.StateReady, f.session.State())
	competition := categoryByID(t, "competition")
	assert.True(t, hasLayer(m, maplayers.LayerIDsFor(competition.ClusterSourceID("Root")).Symbols))

	built := f.builder.count("hotels")
	require.NoError(t, f.session.RefreshCategory(context.Background(), "hotels"))
	assert.Equal(t, built+1, f.builder.count("hotels"))
}

func TestMapSession_SetBasemapKeepsCategoryVisibility(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	require.NoError(t, f.session.SetCategoryVisible("hotels", true))
	require.NoError(t, f.session.SetCategoryVisible("competition", false))

	require.NoError(t, f.session.SetBasemap(context.Background(), domain.BasemapSatellite))
	f.await(t)

	vis, err := f.session.CategoryVisibility()
	require.NoError(t, err)
	assert.True(t, vis["hotels"])
	assert.False(t, vis["competition"])
	for _, cat := range domain.Categories {
		if cat.ID != "hotels" && cat.ID != "competition" {
			assert.Equal(t, cat.InitiallyVisible, vis[cat.ID], cat.ID)
		}
	}
}

func TestMapSession_SetBasemapRestoresRouteWithoutRefit(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(sampleDirections(), nil).Once()
	_, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)

	center, zoom := orb.Point{-17.0, 14.9}, 7.0
	m.JumpTo(mapengine.CameraOptions{Center: &center, Zoom: &zoom})

	require.NoError(t, f.session.SetBasemap(context.Background(), domain.BasemapOutdoors))
	f.await(t)

	assert.True(t, hasLayer(m, directions.RouteLayerID))
	assert.Equal(t, center, m.Camera().Center)
	assert.InDelta(t, zoom, m.Camera().Zoom, 1e-9)
	assert.True(t, f.session.HasRoute())
	f.mapbox.AssertNumberOfCalls(t, "GetDirections", 1)
}

func TestMapSession_SetBasemapUnknown(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)
	url := m.Style().URL

	err := f.session.SetBasemap(context.Background(), domain.BasemapID("mapbox-neon"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidBasemap)
	assert.Equal(t, url, m.Style().URL)
	assert.Equal(t, usecase.StateReady, f.session.State())
}

func TestMapSession_ShowRouteToVenue(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(sampleDirections(), nil).Once()

	details, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)
	assert.Equal(t, 30500.0, details.Distance)
	assert.Same(t, details, f.session.GetLastRouteDetails())
	assert.Equal(t, &domain.RouteSummary{Distance: 30500, Duration: 1820}, f.session.GetLastRouteSummary())
	assert.Equal(t, &domain.RouteEndpoints{From: userOrigin, To: venue}, f.session.LastRouteEndpoints())
	assert.True(t, hasLayer(m, directions.RouteLayerID))
}

func TestMapSession_ShowRouteWithoutOriginUsesDummy(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, usecase.DefaultDummyLocation, venue).Return(sampleDirections(), nil).Once()

	_, err := f.session.ShowRouteToVenue(context.Background(), nil, venue)
	require.NoError(t, err)
	f.mapbox.AssertExpectations(t)
}

func TestMapSession_DummyModeIgnoresOrigin(t *testing.T) {
	dummy := orb.Point{-17.0, 14.8}
	f := newFixture(t, withLocator(usecase.LocatorConfig{UseDummy: true, Dummy: dummy}))
	f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, dummy, venue).Return(sampleDirections(), nil).Once()

	_, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)
	f.mapbox.AssertExpectations(t)
}

func TestMapSession_FailedRouteKeepsPrevious(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(sampleDirections(), nil).Once()
	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(nil, errors.New("502 bad gateway")).Once()

	first, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)

	_, err = f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.Error(t, err)

	assert.Same(t, first, f.session.GetLastRouteDetails())
	assert.True(t, f.session.HasRoute())
	assert.True(t, hasLayer(m, directions.RouteLayerID))
}

func TestMapSession_ClearCurrentRoute(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	// без маршрута - ничего не происходит
	require.NoError(t, f.session.ClearCurrentRoute())

	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(sampleDirections(), nil).Once()
	_, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)

	require.NoError(t, f.session.ClearCurrentRoute())
	require.NoError(t, f.session.ClearCurrentRoute())

	assert.False(t, f.session.HasRoute())
	assert.Nil(t, f.session.GetLastRouteDetails())
	assert.Nil(t, f.session.GetLastRouteSummary())
	assert.False(t, hasLayer(m, directions.RouteLayerID))
	assert.Empty(t, m.Style().Markers)

	// смена подложки не возвращает убранный маршрут
	require.NoError(t, f.session.SetBasemap(context.Background(), domain.BasemapLight))
	f.await(t)
	assert.False(t, hasLayer(m, directions.RouteLayerID))
}

func TestMapSession_ResetView(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(sampleDirections(), nil).Once()
	_, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)

	require.NoError(t, f.session.ResetView())

	assert.False(t, f.session.HasRoute())
	assert.False(t, hasLayer(m, directions.RouteLayerID))
	assert.Equal(t, f.initial, m.Camera().Center)
	assert.InDelta(t, f.initZoom, m.Camera().Zoom, 1e-9)
	assert.Equal(t, mapengine.TransitionFly, m.Transition())
}

func TestMapSession_HighlightAndBounce(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	hotels := categoryByID(t, "hotels")
	pid := placeIDFor(hotels)

	found, err := f.session.HighlightCategoryPlace("hotels", &pid)
	require.NoError(t, err)
	assert.True(t, found)

	halo, ok := m.GetLayer(maplayers.LayerIDsFor(hotels.ClusterSourceID("Root")).Halo)
	require.True(t, ok)
	assert.Equal(t, maplayers.HaloFilter(pid), halo.Filter)

	require.True(t, f.session.StartBounceSelected())
	assert.Equal(t, maplayers.BounceRunning, f.session.BounceState())

	// та же категория - анимация продолжается
	_, err = f.session.HighlightCategoryPlace("hotels", &pid)
	require.NoError(t, err)
	assert.Equal(t, maplayers.BounceRunning, f.session.BounceState())

	// другая категория сбрасывает выбор и анимацию
	other := placeIDFor(categoryByID(t, "competition"))
	_, err = f.session.HighlightCategoryPlace("competition", &other)
	require.NoError(t, err)
	assert.Equal(t, maplayers.BounceIdle, f.session.BounceState())
	sel := f.session.Selection()
	assert.Equal(t, "competition", sel.Category)
	require.NotNil(t, sel.PlaceID)
	assert.Equal(t, other, *sel.PlaceID)

	f.session.StopBounceSelected()
	f.session.StopBounceSelected()
	assert.Equal(t, maplayers.BounceIdle, f.session.BounceState())
}

func TestMapSession_HighlightClearAndUnknownCategory(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	_, err := f.session.HighlightCategoryPlace("casinos", nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCategory)

	pid := "hotels-place-1"
	_, err = f.session.HighlightCategoryPlace("hotels", &pid)
	require.NoError(t, err)
	require.True(t, f.session.StartBounceSelected())

	_, err = f.session.HighlightCategoryPlace("hotels", nil)
	require.NoError(t, err)
	assert.Nil(t, f.session.Selection().PlaceID)
	assert.Equal(t, maplayers.BounceIdle, f.session.BounceState())
	assert.False(t, f.session.StartBounceSelected())
}

func TestMapSession_SelectionSurvivesBasemapSwap(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	hotels := categoryByID(t, "hotels")
	pid := placeIDFor(hotels)
	_, err := f.session.HighlightCategoryPlace("hotels", &pid)
	require.NoError(t, err)

	require.NoError(t, f.session.SetBasemap(context.Background(), domain.BasemapNavigationNight))
	f.await(t)

	halo, ok := m.GetLayer(maplayers.LayerIDsFor(hotels.ClusterSourceID("Root")).Halo)
	require.True(t, ok)
	assert.Equal(t, maplayers.HaloFilter(pid), halo.Filter)
}

func TestMapSession_RefreshCategoryKeepsVisibility(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	require.NoError(t, f.session.SetCategoryVisible("hotels", true))
	require.NoError(t, f.session.RefreshCategory(context.Background(), "hotels"))

	assert.Equal(t, 2, f.builder.count("hotels"))
	vis, err := f.session.CategoryVisibility()
	require.NoError(t, err)
	assert.True(t, vis["hotels"])

	assert.ErrorIs(t, f.session.RefreshCategory(context.Background(), "casinos"), apperrors.ErrUnknownCategory)
	assert.ErrorIs(t, f.session.SetCategoryVisible("casinos", true), apperrors.ErrUnknownCategory)
}

func TestMapSession_GeocodeSearchUsesCameraProximity(t *testing.T) {
	f := newFixture(t)
	f.ready(t)

	f.mapbox.On("ForwardGeocode", mock.Anything, "stade", mock.MatchedBy(func(o repository.GeocodeOptions) bool {
		return o.Country == "sn" && o.Proximity != nil && *o.Proximity == venue
	})).Return([]domain.GeocodeResult{{ID: "poi.1", PlaceName: "Stade Abdoulaye Wade", Center: []float64{-17.25, 14.74}}}, nil)

	results, err := f.session.GeocodeSearch(context.Background(), " stade ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Greater(t, results[0].DistanceKm, 0.0)

	_, err = f.session.GeocodeSearch(context.Background(), "s")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestMapSession_DestroyMap(t *testing.T) {
	f := newFixture(t)
	m := f.ready(t)

	f.mapbox.On("GetDirections", mock.Anything, userOrigin, venue).Return(sampleDirections(), nil).Once()
	_, err := f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	require.NoError(t, err)

	f.session.DestroyMap()

	assert.Nil(t, f.session.GetMap())
	assert.Equal(t, usecase.StateUninitialized, f.session.State())
	assert.False(t, f.session.HasRoute())
	assert.True(t, m.Removed())
	_, err = f.session.ShowRouteToVenue(context.Background(), &userOrigin, venue)
	assert.ErrorIs(t, err, apperrors.ErrMapNotInitialized)

	f.session.DestroyMap()

	// после уничтожения карту можно создать заново
	again := f.session.InitMap(usecase.InitOptions{})
	f.await(t)
	assert.NotSame(t, m, again)
}
