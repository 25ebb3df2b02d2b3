package postgres_test

import (
	"context"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venue-map-service/internal/domain"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
	"github.com/venue-map-service/internal/repository/postgres/testhelpers"
)

func setupPlaceRepo(t *testing.T) (*testhelpers.TestDB, context.Context) {
	t.Helper()
	tdb := testhelpers.SetupTestDB(t)
	t.Cleanup(tdb.Close)

	ctx := context.Background()
	require.NoError(t, testhelpers.ApplyMigrations(ctx, tdb.DB, "../../../migrations"))
	require.NoError(t, tdb.Cleanup(ctx))
	return tdb, ctx
}

func ptr[T any](v T) *T { return &v }

func TestPlaceRepository_ListZonesSeedsCompetition(t *testing.T) {
	tdb, ctx := setupPlaceRepo(t)
	repo := testhelpers.NewPlaceRepositoryForTest(tdb.DB, tdb.Logger)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ListZones(ctx, domain.CompetitionCategoryID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	zones, err := repo.ListZones(ctx, domain.CompetitionCategoryID)
	require.NoError(t, err)
	require.Len(t, zones, len(domain.DefaultCompetitionZones))

	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = z.Name
		assert.NotEmpty(t, z.ID)
	}
	assert.Equal(t, []string{"Dakar", "Diamniadio", "Olympic Village", "Saly"}, names)
}

func TestPlaceRepository_ListZonesOtherCategoryStaysEmpty(t *testing.T) {
	tdb, ctx := setupPlaceRepo(t)
	repo := testhelpers.NewPlaceRepositoryForTest(tdb.DB, tdb.Logger)

	zones, err := repo.ListZones(ctx, "hotels")
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestPlaceRepository_ZonePlaces(t *testing.T) {
	tdb, ctx := setupPlaceRepo(t)
	repo := testhelpers.NewPlaceRepositoryForTest(tdb.DB, tdb.Logger)

	zoneID, err := testhelpers.InsertZone(ctx, tdb.DB, "zone-dakar", "Dakar", "", "competition")
	require.NoError(t, err)

	require.NoError(t, testhelpers.InsertPlace(ctx, tdb.DB, testhelpers.PlaceFixture{
		ID: "place-42", Name: "Stade Abdoulaye Wade",
		Lat: ptr(14.70), Lon: ptr(-17.45),
		Tags:       pq.Array([]string{"football"}),
		Sports:     ptr(`[{"key":"football","label":"Football"}]`),
		CategoryID: "competition", ZoneID: &zoneID,
	}))
	require.NoError(t, testhelpers.InsertPlace(ctx, tdb.DB, testhelpers.PlaceFixture{
		ID: "place-lost", Name: "No coordinates",
		CategoryID: "competition", ZoneID: &zoneID,
	}))

	zp, err := repo.ListZonePlaces(ctx, zoneID)
	require.NoError(t, err)
	assert.Equal(t, "Dakar", zp.Zone.Name)
	assert.Equal(t, domain.DefaultZoneColor, zp.Zone.Color)
	require.Len(t, zp.Places, 1)
	assert.Equal(t, "place-42", zp.Places[0].ID)
	assert.Equal(t, []string{"football"}, zp.Places[0].Tags)
	assert.Equal(t, "Football", zp.Places[0].Sports[0].Label)

	_, err = repo.ListZonePlaces(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrZoneNotFound)
}

func TestPlaceRepository_ListUnassignedPlaces(t *testing.T) {
	tdb, ctx := setupPlaceRepo(t)
	repo := testhelpers.NewPlaceRepositoryForTest(tdb.DB, tdb.Logger)

	zoneID, err := testhelpers.InsertZone(ctx, tdb.DB, "zone-saly", "Saly", "#FF8C00", "hotels")
	require.NoError(t, err)

	fixtures := []testhelpers.PlaceFixture{
		{ID: "h-1", Name: "Hotel A", Lat: ptr(14.44), Lon: ptr(-16.99), CategoryID: "hotels"},
		{ID: "h-2", Name: "Hotel B", Lat: ptr(14.45), Lon: ptr(-16.98), CategoryID: "hotels", ZoneID: ptr("root")},
		{ID: "h-3", Name: "Hotel C", Lat: ptr(14.46), Lon: ptr(-16.97), CategoryID: "hotels", ZoneID: &zoneID},
		{ID: "r-1", Name: "Restaurant", Lat: ptr(14.46), Lon: ptr(-16.97), CategoryID: "restaurants"},
	}
	for _, f := range fixtures {
		require.NoError(t, testhelpers.InsertPlace(ctx, tdb.DB, f))
	}

	places, err := repo.ListUnassignedPlaces(ctx, "hotels")
	require.NoError(t, err)
	ids := make([]string, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"h-1", "h-2"}, ids)
}
