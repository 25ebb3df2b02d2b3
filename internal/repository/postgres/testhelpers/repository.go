package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/repository/postgres"
)

// NewPlaceRepositoryForTest creates a place repository with test database and logger
func NewPlaceRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.PlaceRepository {
	return postgres.NewPlaceRepository(postgres.NewDBForTest(db, logger))
}
