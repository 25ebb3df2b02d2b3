package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
	apperrors "github.com/venue-map-service/internal/pkg/errors"
)

const placeColumns = `
	id, name, name_fr, lat, lon, x, y, crs, info, info_fr, address, rating, tags,
	point_color, image_url, brand_title, brand_subtitle, location_label, short_code,
	gradient_from, gradient_to, website, social_handle, sport_count, sports,
	category_id, zone_id`

type placeRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewPlaceRepository(db *DB) repository.PlaceRepository {
	return &placeRepository{
		db:     db,
		logger: db.logger,
	}
}

// ListZones возвращает зоны категории. Пустая категория соревнований
// получает зоны по умолчанию при первом обращении.
func (r *placeRepository) ListZones(ctx context.Context, categoryID string) ([]*domain.Zone, error) {
	zones, err := r.selectZones(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(zones) > 0 || categoryID != domain.CompetitionCategoryID {
		return zones, nil
	}

	if err := r.seedCompetitionZones(ctx); err != nil {
		return nil, err
	}
	return r.selectZones(ctx, categoryID)
}

func (r *placeRepository) selectZones(ctx context.Context, categoryID string) ([]*domain.Zone, error) {
	query := `
		SELECT id, name, COALESCE(NULLIF(color, ''), $2) AS color, category_id
		FROM zones
		WHERE category_id = $1
		ORDER BY name
	`

	var zones []*domain.Zone
	if err := r.db.SelectContext(ctx, &zones, query, categoryID, domain.DefaultZoneColor); err != nil {
		r.logger.Error("Failed to list zones",
			zap.String("category_id", categoryID),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return zones, nil
}

// seedCompetitionZones под advisory lock, чтобы параллельные сессии не создали дубликаты
func (r *placeRepository) seedCompetitionZones(ctx context.Context) error {
	seeded := false
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "zones:"+domain.CompetitionCategoryID); err != nil {
			return fmt.Errorf("lock zones: %w", err)
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM zones WHERE category_id = $1`, domain.CompetitionCategoryID); err != nil {
			return fmt.Errorf("count zones: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, z := range domain.DefaultCompetitionZones {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO zones (id, name, color, category_id) VALUES ($1, $2, $3, $4)`,
				uuid.NewString(), z.Name, z.Color, z.CategoryID,
			)
			if err != nil {
				return fmt.Errorf("seed zone %s: %w", z.Name, err)
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to seed competition zones", zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	if seeded {
		r.logger.Info("Default competition zones created",
			zap.Int("zones", len(domain.DefaultCompetitionZones)))
	}
	return nil
}

func (r *placeRepository) GetZone(ctx context.Context, zoneID string) (*domain.Zone, error) {
	query := `
		SELECT id, name, COALESCE(NULLIF(color, ''), $2) AS color, category_id
		FROM zones
		WHERE id = $1
	`

	var zone domain.Zone
	err := r.db.GetContext(ctx, &zone, query, zoneID, domain.DefaultZoneColor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrZoneNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get zone", zap.String("zone_id", zoneID), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return &zone, nil
}

func (r *placeRepository) ListZonePlaces(ctx context.Context, zoneID string) (*domain.ZonePlaces, error) {
	zone, err := r.GetZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM places WHERE zone_id = $1 ORDER BY name, id`, placeColumns)
	places, err := r.selectPlaces(ctx, query, zoneID)
	if err != nil {
		return nil, err
	}

	return &domain.ZonePlaces{Zone: *zone, Places: places}, nil
}

func (r *placeRepository) ListUnassignedPlaces(ctx context.Context, categoryID string) ([]*domain.Place, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM places
		WHERE category_id = $1 AND (zone_id IS NULL OR zone_id IN ('', 'root'))
		ORDER BY name, id`, placeColumns)
	return r.selectPlaces(ctx, query, categoryID)
}

func (r *placeRepository) selectPlaces(ctx context.Context, query string, arg string) ([]*domain.Place, error) {
	var rows []PlaceRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		r.logger.Error("Failed to list places", zap.String("arg", arg), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	places := make([]*domain.Place, 0, len(rows))
	for i := range rows {
		p, ok := rows[i].ToDomain()
		if !ok {
			r.logger.Warn("Skipping place without usable coordinates",
				zap.String("place_id", rows[i].ID))
			continue
		}
		places = append(places, p)
	}
	return places, nil
}
