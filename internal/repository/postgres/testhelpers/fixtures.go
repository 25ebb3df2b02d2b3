package testhelpers

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InsertZone добавляет зону и возвращает ее id
func InsertZone(ctx context.Context, db *sqlx.DB, id, name, color, categoryID string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO zones (id, name, color, category_id) VALUES ($1, $2, $3, $4)`,
		id, name, color, categoryID)
	if err != nil {
		return "", fmt.Errorf("insert zone %s: %w", name, err)
	}
	return id, nil
}

// PlaceFixture - колонки places, которые нужны тестам
type PlaceFixture struct {
	ID           string   `db:"id"`
	Name         string   `db:"name"`
	Lat          *float64 `db:"lat"`
	Lon          *float64 `db:"lon"`
	X            *float64 `db:"x"`
	Y            *float64 `db:"y"`
	CRS          *string  `db:"crs"`
	Tags         any      `db:"tags"`
	Sports       *string  `db:"sports"`
	GradientFrom *string  `db:"gradient_from"`
	GradientTo   *string  `db:"gradient_to"`
	CategoryID   string   `db:"category_id"`
	ZoneID       *string  `db:"zone_id"`
}

// InsertPlace добавляет место
func InsertPlace(ctx context.Context, db *sqlx.DB, p PlaceFixture) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO places (id, name, lat, lon, x, y, crs, tags, sports, gradient_from, gradient_to, category_id, zone_id)
		VALUES (:id, :name, :lat, :lon, :x, :y, :crs, :tags, CAST(:sports AS JSONB), :gradient_from, :gradient_to, :category_id, :zone_id)
	`, p)
	if err != nil {
		return fmt.Errorf("insert place %s: %w", p.ID, err)
	}
	return nil
}
