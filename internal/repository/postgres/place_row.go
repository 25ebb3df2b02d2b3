package postgres

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/lib/pq"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/pkg/utils"
)

// PlaceRow - строка places как есть. Старые записи хранят теги, виды спорта
// и градиент строками с JSON внутри, координаты бывают в проекции.
type PlaceRow struct {
	ID            string          `db:"id"`
	Name          sql.NullString  `db:"name"`
	NameFr        sql.NullString  `db:"name_fr"`
	Lat           sql.NullFloat64 `db:"lat"`
	Lon           sql.NullFloat64 `db:"lon"`
	X             sql.NullFloat64 `db:"x"`
	Y             sql.NullFloat64 `db:"y"`
	CRS           sql.NullString  `db:"crs"`
	Info          sql.NullString  `db:"info"`
	InfoFr        sql.NullString  `db:"info_fr"`
	Address       sql.NullString  `db:"address"`
	Rating        sql.NullFloat64 `db:"rating"`
	Tags          pq.StringArray  `db:"tags"`
	PointColor    sql.NullString  `db:"point_color"`
	ImageURL      sql.NullString  `db:"image_url"`
	BrandTitle    sql.NullString  `db:"brand_title"`
	BrandSubtitle sql.NullString  `db:"brand_subtitle"`
	LocationLabel sql.NullString  `db:"location_label"`
	ShortCode     sql.NullString  `db:"short_code"`
	GradientFrom  sql.NullString  `db:"gradient_from"`
	GradientTo    sql.NullString  `db:"gradient_to"`
	Website       sql.NullString  `db:"website"`
	SocialHandle  sql.NullString  `db:"social_handle"`
	SportCount    sql.NullInt64   `db:"sport_count"`
	Sports        []byte          `db:"sports"`
	CategoryID    string          `db:"category_id"`
	ZoneID        sql.NullString  `db:"zone_id"`
}

// ToDomain нормализует строку. false - у места нет пригодных координат.
func (r *PlaceRow) ToDomain() (*domain.Place, bool) {
	var (
		lon, lat float64
		crs      = utils.CRS(strings.ToLower(r.CRS.String))
	)
	switch {
	case r.Lat.Valid && r.Lon.Valid:
		lon, lat = r.Lon.Float64, r.Lat.Float64
	case r.X.Valid && r.Y.Valid:
		lon, lat = r.X.Float64, r.Y.Float64
	default:
		return nil, false
	}

	loc := utils.MaybeToLonLat(lon, lat, crs)
	if !utils.ValidatePoint(loc) {
		return nil, false
	}

	p := &domain.Place{
		ID:            r.ID,
		Name:          strings.TrimSpace(r.Name.String),
		NameFr:        r.NameFr.String,
		Location:      loc,
		Info:          r.Info.String,
		InfoFr:        r.InfoFr.String,
		Address:       r.Address.String,
		Tags:          parseStringList(r.Tags),
		PointColor:    r.PointColor.String,
		ImageURL:      r.ImageURL.String,
		BrandTitle:    r.BrandTitle.String,
		BrandSubtitle: r.BrandSubtitle.String,
		LocationLabel: r.LocationLabel.String,
		ShortCode:     r.ShortCode.String,
		Website:       r.Website.String,
		SocialHandle:  r.SocialHandle.String,
		Sports:        parseSports(r.Sports),
		CategoryID:    r.CategoryID,
	}
	if r.Rating.Valid {
		rating := r.Rating.Float64
		p.Rating = &rating
	}
	if r.SportCount.Valid {
		n := int(r.SportCount.Int64)
		p.SportCount = &n
	}
	if r.ZoneID.Valid && r.ZoneID.String != "" {
		zoneID := r.ZoneID.String
		p.ZoneID = &zoneID
	}
	p.GradientFrom, p.GradientTo = parseGradient(r.GradientFrom.String, r.GradientTo.String)

	return p, true
}

// parseStringList: text[] или один элемент с JSON-массивом
func parseStringList(values []string) []string {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var decoded []any
		if err := json.Unmarshal([]byte(values[0]), &decoded); err != nil {
			return nil
		}
		values = values[:0:0]
		for _, v := range decoded {
			if s, ok := v.(string); ok {
				values = append(values, s)
			}
		}
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseSports принимает массив объектов, массив строк или JSON-строку с тем же
func parseSports(raw []byte) []domain.Sport {
	if len(raw) == 0 {
		return nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		raw = []byte(nested)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	sports := make([]domain.Sport, 0, len(items))
	for _, item := range items {
		var s domain.Sport
		if err := json.Unmarshal(item, &s); err == nil {
			if s.Key == "" {
				s.Key = domain.Slugify(s.Label)
			}
			if s.Label != "" || s.Key != "" {
				sports = append(sports, s)
			}
			continue
		}
		var label string
		if err := json.Unmarshal(item, &label); err == nil && label != "" {
			sports = append(sports, domain.Sport{Key: domain.Slugify(label), Label: label})
		}
	}
	if len(sports) == 0 {
		return nil
	}
	return sports
}

// parseGradient: два столбца или пара ["#from", "#to"] в gradient_from
func parseGradient(from, to string) (string, string) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if strings.HasPrefix(from, "[") {
		var pair []string
		if err := json.Unmarshal([]byte(from), &pair); err == nil && len(pair) == 2 {
			return pair[0], pair[1]
		}
		return "", to
	}
	return from, to
}
