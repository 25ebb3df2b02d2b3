package domain

import (
	"github.com/paulmach/orb"
)

// Sport - вид спорта, проводимый на площадке
type Sport struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Place - точка интереса, уже нормализованная на границе хранилища.
// Координаты всегда в долготе/широте WGS84.
type Place struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NameFr        string    `json:"name_fr,omitempty"`
	Location      orb.Point `json:"location"`
	Info          string    `json:"info,omitempty"`
	InfoFr        string    `json:"info_fr,omitempty"`
	Address       string    `json:"address,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	PointColor    string    `json:"point_color,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	BrandTitle    string    `json:"brand_title,omitempty"`
	BrandSubtitle string    `json:"brand_subtitle,omitempty"`
	LocationLabel string    `json:"location_label,omitempty"`
	ShortCode     string    `json:"short_code,omitempty"`
	GradientFrom  string    `json:"gradient_from,omitempty"`
	GradientTo    string    `json:"gradient_to,omitempty"`
	Website       string    `json:"website,omitempty"`
	SocialHandle  string    `json:"social_handle,omitempty"`
	SportCount    *int      `json:"sport_count,omitempty"`
	Sports        []Sport   `json:"sports,omitempty"`
	CategoryID    string    `json:"category_id"`
	ZoneID        *string   `json:"zone_id,omitempty"`
}

// IsUnassigned - место без зоны (корневое)
func (p *Place) IsUnassigned() bool {
	return p.ZoneID == nil || *p.ZoneID == "" || *p.ZoneID == "root"
}

// Zone - именованная группа мест внутри категории
type Zone struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Color      string `json:"color" db:"color"`
	CategoryID string `json:"category_id" db:"category_id"`
}

// ZonePlaces - цвет зоны и ее места
type ZonePlaces struct {
	Zone   Zone     `json:"zone"`
	Places []*Place `json:"places"`
}

const (
	DefaultZoneColor      = "#3b82f6"
	UnassignedZoneColor   = "#64748b"
	UnassignedZoneName    = "Unassigned"
	UnassignedZoneSlug    = "unassigned"
	DefaultPlaceTitle     = "Untitled"
	CompetitionCategoryID = "competition"
)

// DefaultCompetitionZones - зоны, которые создаются при первом обращении к пустой категории
var DefaultCompetitionZones = []Zone{
	{Name: "Dakar", Color: "#E91E63", CategoryID: CompetitionCategoryID},
	{Name: "Diamniadio", Color: "#12B76A", CategoryID: CompetitionCategoryID},
	{Name: "Saly", Color: "#FF8C00", CategoryID: CompetitionCategoryID},
	{Name: "Olympic Village", Color: "#ffe100", CategoryID: CompetitionCategoryID},
}
