package domain

// ZoneBoundary - статичный полигон зоны, рисуемый неоновым контуром
type ZoneBoundary struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Color string `json:"color"`
}

// Slug - основа id источника и слоев контура
func (z ZoneBoundary) Slug() string {
	return Slugify(z.Name)
}

func (z ZoneBoundary) SourceID() string  { return z.Slug() + "-zone" }
func (z ZoneBoundary) FillID() string    { return z.Slug() + "-fill" }
func (z ZoneBoundary) Glow1ID() string   { return z.Slug() + "-glow1" }
func (z ZoneBoundary) Glow2ID() string   { return z.Slug() + "-glow2" }
func (z ZoneBoundary) OutlineID() string { return z.Slug() + "-outline" }
func (z ZoneBoundary) LabelID() string   { return z.Slug() + "-label" }

// CompetitionZoneBoundaries - зоны соревнований с контурами
var CompetitionZoneBoundaries = []ZoneBoundary{
	{Name: "Dakar", File: "/data/dakar_zone_comp.json", Color: "transparent"},
	{Name: "Diamniadio", File: "/data/diamniadio_zone_comp.json", Color: "transparent"},
	{Name: "Saly", File: "/data/saly_zone_comp.json", Color: "transparent"},
}
