package domain

import (
	geojson "github.com/paulmach/go.geojson"
)

// Ключи свойств точки на карте. Имена совпадают с тем, что ожидает клиентский рендер.
const (
	PropID            = "id"
	PropTitle         = "title"
	PropTitleFr       = "title_fr"
	PropInfo          = "info"
	PropInfoFr        = "info_fr"
	PropAddress       = "address"
	PropRating        = "rating"
	PropTags          = "tags"
	PropPointColor    = "pointColor"
	PropImageURL      = "imageUrl"
	PropBrandTitle    = "brandTitle"
	PropBrandSubtitle = "brandSubtitle"
	PropLocationLabel = "locationLabel"
	PropShortCode     = "shortCode"
	PropSportCount    = "sportCount"
	PropSports        = "sports"
	PropGradientFrom  = "gradientFrom"
	PropGradientTo    = "gradientTo"
	PropWebsite       = "website"
	PropSocialHandle  = "socialHandle"
	PropZoneName      = "zoneName"
	PropCategoryID    = "categoryId"
	PropImage         = "__img"
	PropIcon          = "__icon"
)

// FeatureProperties - строгая схема свойств точки.
// Собирается один раз из Place и дальше только читается.
type FeatureProperties struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	TitleFr       string   `json:"title_fr,omitempty"`
	Info          string   `json:"info,omitempty"`
	InfoFr        string   `json:"info_fr,omitempty"`
	Address       string   `json:"address,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	PointColor    string   `json:"pointColor,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	BrandTitle    string   `json:"brandTitle,omitempty"`
	BrandSubtitle string   `json:"brandSubtitle,omitempty"`
	LocationLabel string   `json:"locationLabel,omitempty"`
	ShortCode     string   `json:"shortCode,omitempty"`
	SportCount    *int     `json:"sportCount,omitempty"`
	Sports        []Sport  `json:"sports,omitempty"`
	GradientFrom  string   `json:"gradientFrom,omitempty"`
	GradientTo    string   `json:"gradientTo,omitempty"`
	Website       string   `json:"website,omitempty"`
	SocialHandle  string   `json:"socialHandle,omitempty"`
	ZoneName      string   `json:"zoneName"`
	CategoryID    string   `json:"categoryId"`
	Image         string   `json:"__img,omitempty"`
	Icon          string   `json:"__icon,omitempty"`
}

// NewFeatureProperties строит свойства точки из места.
// locationLabel по умолчанию - имя зоны (для мест без зоны пусто).
func NewFeatureProperties(p *Place, zoneName string) FeatureProperties {
	title := p.Name
	if title == "" {
		title = DefaultPlaceTitle
	}

	label := p.LocationLabel
	if label == "" && zoneName != UnassignedZoneName {
		label = zoneName
	}

	return FeatureProperties{
		ID:            p.ID,
		Title:         title,
		TitleFr:       p.NameFr,
		Info:          p.Info,
		InfoFr:        p.InfoFr,
		Address:       p.Address,
		Rating:        p.Rating,
		Tags:          p.Tags,
		PointColor:    p.PointColor,
		ImageURL:      p.ImageURL,
		BrandTitle:    p.BrandTitle,
		BrandSubtitle: p.BrandSubtitle,
		LocationLabel: label,
		ShortCode:     p.ShortCode,
		SportCount:    p.SportCount,
		Sports:        p.Sports,
		GradientFrom:  p.GradientFrom,
		GradientTo:    p.GradientTo,
		Website:       p.Website,
		SocialHandle:  p.SocialHandle,
		ZoneName:      zoneName,
		CategoryID:    p.CategoryID,
	}
}

// Gradient возвращает пару цветов, если заданы оба
func (fp FeatureProperties) Gradient() (from, to string, ok bool) {
	if fp.GradientFrom == "" || fp.GradientTo == "" {
		return "", "", false
	}
	return fp.GradientFrom, fp.GradientTo, true
}

// EffectiveSportCount - явное число видов спорта или длина списка
func (fp FeatureProperties) EffectiveSportCount() int {
	if fp.SportCount != nil {
		return *fp.SportCount
	}
	return len(fp.Sports)
}

// ToMap раскладывает свойства в плоский словарь GeoJSON.
// Срезы кладутся как есть, без сериализации в строки.
func (fp FeatureProperties) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		PropID:         fp.ID,
		PropTitle:      fp.Title,
		PropTitleFr:    fp.TitleFr,
		PropInfo:       fp.Info,
		PropInfoFr:     fp.InfoFr,
		PropAddress:    fp.Address,
		PropTags:       append([]string(nil), fp.Tags...),
		PropZoneName:   fp.ZoneName,
		PropCategoryID: fp.CategoryID,
	}

	setIf := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	setIf(PropPointColor, fp.PointColor)
	setIf(PropImageURL, fp.ImageURL)
	setIf(PropBrandTitle, fp.BrandTitle)
	setIf(PropBrandSubtitle, fp.BrandSubtitle)
	setIf(PropLocationLabel, fp.LocationLabel)
	setIf(PropShortCode, fp.ShortCode)
	setIf(PropGradientFrom, fp.GradientFrom)
	setIf(PropGradientTo, fp.GradientTo)
	setIf(PropWebsite, fp.Website)
	setIf(PropSocialHandle, fp.SocialHandle)
	setIf(PropImage, fp.Image)
	setIf(PropIcon, fp.Icon)

	if fp.Rating != nil {
		m[PropRating] = *fp.Rating
	}
	if fp.SportCount != nil {
		m[PropSportCount] = *fp.SportCount
	}
	if len(fp.Sports) > 0 {
		m[PropSports] = append([]Sport(nil), fp.Sports...)
	}

	return m
}

// FeaturePropertiesFromMap - обратная операция к ToMap.
// Ожидает значения, положенные ToMap; числа после JSON принимаются и как float64.
func FeaturePropertiesFromMap(m map[string]interface{}) FeatureProperties {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	fp := FeatureProperties{
		ID:            str(PropID),
		Title:         str(PropTitle),
		TitleFr:       str(PropTitleFr),
		Info:          str(PropInfo),
		InfoFr:        str(PropInfoFr),
		Address:       str(PropAddress),
		PointColor:    str(PropPointColor),
		ImageURL:      str(PropImageURL),
		BrandTitle:    str(PropBrandTitle),
		BrandSubtitle: str(PropBrandSubtitle),
		LocationLabel: str(PropLocationLabel),
		ShortCode:     str(PropShortCode),
		GradientFrom:  str(PropGradientFrom),
		GradientTo:    str(PropGradientTo),
		Website:       str(PropWebsite),
		SocialHandle:  str(PropSocialHandle),
		ZoneName:      str(PropZoneName),
		CategoryID:    str(PropCategoryID),
		Image:         str(PropImage),
		Icon:          str(PropIcon),
	}

	if tags, ok := m[PropTags].([]string); ok {
		fp.Tags = tags
	}
	if sports, ok := m[PropSports].([]Sport); ok {
		fp.Sports = sports
	}

	switch v := m[PropRating].(type) {
	case float64:
		fp.Rating = &v
	case int:
		r := float64(v)
		fp.Rating = &r
	}

	switch v := m[PropSportCount].(type) {
	case int:
		fp.SportCount = &v
	case float64:
		n := int(v)
		fp.SportCount = &n
	}

	return fp
}

// NewPlaceFeature - точка GeoJSON с id места в качестве id фичи
func NewPlaceFeature(p *Place, props FeatureProperties) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{p.Location.Lon(), p.Location.Lat()})
	f.ID = p.ID
	f.Properties = props.ToMap()
	return f
}
