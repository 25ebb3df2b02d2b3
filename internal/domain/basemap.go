package domain

import "sort"

// BasemapID - идентификатор подложки
type BasemapID string

const (
	BasemapStreets         BasemapID = "mapbox-streets"
	BasemapOutdoors        BasemapID = "mapbox-outdoors"
	BasemapLight           BasemapID = "mapbox-light"
	BasemapDark            BasemapID = "mapbox-dark"
	BasemapSatellite       BasemapID = "mapbox-satellite"
	BasemapNavigationDay   BasemapID = "mapbox-navigation-day"
	BasemapNavigationNight BasemapID = "mapbox-navigation-night"
)

var basemapStyles = map[BasemapID]string{
	BasemapStreets:         "mapbox://styles/mapbox/streets-v12",
	BasemapOutdoors:        "mapbox://styles/mapbox/outdoors-v12",
	BasemapLight:           "mapbox://styles/mapbox/light-v11",
	BasemapDark:            "mapbox://styles/mapbox/dark-v11",
	BasemapSatellite:       "mapbox://styles/mapbox/satellite-streets-v12",
	BasemapNavigationDay:   "mapbox://styles/mapbox/navigation-day-v1",
	BasemapNavigationNight: "mapbox://styles/mapbox/navigation-night-v1",
}

// Basemap - элемент каталога подложек
type Basemap struct {
	ID       BasemapID `json:"id"`
	StyleURL string    `json:"style_url"`
}

// StyleURL возвращает URL стиля для подложки
func (id BasemapID) StyleURL() (string, bool) {
	url, ok := basemapStyles[id]
	return url, ok
}

// Basemaps - весь каталог, отсортированный по id
func Basemaps() []Basemap {
	out := make([]Basemap, 0, len(basemapStyles))
	for id, url := range basemapStyles {
		out = append(out, Basemap{ID: id, StyleURL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
