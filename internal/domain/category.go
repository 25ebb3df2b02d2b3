package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category - элемент закрытого справочника категорий мест
type Category struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	Prefix           string `json:"prefix"`
	MarkerPath       string `json:"marker_path"`
	MakiIcon         string `json:"maki_icon"`
	InitiallyVisible bool   `json:"initially_visible"`
}

const (
	DefaultMarkerPath = "/markers/pin.png"
	DefaultMakiIcon   = "marker-15"
)

// Categories - порядок совпадает с порядком запуска построителей слоев
var Categories = []Category{
	{ID: "competition", Label: "Competition venues", Prefix: "comp-", MarkerPath: "/markers/stadium.png", MakiIcon: "stadium-15", InitiallyVisible: true},
	{ID: "hotels", Label: "Hotels", Prefix: "hotel-", MarkerPath: "/markers/hotel.png", MakiIcon: "lodging-15"},
	{ID: "restaurants", Label: "Restaurants", Prefix: "rest-", MarkerPath: "/markers/restaurants.png", MakiIcon: "lodging-15"},
	{ID: "artworks", Label: "Artworks", Prefix: "artworks-", MarkerPath: "/markers/artworks.png"},
	{ID: "attraction", Label: "Attractions", Prefix: "attraction-", MarkerPath: "/markers/attraction.png"},
	{ID: "castle", Label: "Castles", Prefix: "castle-", MarkerPath: "/markers/castle.png"},
	{ID: "church", Label: "Churches", Prefix: "church-", MarkerPath: "/markers/church.png"},
	{ID: "gallery", Label: "Galleries", Prefix: "gallery-", MarkerPath: "/markers/gallery.png"},
	{ID: "memorial", Label: "Memorials", Prefix: "memorial-", MarkerPath: "/markers/memorial.png"},
	{ID: "monument", Label: "Monuments", Prefix: "monument-", MarkerPath: "/markers/monument.png"},
	{ID: "mosque", Label: "Mosques", Prefix: "mosque-", MarkerPath: "/markers/mosque.png"},
	{ID: "museum", Label: "Museums", Prefix: "museum-", MarkerPath: "/markers/museum.png"},
	{ID: "viewpoints", Label: "Viewpoints", Prefix: "viewpoints-", MarkerPath: "/markers/viewpoints.png"},
	{ID: "zoo", Label: "Zoos", Prefix: "zoo-", MarkerPath: "/markers/zoo.png"},
	{ID: "hospitals", Label: "Hospitals", Prefix: "hosp-", MarkerPath: "/markers/hospital.png", MakiIcon: "hospital-15"},
	{ID: "transport", Label: "Transport", Prefix: "trans-", MarkerPath: "/markers/transport.png", MakiIcon: "stadium-15"},
	{ID: "police", Label: "Police", Prefix: "pol-", MarkerPath: "/markers/security.png"},
	{ID: "bank", Label: "Banks", Prefix: "ban-", MarkerPath: "/markers/bank.png", MakiIcon: "bank-15"},
	{ID: "atm", Label: "ATMs", Prefix: "atm-", MarkerPath: "/markers/atm.png"},
	{ID: "firestation", Label: "Fire stations", Prefix: "fires-", MarkerPath: "/markers/fires.png"},
	{ID: "embassy", Label: "Embassies", Prefix: "embassy-", MarkerPath: "/markers/embassy.png"},
	{ID: "consulate", Label: "Consulates", Prefix: "consulate-", MarkerPath: "/markers/consulate.png"},
	{ID: "airport", Label: "Airports", Prefix: "airport-", MarkerPath: "/markers/airport.png"},
	{ID: "bus", Label: "Bus stations", Prefix: "bus-", MarkerPath: "/markers/bus.png"},
	{ID: "ferry", Label: "Ferry terminals", Prefix: "ferry-", MarkerPath: "/markers/ferry.png"},
	{ID: "railway", Label: "Railway stations", Prefix: "railway-", MarkerPath: "/markers/railway.png"},
}

var categoryIndex = func() map[string]Category {
	idx := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		idx[c.ID] = c
	}
	return idx
}()

// CategoryByID ищет категорию без учета регистра
func CategoryByID(id string) (Category, bool) {
	c, ok := categoryIndex[strings.ToLower(id)]
	return c, ok
}

// Marker - путь к картинке маркера, с запасным pin.png
func (c Category) Marker() string {
	if c.MarkerPath == "" {
		return DefaultMarkerPath
	}
	return c.MarkerPath
}

// Icon - встроенная иконка maki
func (c Category) Icon() string {
	if c.MakiIcon == "" {
		return DefaultMakiIcon
	}
	return c.MakiIcon
}

// ClusterSourceID - id кластерного источника категории для зоны
func (c Category) ClusterSourceID(zoneName string) string {
	return c.SourceID(zoneName) + "-clustered"
}

// SourceID - id обычного (некластерного) источника
func (c Category) SourceID(zoneName string) string {
	return c.Prefix + Slugify(zoneName) + "-sites"
}

// OwnsLayer - принадлежит ли слой кластерам этой категории
func (c Category) OwnsLayer(layerID string) bool {
	return strings.HasPrefix(layerID, c.Prefix) && strings.Contains(layerID, "-clustered-")
}

var slugTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify: без диакритики, без спецсимволов, нижний регистр, пробелы в дефисы
func Slugify(s string) string {
	plain, _, err := transform.String(slugTransformer, s)
	if err != nil {
		plain = s
	}

	var b strings.Builder
	for _, r := range plain {
		if r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(strings.ToLower(b.String())), "-")
}
