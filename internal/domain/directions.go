package domain

import "encoding/json"

// DirectionsResponse - ответ Mapbox Directions API v5
type DirectionsResponse struct {
	Code      string               `json:"code"`
	Message   string               `json:"message,omitempty"`
	Routes    []DirectionsRoute    `json:"routes"`
	Waypoints []DirectionsWaypoint `json:"waypoints,omitempty"`
	UUID      string               `json:"uuid,omitempty"`
}

type DirectionsRoute struct {
	Distance   float64         `json:"distance"`
	Duration   float64         `json:"duration"`
	Weight     float64         `json:"weight,omitempty"`
	WeightName string          `json:"weight_name,omitempty"`
	Geometry   LineGeometry    `json:"geometry"`
	Legs       []DirectionsLeg `json:"legs"`
}

// LineGeometry - geometries=geojson
type LineGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type DirectionsLeg struct {
	Distance   float64           `json:"distance"`
	Duration   float64           `json:"duration"`
	Summary    string            `json:"summary,omitempty"`
	Steps      []DirectionsStep  `json:"steps"`
	Annotation *RouteAnnotations `json:"annotation,omitempty"`
}

type DirectionsStep struct {
	Distance           float64            `json:"distance"`
	Duration           float64            `json:"duration"`
	Name               string             `json:"name"`
	Mode               string             `json:"mode"`
	Geometry           *LineGeometry      `json:"geometry,omitempty"`
	Maneuver           DirectionsManeuver `json:"maneuver"`
	BannerInstructions json.RawMessage    `json:"bannerInstructions,omitempty"`
	VoiceInstructions  json.RawMessage    `json:"voiceInstructions,omitempty"`
}

type DirectionsManeuver struct {
	Type          string    `json:"type"`
	Modifier      string    `json:"modifier,omitempty"`
	Instruction   string    `json:"instruction"`
	Location      []float64 `json:"location"`
	BearingBefore float64   `json:"bearing_before"`
	BearingAfter  float64   `json:"bearing_after"`
	Exit          *int      `json:"exit,omitempty"`
}

type DirectionsWaypoint struct {
	Name     string    `json:"name"`
	Location []float64 `json:"location"`
}

// GeocodeResult - результат прямого геокодирования
type GeocodeResult struct {
	ID         string    `json:"id"`
	PlaceName  string    `json:"place_name"`
	Text       string    `json:"text"`
	Center     []float64 `json:"center"`
	PlaceType  []string  `json:"place_type,omitempty"`
	Relevance  float64   `json:"relevance,omitempty"`
	DistanceKm float64   `json:"distance_km,omitempty"`
}

// GeocodeResponse - ответ Mapbox Geocoding API v5
type GeocodeResponse struct {
	Type     string          `json:"type"`
	Query    []interface{}   `json:"query"`
	Features []GeocodeResult `json:"features"`
}
