package domain

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// CongestionLevel - уровень загруженности участка
type CongestionLevel string

const (
	CongestionUnknown  CongestionLevel = "unknown"
	CongestionLow      CongestionLevel = "low"
	CongestionModerate CongestionLevel = "moderate"
	CongestionHeavy    CongestionLevel = "heavy"
	CongestionSevere   CongestionLevel = "severe"
)

// Rank - порядок уровней для выбора худшего на шаге
func (c CongestionLevel) Rank() int {
	switch c {
	case CongestionLow:
		return 1
	case CongestionModerate:
		return 2
	case CongestionHeavy:
		return 3
	case CongestionSevere:
		return 4
	default:
		return 0
	}
}

// MaxSpeed - ограничение скорости на сегменте
type MaxSpeed struct {
	Unknown bool    `json:"unknown,omitempty"`
	None    bool    `json:"none,omitempty"`
	Unit    string  `json:"unit,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
}

// RouteAnnotations - посегментные аннотации маршрута
type RouteAnnotations struct {
	Distance   []float64         `json:"distance,omitempty"`
	Duration   []float64         `json:"duration,omitempty"`
	Speed      []float64         `json:"speed,omitempty"`
	Congestion []CongestionLevel `json:"congestion,omitempty"`
	MaxSpeed   []*MaxSpeed       `json:"maxspeed,omitempty"`
}

// ManeuverInfo - метаданные маневра шага
type ManeuverInfo struct {
	Type          string  `json:"type,omitempty"`
	Modifier      string  `json:"modifier,omitempty"`
	BearingBefore float64 `json:"bearing_before"`
	BearingAfter  float64 `json:"bearing_after"`
	Exit          *int    `json:"exit,omitempty"`
}

// StepDetail - один шаг маршрута
type StepDetail struct {
	Instruction string          `json:"instruction"`
	Location    orb.Point       `json:"location"`
	Distance    float64         `json:"distance"`
	Duration    float64         `json:"duration"`
	Name        string          `json:"name,omitempty"`
	Mode        string          `json:"mode,omitempty"`
	Geometry    orb.LineString  `json:"geometry,omitempty"`
	Banner      json.RawMessage `json:"banner,omitempty"`
	Maneuver    ManeuverInfo    `json:"maneuver"`
	Congestion  CongestionLevel `json:"congestion"`
}

// RouteAlternative - сводка по альтернативному маршруту
type RouteAlternative struct {
	Distance float64        `json:"distance"`
	Duration float64        `json:"duration"`
	Geometry orb.LineString `json:"geometry"`
}

// RouteDetails - последний построенный маршрут
type RouteDetails struct {
	Distance     float64            `json:"distance"`
	Duration     float64            `json:"duration"`
	Geometry     orb.LineString     `json:"geometry"`
	Steps        []StepDetail       `json:"steps"`
	Annotations  *RouteAnnotations  `json:"annotations,omitempty"`
	Alternatives []RouteAlternative `json:"alternatives,omitempty"`
}

// Summary - только расстояние и длительность
func (d *RouteDetails) Summary() RouteSummary {
	return RouteSummary{Distance: d.Distance, Duration: d.Duration}
}

// RouteSummary - краткая сводка маршрута
type RouteSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

// RouteEndpoints - концы последнего маршрута, нужны для перерисовки после смены подложки
type RouteEndpoints struct {
	From orb.Point `json:"from"`
	To   orb.Point `json:"to"`
}
