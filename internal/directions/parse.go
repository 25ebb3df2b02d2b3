package directions

import (
	"github.com/paulmach/orb"

	"github.com/venue-map-service/internal/domain"
)

// ParseRoute переводит ответ Directions API в RouteDetails.
// Берется первый маршрут, остальные становятся альтернативами.
func ParseRoute(resp *domain.DirectionsResponse) (*domain.RouteDetails, error) {
	if resp == nil || len(resp.Routes) == 0 {
		return nil, ErrNoRoute
	}

	primary := resp.Routes[0]
	line := toLineString(primary.Geometry.Coordinates)
	if len(line) < 2 {
		return nil, ErrNoRoute
	}

	details := &domain.RouteDetails{
		Distance: primary.Distance,
		Duration: primary.Duration,
		Geometry: line,
	}

	for _, leg := range primary.Legs {
		offset := 0
		for _, s := range leg.Steps {
			var geom orb.LineString
			if s.Geometry != nil {
				geom = toLineString(s.Geometry.Coordinates)
			}
			segments := len(geom) - 1
			if segments < 0 {
				segments = 0
			}

			details.Steps = append(details.Steps, domain.StepDetail{
				Instruction: s.Maneuver.Instruction,
				Location:    toPoint(s.Maneuver.Location),
				Distance:    s.Distance,
				Duration:    s.Duration,
				Name:        s.Name,
				Mode:        s.Mode,
				Geometry:    geom,
				Banner:      s.BannerInstructions,
				Maneuver: domain.ManeuverInfo{
					Type:          s.Maneuver.Type,
					Modifier:      s.Maneuver.Modifier,
					BearingBefore: s.Maneuver.BearingBefore,
					BearingAfter:  s.Maneuver.BearingAfter,
					Exit:          s.Maneuver.Exit,
				},
				Congestion: worstCongestion(leg.Annotation, offset, offset+segments),
			})
			offset += segments
		}
		details.Annotations = mergeAnnotations(details.Annotations, leg.Annotation)
	}

	for _, alt := range resp.Routes[1:] {
		details.Alternatives = append(details.Alternatives, domain.RouteAlternative{
			Distance: alt.Distance,
			Duration: alt.Duration,
			Geometry: toLineString(alt.Geometry.Coordinates),
		})
	}

	return details, nil
}

// worstCongestion - худший уровень на сегментах [from, to)
func worstCongestion(a *domain.RouteAnnotations, from, to int) domain.CongestionLevel {
	worst := domain.CongestionUnknown
	if a == nil {
		return worst
	}
	for i := from; i < to && i < len(a.Congestion); i++ {
		if a.Congestion[i].Rank() > worst.Rank() {
			worst = a.Congestion[i]
		}
	}
	return worst
}

func mergeAnnotations(acc, a *domain.RouteAnnotations) *domain.RouteAnnotations {
	if a == nil {
		return acc
	}
	if acc == nil {
		acc = &domain.RouteAnnotations{}
	}
	acc.Distance = append(acc.Distance, a.Distance...)
	acc.Duration = append(acc.Duration, a.Duration...)
	acc.Speed = append(acc.Speed, a.Speed...)
	acc.Congestion = append(acc.Congestion, a.Congestion...)
	acc.MaxSpeed = append(acc.MaxSpeed, a.MaxSpeed...)
	return acc
}

func toLineString(coords [][]float64) orb.LineString {
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) >= 2 {
			line = append(line, orb.Point{c[0], c[1]})
		}
	}
	return line
}

func toPoint(c []float64) orb.Point {
	if len(c) < 2 {
		return orb.Point{}
	}
	return orb.Point{c[0], c[1]}
}
