package directions

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/venue-map-service/internal/domain"
)

var stepPopupTmpl = template.Must(template.New("step").Parse(`<div class="route-step">
<div class="route-step__instruction">{{.Instruction}}</div>
<div class="route-step__meta"><span class="route-step__distance">{{.Distance}}</span> · <span class="route-step__duration">{{.Duration}}</span></div>
{{- if .Road}}<div class="route-step__road">{{.Road}}</div>{{end}}
{{- if .Congestion}}<span class="route-step__congestion route-step__congestion--{{.Congestion}}">{{.Congestion}}</span>{{end}}
</div>`))

type stepPopupView struct {
	Instruction string
	Distance    string
	Duration    string
	Road        string
	Congestion  string
}

// FormatDistance - метры в "x.xx km"
func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatDuration - секунды в "n min"
func FormatDuration(seconds float64) string {
	return fmt.Sprintf("%d min", int(math.Round(seconds/60)))
}

func renderStepPopup(step domain.StepDetail) (string, error) {
	view := stepPopupView{
		Instruction: step.Instruction,
		Distance:    FormatDistance(step.Distance),
		Duration:    FormatDuration(step.Duration),
		Road:        step.Name,
	}
	if step.Congestion != "" && step.Congestion != domain.CongestionUnknown {
		view.Congestion = string(step.Congestion)
	}

	var buf bytes.Buffer
	if err := stepPopupTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// turnIcon - иконка маркера шага по типу и направлению маневра
func turnIcon(m domain.ManeuverInfo) string {
	switch m.Type {
	case "depart":
		return "route-depart"
	case "arrive":
		return "route-arrive"
	case "roundabout", "rotary":
		return "route-roundabout"
	}
	if m.Modifier == "" {
		return "turn-straight"
	}
	return "turn-" + strings.ReplaceAll(m.Modifier, " ", "-")
}
