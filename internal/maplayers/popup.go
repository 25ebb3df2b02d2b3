package maplayers

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/venue-map-service/internal/domain"
)

// PopupRenderer строит содержимое попапа точки по ее свойствам
type PopupRenderer interface {
	Render(props domain.FeatureProperties) (string, error)
	// Destroy вызывается при закрытии попапа
	Destroy(placeID string)
}

var placePopupTmpl = template.Must(template.New("place").Funcs(template.FuncMap{
	"join": strings.Join,
	"rating": func(r *float64) string {
		return fmt.Sprintf("%.1f", *r)
	},
}).Parse(`<div class="place-popup" data-place-id="{{.ID}}" data-category="{{.CategoryID}}">
{{- if .ImageURL}}<img class="place-popup__image" src="{{.ImageURL}}" alt="{{.Title}}">{{end}}
<div class="place-popup__header"{{if .GradientStyle}} style="{{.GradientStyle}}"{{end}}>
{{- if .ShortCode}}<span class="place-popup__code">{{.ShortCode}}</span>{{end}}
<h3 class="place-popup__title">{{.Title}}</h3>
{{- if .BrandTitle}}<div class="place-popup__brand">{{.BrandTitle}}{{if .BrandSubtitle}} · {{.BrandSubtitle}}{{end}}</div>{{end}}
</div>
{{- if .LocationLabel}}<div class="place-popup__location">{{.LocationLabel}}</div>{{end}}
{{- if .Address}}<div class="place-popup__address">{{.Address}}</div>{{end}}
{{- if .Rating}}<div class="place-popup__rating">★ {{rating .Rating}}</div>{{end}}
{{- if .Info}}<p class="place-popup__info">{{.Info}}</p>{{end}}
{{- if .SportCount}}<div class="place-popup__sports">{{.SportCount}} sports{{range .Sports}} <span class="sport" data-key="{{.Key}}">{{.Label}}</span>{{end}}</div>{{end}}
{{- if .Tags}}<div class="place-popup__tags">{{join .Tags ", "}}</div>{{end}}
{{- if .Website}}<a class="place-popup__website" href="{{.Website}}" target="_blank" rel="noopener">{{.Website}}</a>{{end}}
{{- if .SocialHandle}}<div class="place-popup__social">{{.SocialHandle}}</div>{{end}}
<button class="place-popup__route" data-action="route" data-place-id="{{.ID}}">Directions</button>
</div>`))

type placePopupView struct {
	domain.FeatureProperties
	GradientStyle template.CSS
	SportCount    int
}

// HTMLPopupRenderer - попап точки в виде HTML-фрагмента
type HTMLPopupRenderer struct{}

func NewHTMLPopupRenderer() *HTMLPopupRenderer {
	return &HTMLPopupRenderer{}
}

func (r *HTMLPopupRenderer) Render(props domain.FeatureProperties) (string, error) {
	view := placePopupView{
		FeatureProperties: props,
		SportCount:        props.EffectiveSportCount(),
	}
	if from, to, ok := props.Gradient(); ok && isCSSColor(from) && isCSSColor(to) {
		view.GradientStyle = template.CSS(fmt.Sprintf("background: linear-gradient(135deg, %s, %s)", from, to))
	}

	var buf bytes.Buffer
	if err := placePopupTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render popup for %s: %w", props.ID, err)
	}
	return buf.String(), nil
}

func (r *HTMLPopupRenderer) Destroy(string) {}

// isCSSColor пропускает только #hex и rgb()/rgba()
func isCSSColor(s string) bool {
	if strings.HasPrefix(s, "#") {
		for _, c := range s[1:] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
				return false
			}
		}
		return len(s) == 4 || len(s) == 7 || len(s) == 9
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return !strings.ContainsAny(s, ";{}<>\"'")
	}
	return false
}
