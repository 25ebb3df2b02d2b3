package maplayers_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/maplayers"
)

func TestHTMLPopupRenderer_Render(t *testing.T) {
	rating := 4.3
	props := domain.FeatureProperties{
		ID:           "place-42",
		Title:        "Stade <Léopold>",
		Address:      "Route de l'Aéroport",
		Rating:       &rating,
		Tags:         []string{"football", "athletics"},
		Sports:       []domain.Sport{{Key: "fb", Label: "Football"}},
		GradientFrom: "#E91E63",
		GradientTo:   "#12B76A",
		CategoryID:   "competition",
	}

	html, err := maplayers.NewHTMLPopupRenderer().Render(props)
	require.NoError(t, err)

	assert.Contains(t, html, `data-place-id="place-42"`)
	assert.Contains(t, html, "Stade &lt;Léopold&gt;")
	assert.Contains(t, html, "★ 4.3")
	assert.Contains(t, html, "1 sports")
	assert.Contains(t, html, "football, athletics")
	assert.Contains(t, html, "linear-gradient(135deg, #E91E63, #12B76A)")
	assert.Contains(t, html, `data-action="route"`)
}

func TestHTMLPopupRenderer_RejectsUnsafeGradient(t *testing.T) {
	props := domain.FeatureProperties{
		ID:           "p",
		Title:        "x",
		GradientFrom: "red;background:url(evil)",
		GradientTo:   "#fff",
	}

	html, err := maplayers.NewHTMLPopupRenderer().Render(props)
	require.NoError(t, err)
	assert.False(t, strings.Contains(html, "evil"))
	assert.NotContains(t, html, "linear-gradient")
}
