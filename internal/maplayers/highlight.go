package maplayers

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/mapengine"
	"github.com/venue-map-service/internal/pkg/frames"
)

const (
	highlightMaxRetries = 8
	highlightMaxWait    = 250 * time.Millisecond

	clusteredMarker = "-clustered-"
)

// ClusterLayers - текущие слои точек и ореолов всех кластерных источников
type ClusterLayers struct {
	Symbols []string
	Halos   []string
}

func (cl ClusterLayers) Empty() bool {
	return len(cl.Symbols) == 0 && len(cl.Halos) == 0
}

// MatchClusterLayers находит слои точек и ореолов по схеме имен кластерных слоев
func MatchClusterLayers(style mapengine.Style) ClusterLayers {
	var out ClusterLayers
	for _, l := range style.Layers {
		if !strings.Contains(l.ID, clusteredMarker) {
			continue
		}
		switch {
		case strings.HasSuffix(l.ID, SuffixSymbols):
			out.Symbols = append(out.Symbols, l.ID)
		case strings.HasSuffix(l.ID, SuffixSelectedHalo):
			out.Halos = append(out.Halos, l.ID)
		}
	}
	return out
}

// HaloFilter пропускает одну точку (не кластер) с данным id; пустой id не совпадает ни с чем
func HaloFilter(placeID string) mapengine.Expr {
	return mapengine.All(
		mapengine.Not(mapengine.Has(mapengine.PropPointCount)),
		mapengine.Eq(mapengine.Get(domain.PropID), placeID),
	)
}

func DefaultIconSize() mapengine.Expr {
	return mapengine.InterpolateZoom(10, 0.9, 14, 1.1, 16, 1.25)
}

func DefaultHaloRadius() mapengine.Expr {
	return mapengine.InterpolateZoom(10, 10, 14, 14, 16, 18)
}

// HighlightIconSize увеличивает выбранную точку, остальные без изменений
func HighlightIconSize(placeID string) mapengine.Expr {
	sel := mapengine.Eq(mapengine.Get(domain.PropID), placeID)
	return mapengine.InterpolateZoom(
		10, mapengine.Case(sel, 1.3, 0.9),
		14, mapengine.Case(sel, 1.6, 1.1),
		16, mapengine.Case(sel, 1.8, 1.25),
	)
}

// Highlighter выделяет точку на карте. Если слои еще не построены,
// повторяет попытку на следующих кадрах в пределах лимита попыток и времени.
type Highlighter struct {
	m      mapengine.Map
	sched  frames.Scheduler
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	pending frames.FrameID
	gen     uint64
}

func NewHighlighter(m mapengine.Map, sched frames.Scheduler, now func() time.Time, logger *zap.Logger) *Highlighter {
	if now == nil {
		now = time.Now
	}
	return &Highlighter{
		m:      m,
		sched:  sched,
		now:    now,
		logger: logger,
	}
}

// Highlight выделяет placeID на всех кластерных слоях; nil снимает выделение.
// Возвращает true, если слои нашлись сразу.
func (h *Highlighter) Highlight(categoryID string, placeID *string) bool {
	h.mu.Lock()
	if h.pending != 0 {
		h.sched.CancelFrame(h.pending)
		h.pending = 0
	}
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	if h.apply(placeID) {
		return true
	}

	start := h.now()
	attempt := 1

	var retry frames.Callback
	retry = func(now time.Time) {
		h.mu.Lock()
		stale := gen != h.gen
		if !stale {
			h.pending = 0
		}
		h.mu.Unlock()
		if stale {
			return
		}

		if h.apply(placeID) {
			return
		}
		attempt++
		if attempt > highlightMaxRetries || now.Sub(start) >= highlightMaxWait {
			h.logger.Warn("Highlight gave up: no cluster layers",
				zap.String("map_id", h.m.ID()),
				zap.String("category", categoryID),
				zap.Int("attempts", attempt),
			)
			return
		}
		h.schedule(gen, retry)
	}
	h.schedule(gen, retry)
	return false
}

func (h *Highlighter) schedule(gen uint64, cb frames.Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen == h.gen {
		h.pending = h.sched.RequestFrame(cb)
	}
}

// Cancel отменяет отложенную попытку
func (h *Highlighter) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gen++
	if h.pending != 0 {
		h.sched.CancelFrame(h.pending)
		h.pending = 0
	}
}

func (h *Highlighter) apply(placeID *string) bool {
	layers := MatchClusterLayers(h.m.Style())
	if layers.Empty() {
		return false
	}

	id := ""
	if placeID != nil {
		id = *placeID
	}

	for _, halo := range layers.Halos {
		if err := h.m.SetFilter(halo, HaloFilter(id)); err != nil {
			h.logger.Debug("Failed to set halo filter", zap.String("layer", halo), zap.Error(err))
		}
	}

	size := DefaultIconSize()
	if id != "" {
		size = HighlightIconSize(id)
	}
	for _, sym := range layers.Symbols {
		if err := h.m.SetLayoutProperty(sym, "icon-size", size); err != nil {
			h.logger.Debug("Failed to set icon size", zap.String("layer", sym), zap.Error(err))
		}
	}
	return true
}
