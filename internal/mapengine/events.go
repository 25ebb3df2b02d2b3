package mapengine

import (
	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
)

// Типы событий карты
const (
	EventLoad       = "load"
	EventStyleLoad  = "style.load"
	EventStyleData  = "styledata"
	EventClick      = "click"
	EventMouseEnter = "mouseenter"
	EventMouseLeave = "mouseleave"
	EventMoveEnd    = "moveend"
	EventRemove     = "remove"
)

// Event - событие карты. Для событий слоя заполнены LayerID и Features.
type Event struct {
	Type     string
	LayerID  string
	LngLat   orb.Point
	Features []*geojson.Feature
}

// Handler - обработчик события
type Handler func(Event)

// HandlerID - для отписки
type HandlerID uint64

type handlerEntry struct {
	id      HandlerID
	event   string
	layerID string
	once    bool
	fn      Handler
}

// handlers - реестр подписок; защищен мьютексом карты
type handlers struct {
	nextID  HandlerID
	entries []handlerEntry
}

func (h *handlers) add(event, layerID string, once bool, fn Handler) HandlerID {
	h.nextID++
	h.entries = append(h.entries, handlerEntry{
		id:      h.nextID,
		event:   event,
		layerID: layerID,
		once:    once,
		fn:      fn,
	})
	return h.nextID
}

func (h *handlers) remove(id HandlerID) {
	for i, e := range h.entries {
		if e.id == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

// match возвращает обработчики события и снимает одноразовые.
// Глобальные обработчики получают и события слоев.
func (h *handlers) match(ev Event) []Handler {
	var out []Handler
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.event == ev.Type && (e.layerID == "" || e.layerID == ev.LayerID) {
			out = append(out, e.fn)
			if e.once {
				continue
			}
		}
		kept = append(kept, e)
	}
	h.entries = kept
	return out
}

// dropLayerScoped снимает подписки на слои: после смены стиля слоев больше нет
func (h *handlers) dropLayerScoped() {
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.layerID == "" {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

func (h *handlers) count(event, layerID string) int {
	n := 0
	for _, e := range h.entries {
		if e.event == event && e.layerID == layerID {
			n++
		}
	}
	return n
}
