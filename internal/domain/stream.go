package domain

// Stream names
const (
	StreamPlacesChanged     = "stream:places:changed"
	StreamPlacesInvalidated = "stream:places:invalidated"
)

// PlaceAction - что произошло с местом
type PlaceAction string

const (
	PlaceCreated PlaceAction = "created"
	PlaceUpdated PlaceAction = "updated"
	PlaceDeleted PlaceAction = "deleted"
	ZoneChanged  PlaceAction = "zone_changed"
)

// PlaceChangedEvent - событие об изменении мест из админки
type PlaceChangedEvent struct {
	CategoryID string      `json:"category_id"`
	ZoneID     *string     `json:"zone_id,omitempty"`
	PlaceID    *string     `json:"place_id,omitempty"`
	Action     PlaceAction `json:"action"`
}

// Valid - есть категория и известное действие
func (e *PlaceChangedEvent) Valid() bool {
	if e.CategoryID == "" {
		return false
	}
	switch e.Action {
	case PlaceCreated, PlaceUpdated, PlaceDeleted, ZoneChanged:
		return true
	default:
		return false
	}
}

// AffectsZoneList - меняется ли список зон категории
func (e *PlaceChangedEvent) AffectsZoneList() bool {
	return e.Action == ZoneChanged
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
