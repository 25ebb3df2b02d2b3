package places

import (
	"encoding/json"
	"fmt"

	"github.com/venue-map-service/internal/domain"
)

// parseEvent разбирает PlaceChangedEvent из поля data сообщения
func parseEvent(msg domain.StreamMessage) (*domain.PlaceChangedEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("empty 'data' field")
	}

	var event domain.PlaceChangedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if !event.Valid() {
		return nil, fmt.Errorf("invalid event: category=%q action=%q", event.CategoryID, event.Action)
	}
	return &event, nil
}
