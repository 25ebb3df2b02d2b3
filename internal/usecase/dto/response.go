package dto

import (
	"time"

	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/mapengine"
)

// SessionResponse - состояние сессии карты
type SessionResponse struct {
	ID       string           `json:"id"`
	State    string           `json:"state"`
	Camera   mapengine.Camera `json:"camera"`
	StyleURL string           `json:"style_url"`
	HasRoute bool             `json:"has_route"`
}

// RouteResponse - активный маршрут
type RouteResponse struct {
	HasRoute bool                 `json:"has_route"`
	Summary  *domain.RouteSummary `json:"summary,omitempty"`
	Details  *domain.RouteDetails `json:"details,omitempty"`
}

// SelectionResponse - выбранная точка и состояние анимации
type SelectionResponse struct {
	Category    string  `json:"category,omitempty"`
	PlaceID     *string `json:"place_id,omitempty"`
	Highlighted bool    `json:"highlighted"`
	Bounce      string  `json:"bounce"`
}

// VisibilityResponse - видимость категорий
type VisibilityResponse struct {
	Categories map[string]bool `json:"categories"`
}

// GeocodeResponse - результаты поиска
type GeocodeResponse struct {
	Results []domain.GeocodeResult `json:"results"`
}

// PositionResponse - принято ли положение устройства
type PositionResponse struct {
	Accepted bool `json:"accepted"`
}

// NotificationResponse - уведомление для клиента
type NotificationResponse struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// HealthResponse - состояние зависимостей
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Sessions int               `json:"sessions"`
	Time     time.Time         `json:"time"`
}
