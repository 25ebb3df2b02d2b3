package dto

import "time"

// LngLat - координаты точки
type LngLat struct {
	Lng float64 `json:"lng" validate:"longitude"`
	Lat float64 `json:"lat" validate:"latitude"`
}

// CreateSessionRequest - параметры новой карты
type CreateSessionRequest struct {
	Container string `json:"container" validate:"omitempty,max=64"`
	Mobile    bool   `json:"mobile"`
	Width     int    `json:"width" validate:"omitempty,min=1,max=8192"`
	Height    int    `json:"height" validate:"omitempty,min=1,max=8192"`
}

// RouteRequest - маршрут до места; без origin берется положение пользователя
type RouteRequest struct {
	Origin      *LngLat `json:"origin,omitempty"`
	Destination LngLat  `json:"destination"`
}

// BasemapRequest - смена подложки
type BasemapRequest struct {
	Basemap string `json:"basemap" validate:"required"`
}

// SelectionRequest - выделение точки категории; без place_id выделение снимается
type SelectionRequest struct {
	Category string  `json:"category" validate:"required,slug"`
	PlaceID  *string `json:"place_id,omitempty" validate:"omitempty,min=1,max=128"`
}

// VisibilityRequest - показать или скрыть категорию
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// ClickRequest - событие пользователя на слое
type ClickRequest struct {
	Event     string `json:"event" validate:"required,oneof=click mouseenter mouseleave"`
	Layer     string `json:"layer" validate:"required,max=256"`
	FeatureID string `json:"feature_id,omitempty" validate:"omitempty,max=128"`
	ClusterID *int   `json:"cluster_id,omitempty" validate:"omitempty,min=0"`
}

// PositionRequest - положение устройства или отказ в нем
type PositionRequest struct {
	Lng         float64    `json:"lng" validate:"longitude"`
	Lat         float64    `json:"lat" validate:"latitude"`
	Accuracy    float64    `json:"accuracy,omitempty" validate:"omitempty,min=0"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Unavailable bool       `json:"unavailable"`
}

// GeocodeSearchRequest - строка поиска
type GeocodeSearchRequest struct {
	Query string `json:"q" validate:"required,min=2,max=256"`
}

// GeocodeSelectRequest - выбранный результат поиска
type GeocodeSelectRequest struct {
	ID        string `json:"id" validate:"omitempty,max=256"`
	PlaceName string `json:"place_name" validate:"omitempty,max=512"`
	Center    LngLat `json:"center"`
}
