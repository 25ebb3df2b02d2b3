package errors

import "net/http"

var (
	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Map session not found",
		http.StatusNotFound,
	)

	ErrMapNotInitialized = New(
		"MAP_NOT_INITIALIZED",
		"Map is not initialized",
		http.StatusConflict,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidBasemap = New(
		"INVALID_BASEMAP",
		"Unknown basemap",
		http.StatusBadRequest,
	)

	ErrUnknownCategory = New(
		"UNKNOWN_CATEGORY",
		"Unknown place category",
		http.StatusBadRequest,
	)

	ErrDirectionsFailed = New(
		"DIRECTIONS_FAILED",
		"Directions request failed",
		http.StatusBadGateway,
	)

	ErrNoRoute = New(
		"NO_ROUTE",
		"No route found",
		http.StatusNotFound,
	)

	ErrGeocodingFailed = New(
		"GEOCODING_FAILED",
		"Geocoding request failed",
		http.StatusBadGateway,
	)

	ErrZoneNotFound = New(
		"ZONE_NOT_FOUND",
		"Zone not found",
		http.StatusNotFound,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
