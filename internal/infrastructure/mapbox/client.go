package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/venue-map-service/internal/config"
	"github.com/venue-map-service/internal/domain"
	"github.com/venue-map-service/internal/domain/repository"
)

const (
	codeOK      = "Ok"
	codeNoRoute = "NoRoute"

	defaultGeocodeLimit = 5
)

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	profile     string
	language    string
	country     string
	logger      *zap.Logger
}

// NewMapboxClient создает новый клиент для Mapbox API
func NewMapboxClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.MapboxRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		profile:     cfg.DirectionsProfile,
		language:    cfg.Language,
		country:     cfg.GeocodingCountry,
		logger:      logger,
	}
}

// GetDirections возвращает маршрут с шагами, аннотациями и альтернативами
func (c *client) GetDirections(ctx context.Context, origin, destination orb.Point) (*domain.DirectionsResponse, error) {
	coords := formatCoord(origin) + ";" + formatCoord(destination)

	query := url.Values{}
	query.Set("steps", "true")
	query.Set("alternatives", "true")
	query.Set("geometries", "geojson")
	query.Set("overview", "full")
	query.Set("annotations", "distance,duration,speed,congestion,maxspeed")
	query.Set("banner_instructions", "true")
	query.Set("voice_instructions", "true")
	query.Set("voice_units", "metric")
	query.Set("language", c.language)

	endpoint := fmt.Sprintf("%s/directions/v5/%s/%s", c.baseURL, c.profile, coords)

	c.logger.Debug("Calling Mapbox Directions API",
		zap.String("profile", c.profile),
		zap.String("coordinates", coords))

	var resp domain.DirectionsResponse
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		return nil, err
	}

	// NoRoute - не ошибка транспорта, решение принимает вызывающий
	if resp.Code != codeOK && resp.Code != codeNoRoute {
		c.logger.Error("Mapbox API returned non-OK code",
			zap.String("code", resp.Code),
			zap.String("message", resp.Message))
		return nil, fmt.Errorf("mapbox API returned code: %s", resp.Code)
	}

	c.logger.Debug("Mapbox Directions API call successful",
		zap.Int("routes", len(resp.Routes)))

	return &resp, nil
}

// ForwardGeocode ищет места по строке (Geocoding API v5, mapbox.places)
func (c *client) ForwardGeocode(ctx context.Context, search string, opts repository.GeocodeOptions) ([]domain.GeocodeResult, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil, fmt.Errorf("geocoding query cannot be empty")
	}

	query := url.Values{}
	country := opts.Country
	if country == "" {
		country = c.country
	}
	if country != "" {
		query.Set("country", country)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultGeocodeLimit
	}
	query.Set("limit", strconv.Itoa(limit))
	if opts.Proximity != nil {
		query.Set("proximity", formatCoord(*opts.Proximity))
	}
	if c.language != "" {
		query.Set("language", c.language)
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", c.baseURL, url.PathEscape(search))

	var resp domain.GeocodeResponse
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("Mapbox Geocoding API call successful",
		zap.String("query", search),
		zap.Int("results", len(resp.Features)))

	return resp.Features, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	query.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func formatCoord(p orb.Point) string {
	return strconv.FormatFloat(p.Lon(), 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', 6, 64)
}
