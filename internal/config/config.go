package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
	Mapbox   MapboxConfig
	Map      MapConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	CORSOrigins  string
	SessionIdle  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	PlacesCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
	BatchSize         int
}

// MapboxConfig - доступ к Directions и Geocoding API
type MapboxConfig struct {
	AccessToken       string
	BaseURL           string
	DirectionsProfile string
	Language          string
	GeocodingCountry  string
	RequestTimeout    time.Duration
}

// MapConfig - параметры карты, общие для всех сессий
type MapConfig struct {
	InitialCenterLon  float64
	InitialCenterLat  float64
	InitialZoom       float64
	MobileInitialZoom float64
	StyleURL          string

	UseDummyLocation   bool
	DummyLon           float64
	DummyLat           float64
	GeolocationTimeout time.Duration
	GeolocationMaxAge  time.Duration

	AssetsBaseURL   string
	MarkerCacheSize int
	FrameRate       int
	ViewportWidth   int
	ViewportHeight  int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// .env опционален: в контейнере все приходит из окружения
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("API_HOST"),
			Port:         viper.GetInt("API_PORT"),
			Env:          viper.GetString("API_ENV"),
			CORSOrigins:  viper.GetString("API_CORS_ORIGINS"),
			SessionIdle:  time.Duration(viper.GetInt("API_SESSION_IDLE")) * time.Second,
			ReadTimeout:  time.Duration(viper.GetInt("API_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("API_WRITE_TIMEOUT")) * time.Second,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			PlacesCacheTTL: time.Duration(viper.GetInt("PLACES_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
			BatchSize:         viper.GetInt("WORKER_BATCH_SIZE"),
		},
		Mapbox: MapboxConfig{
			AccessToken:       viper.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:           viper.GetString("MAPBOX_BASE_URL"),
			DirectionsProfile: viper.GetString("MAPBOX_DIRECTIONS_PROFILE"),
			Language:          viper.GetString("MAPBOX_LANGUAGE"),
			GeocodingCountry:  viper.GetString("MAPBOX_GEOCODING_COUNTRY"),
			RequestTimeout:    time.Duration(viper.GetInt("MAPBOX_REQUEST_TIMEOUT")) * time.Millisecond,
		},
		Map: MapConfig{
			InitialCenterLon:   viper.GetFloat64("MAP_INITIAL_CENTER_LON"),
			InitialCenterLat:   viper.GetFloat64("MAP_INITIAL_CENTER_LAT"),
			InitialZoom:        viper.GetFloat64("MAP_INITIAL_ZOOM"),
			MobileInitialZoom:  viper.GetFloat64("MAP_MOBILE_INITIAL_ZOOM"),
			StyleURL:           viper.GetString("MAP_STYLE_URL"),
			UseDummyLocation:   viper.GetBool("MAP_USE_DUMMY_LOCATION"),
			DummyLon:           viper.GetFloat64("MAP_DUMMY_LON"),
			DummyLat:           viper.GetFloat64("MAP_DUMMY_LAT"),
			GeolocationTimeout: time.Duration(viper.GetInt("MAP_GEOLOCATION_TIMEOUT")) * time.Millisecond,
			GeolocationMaxAge:  time.Duration(viper.GetInt("MAP_GEOLOCATION_MAX_AGE")) * time.Millisecond,
			AssetsBaseURL:      viper.GetString("MAP_ASSETS_BASE_URL"),
			MarkerCacheSize:    viper.GetInt("MAP_MARKER_CACHE_SIZE"),
			FrameRate:          viper.GetInt("MAP_FRAME_RATE"),
			ViewportWidth:      viper.GetInt("MAP_VIEWPORT_WIDTH"),
			ViewportHeight:     viper.GetInt("MAP_VIEWPORT_HEIGHT"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Path:    viper.GetString("METRICS_PATH"),
		},
	}

	return cfg, nil
}

// setDefaults заполняет значения, которых нет ни в .env, ни в окружении
func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "development")
	viper.SetDefault("API_SESSION_IDLE", 1800)
	viper.SetDefault("API_READ_TIMEOUT", 10)
	viper.SetDefault("API_WRITE_TIMEOUT", 30)
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("PLACES_CACHE_TTL", 300)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("WORKER_ENABLED", true)
	viper.SetDefault("WORKER_CONSUMER_GROUP", "venue-map-workers")
	viper.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	viper.SetDefault("WORKER_MAX_RETRIES", 3)
	viper.SetDefault("WORKER_BATCH_SIZE", 10)

	viper.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com")
	viper.SetDefault("MAPBOX_DIRECTIONS_PROFILE", "mapbox/driving-traffic")
	viper.SetDefault("MAPBOX_LANGUAGE", "en")
	viper.SetDefault("MAPBOX_GEOCODING_COUNTRY", "sn")
	viper.SetDefault("MAPBOX_REQUEST_TIMEOUT", 10000)

	viper.SetDefault("MAP_INITIAL_CENTER_LON", -17.194)
	viper.SetDefault("MAP_INITIAL_CENTER_LAT", 14.583)
	viper.SetDefault("MAP_INITIAL_ZOOM", 10.12)
	viper.SetDefault("MAP_MOBILE_INITIAL_ZOOM", 8.2)
	viper.SetDefault("MAP_STYLE_URL", "mapbox://styles/mapbox/streets-v11")
	viper.SetDefault("MAP_USE_DUMMY_LOCATION", false)
	viper.SetDefault("MAP_DUMMY_LON", -17.4467)
	viper.SetDefault("MAP_DUMMY_LAT", 14.6928)
	viper.SetDefault("MAP_GEOLOCATION_TIMEOUT", 8000)
	viper.SetDefault("MAP_GEOLOCATION_MAX_AGE", 30000)
	viper.SetDefault("MAP_ASSETS_BASE_URL", "http://localhost:3000")
	viper.SetDefault("MAP_MARKER_CACHE_SIZE", 64)
	viper.SetDefault("MAP_FRAME_RATE", 60)
	viper.SetDefault("MAP_VIEWPORT_WIDTH", 1280)
	viper.SetDefault("MAP_VIEWPORT_HEIGHT", 800)

	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_PATH", "/metrics")
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// FrameInterval - длительность одного кадра анимации
func (m MapConfig) FrameInterval() time.Duration {
	if m.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(m.FrameRate)
}
