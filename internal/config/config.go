package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	LogLevel  slog.Level
	HTTPAddr  string
	SiteTitle string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogQueries      bool

	GageBaseURL    string
	GageSite       string
	GageHeightCode string
	WaterTempCode  string

	WeatherBaseURL   string
	WeatherLatitude  float64
	WeatherLongitude float64

	UpstreamTimeout time.Duration
	HistoryHours    int

	// MQTTBroker empty disables snapshot publishing.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// Load reads an optional .env file from the working directory and then the
// environment. Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv()
}

func LoadFromEnv() (Config, error) {
	appEnv := getenv("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		LogLevel:       level,
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		SiteTitle:      getenv("SITE_TITLE", "Shaggy Tree River Watch"),
		SQLiteDriver:   getenv("SQLITE_DRIVER", "sqlite3"),
		SQLiteDSN:      getenv("SQLITE_DSN", ""),
		SQLitePath:     getenv("SQLITE_PATH", "levels.sqlite"),
		GageBaseURL:    getenv("GAGE_BASE_URL", "https://waterservices.usgs.gov/nwis/iv/"),
		GageSite:       getenv("GAGE_SITE", "09429100"),
		GageHeightCode: getenv("GAGE_HEIGHT_CODE", "00065"),
		WaterTempCode:  getenv("WATER_TEMP_CODE", "00010"),
		WeatherBaseURL: getenv("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		MQTTBroker:     getenv("MQTT_BROKER", ""),
		MQTTClientID:   getenv("MQTT_CLIENT_ID", "riverwatch-"+uuid.NewString()),
		MQTTTopic:      getenv("MQTT_TOPIC", "riverwatch/snapshots"),
	}

	if cfg.SQLiteMaxOpenConns, err = intEnv("SQLITE_MAX_OPEN_CONNS", 1); err != nil {
		return Config{}, err
	}
	if cfg.SQLiteMaxIdleConns, err = intEnv("SQLITE_MAX_IDLE_CONNS", 1); err != nil {
		return Config{}, err
	}
	if cfg.SQLiteConnMaxLifetime, err = durationEnv("SQLITE_CONN_MAX_LIFETIME", 0); err != nil {
		return Config{}, err
	}
	if cfg.SQLiteLogQueries, err = boolEnv("SQLITE_LOG_QUERIES", false); err != nil {
		return Config{}, err
	}
	if cfg.WeatherLatitude, err = floatEnv("WEATHER_LATITUDE", 33.891584); err != nil {
		return Config{}, err
	}
	if cfg.WeatherLatitude < -90 || cfg.WeatherLatitude > 90 {
		return Config{}, fmt.Errorf("invalid WEATHER_LATITUDE %v (allowed: -90..90)", cfg.WeatherLatitude)
	}
	if cfg.WeatherLongitude, err = floatEnv("WEATHER_LONGITUDE", -114.524107); err != nil {
		return Config{}, err
	}
	if cfg.WeatherLongitude < -180 || cfg.WeatherLongitude > 180 {
		return Config{}, fmt.Errorf("invalid WEATHER_LONGITUDE %v (allowed: -180..180)", cfg.WeatherLongitude)
	}
	if cfg.UpstreamTimeout, err = durationEnv("UPSTREAM_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.UpstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT %v (must be > 0)", cfg.UpstreamTimeout)
	}
	if cfg.HistoryHours, err = intEnv("HISTORY_HOURS", 24); err != nil {
		return Config{}, err
	}
	if cfg.HistoryHours < 1 || cfg.HistoryHours > 720 {
		return Config{}, fmt.Errorf("invalid HISTORY_HOURS %d (allowed: 1..720)", cfg.HistoryHours)
	}
	if cfg.MQTTPort, err = intEnv("MQTT_PORT", 1883); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// getenv returns the trimmed value of key, or def when unset or blank.
func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	s := getenv(key, "")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	s := getenv(key, "")
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := getenv(key, "")
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := getenv(key, "")
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
