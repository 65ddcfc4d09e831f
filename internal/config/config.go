package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// Backend REST API configuration
	Backend BackendConfig

	// Session cookie configuration
	Session SessionConfig

	// Prayer times configuration
	Prayer PrayerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RoutesFile     string // optional YAML file overriding guard rules
}

// BackendConfig holds the backend API location
type BackendConfig struct {
	URL string
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	Secret       string
	CookieSecure bool
}

// PrayerConfig holds the prayer-times API and the mosque coordinates
type PrayerConfig struct {
	APIURL    string
	Latitude  float64
	Longitude float64
	Method    int    // calculation method id understood by the API
	Schedule  string // cron expression for the daily refresh
	CachePath string // SQLite file persisting fetched schedules, empty disables
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	loadDotEnv()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	prayer, err := loadPrayer()
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("PORT", "3000"),
			AllowedOrigins: origins,
			RoutesFile:     os.Getenv("ROUTES_FILE"),
		},
		Backend: loadBackend(),
		Session: SessionConfig{
			Secret: secret,
			// Secure cookies unless explicitly disabled for local http
			CookieSecure: os.Getenv("COOKIE_SECURE") != "false",
		},
		Prayer: prayer,
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

// LoadClient loads the subset the terminal client needs. It does not
// require a session secret.
func LoadClient() (BackendConfig, PrayerConfig, error) {
	loadDotEnv()
	prayer, err := loadPrayer()
	return loadBackend(), prayer, err
}

// loadDotEnv reads .env files (fails silently if files don't exist)
func loadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func loadBackend() BackendConfig {
	return BackendConfig{
		URL: strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://localhost:8000"), "/"),
	}
}

func loadPrayer() (PrayerConfig, error) {
	latitude, err := parseFloatEnv("MOSQUE_LATITUDE", -6.2088)
	if err != nil {
		return PrayerConfig{}, err
	}
	longitude, err := parseFloatEnv("MOSQUE_LONGITUDE", 106.8456)
	if err != nil {
		return PrayerConfig{}, err
	}

	method, err := strconv.Atoi(getEnvOrDefault("PRAYER_METHOD", "20"))
	if err != nil {
		return PrayerConfig{}, fmt.Errorf("invalid PRAYER_METHOD: %w", err)
	}

	return PrayerConfig{
		APIURL:    strings.TrimRight(getEnvOrDefault("PRAYER_API_URL", "https://api.aladhan.com/v1"), "/"),
		Latitude:  latitude,
		Longitude: longitude,
		Method:    method,
		Schedule:  getEnvOrDefault("PRAYER_REFRESH_SCHEDULE", "5 0 * * *"),
		CachePath: getEnvOrDefault("PRAYER_CACHE_PATH", "masjidku.sqlite"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
