package config

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration of the helpline services.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Maps       MapsConfig
	OpenAI     OpenAIConfig
	WhatsApp   WhatsAppConfig
	Server     ServerConfig
	Resolution ResolutionConfig
	Timeouts   TimeoutConfig

	// SocksProxy routes outbound HTTP (maps, OpenAI, WhatsApp) through a
	// SOCKS5 proxy when set.
	SocksProxy string
}

// DatabaseConfig selects the directory store backend.
type DatabaseConfig struct {
	Driver         string // "postgres" or "sqlite"
	DSN            string
	MaxConnections int
}

// RedisConfig configures the optional shared cache. Empty Host disables it.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MapsConfig configures the external geocoding provider.
type MapsConfig struct {
	APIKey       string
	RegionHint   string
	RadiusMeters uint
	BaseURL      string
}

// OpenAIConfig configures the text-generation provider.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// WhatsAppConfig configures officer alerting through the Graph API.
type WhatsAppConfig struct {
	BaseURL       string
	PhoneID       string
	AccessToken   string
	OfficerNumber string
}

// ServerConfig contains HTTP tool server settings
type ServerConfig struct {
	Host       string
	Port       int
	AuthSecret string
}

// ResolutionConfig holds the matching knobs that used to be hardcoded.
type ResolutionConfig struct {
	MatchThreshold  float64
	StationCacheTTL time.Duration
}

// TimeoutConfig bounds every network call made while resolving a location.
type TimeoutConfig struct {
	Store   time.Duration
	Geocode time.Duration
	LLM     time.Duration
	Alert   time.Duration
}

// Load builds a Config from the process environment. Call LoadEnv first to
// pull in a .env file.
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         GetEnv("DB_DRIVER", "postgres"),
			DSN:            databaseDSN(),
			MaxConnections: GetEnvInt("DB_MAX_CONNECTIONS", 10),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", ""),
			Port:     GetEnvInt("REDIS_PORT", 6379),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Maps: MapsConfig{
			APIKey:       GetEnv("GOOGLE_MAPS_API_KEY", ""),
			RegionHint:   GetEnv("GEOCODE_REGION_HINT", "Nashik"),
			RadiusMeters: uint(GetEnvInt("GEOCODE_RADIUS_METERS", 10000)),
			BaseURL:      GetEnv("GOOGLE_MAPS_BASE_URL", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:  GetEnv("OPENAI_API_KEY", ""),
			Model:   GetEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: GetEnv("OPENAI_BASE_URL", ""),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:       GetEnv("FACEBOOK_BASE_URL", "https://graph.facebook.com/v18.0"),
			PhoneID:       GetEnv("WHATSAPP_PHONE_ID", ""),
			AccessToken:   GetEnv("WHATSAPP_ACCESS_TOKEN", ""),
			OfficerNumber: GetEnv("OFFICER_NUMBER", ""),
		},
		Server: ServerConfig{
			Host:       GetEnv("WEB_HOST", "0.0.0.0"),
			Port:       GetEnvInt("WEB_PORT", 8080),
			AuthSecret: GetEnv("TOOL_AUTH_SECRET", ""),
		},
		Resolution: ResolutionConfig{
			MatchThreshold:  GetEnvFloat("MATCH_THRESHOLD", 0.7),
			StationCacheTTL: GetEnvDuration("STATION_CACHE_TTL", 5*time.Minute),
		},
		Timeouts: TimeoutConfig{
			Store:   GetEnvDuration("STORE_TIMEOUT", 5*time.Second),
			Geocode: GetEnvDuration("GEOCODE_TIMEOUT", 10*time.Second),
			LLM:     GetEnvDuration("LLM_TIMEOUT", 30*time.Second),
			Alert:   GetEnvDuration("ALERT_TIMEOUT", 30*time.Second),
		},
		SocksProxy: GetEnv("SOCKS_PROXY", ""),
	}
}

// databaseDSN prefers DATABASE_URL and otherwise assembles a Postgres DSN
// from the PG* variables.
func databaseDSN() string {
	if dsn := GetEnv("DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		GetEnv("PGHOST", "localhost"),
		GetEnv("PGPORT", "5432"),
		GetEnv("PGUSER", "postgres"),
		GetEnv("PGPASSWORD", "postgres"),
		GetEnv("PGDATABASE", "rakshak_ai"),
		GetEnv("PGSSLMODE", "disable"))
}
