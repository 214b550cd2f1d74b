package web

import (
	"time"

	"github.com/rakshak-ai/internal/config"
)

// Config represents the tool server configuration
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	CORS   CORSConfig
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig contains authentication settings. Auth is enabled when a
// secret is set.
type AuthConfig struct {
	Secret string
}

// Enabled reports whether /api requires a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.Secret != ""
}

// CORSConfig lists allowed browser origins. "*" allows any.
type CORSConfig struct {
	Origins []string
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		CORS: CORSConfig{Origins: []string{"*"}},
	}
}

// FromServerConfig derives the tool server settings from the runtime
// configuration. The write timeout must cover a full location lookup.
func FromServerConfig(c config.ServerConfig) *Config {
	cfg := DefaultConfig()
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port > 0 {
		cfg.Server.Port = c.Port
	}
	cfg.Auth.Secret = c.AuthSecret
	return cfg
}
