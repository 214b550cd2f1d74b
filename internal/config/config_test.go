package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"MATCH_THRESHOLD", "STATION_CACHE_TTL", "DB_DRIVER", "REDIS_HOST", "GEOCODE_REGION_HINT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Resolution.MatchThreshold != 0.7 {
		t.Errorf("MatchThreshold = %v, want 0.7", cfg.Resolution.MatchThreshold)
	}
	if cfg.Resolution.StationCacheTTL != 5*time.Minute {
		t.Errorf("StationCacheTTL = %v, want 5m", cfg.Resolution.StationCacheTTL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Redis.Host != "" {
		t.Errorf("Redis.Host = %q, want empty", cfg.Redis.Host)
	}
	if cfg.Maps.RegionHint != "Nashik" {
		t.Errorf("RegionHint = %q, want Nashik", cfg.Maps.RegionHint)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.82")
	t.Setenv("STATION_CACHE_TTL", "90")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg := Load()

	if cfg.Resolution.MatchThreshold != 0.82 {
		t.Errorf("MatchThreshold = %v, want 0.82", cfg.Resolution.MatchThreshold)
	}
	if cfg.Resolution.StationCacheTTL != 90*time.Second {
		t.Errorf("StationCacheTTL = %v, want 90s", cfg.Resolution.StationCacheTTL)
	}
	if cfg.Database.DSN != "file:test.db" || cfg.Database.Driver != "sqlite" {
		t.Errorf("Database = %+v", cfg.Database)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"2m", 2 * time.Minute},
		{"15", 15 * time.Second},
		{"garbage", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := GetEnvDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("GetEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OFFICER_NUMBER=9000000000\nWEB_PORT=9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WEB_PORT", "7070")
	t.Setenv("OFFICER_NUMBER", "")
	os.Unsetenv("OFFICER_NUMBER")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}

	if got := GetEnv("OFFICER_NUMBER", ""); got != "9000000000" {
		t.Errorf("OFFICER_NUMBER = %q, want value from file", got)
	}
	if got := GetEnvInt("WEB_PORT", 0); got != 7070 {
		t.Errorf("WEB_PORT = %d, want process value 7070", got)
	}
}
