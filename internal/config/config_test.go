package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_WithRequiredEnvVars(t *testing.T) {
	os.Setenv("YOUTUBE_API_KEY", "test-key-123")
	defer os.Unsetenv("YOUTUBE_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.YouTube.APIKey != "test-key-123" {
		t.Errorf("YouTube.APIKey = %v, want %v", cfg.YouTube.APIKey, "test-key-123")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Setenv("YOUTUBE_API_KEY", "test-key")
	defer os.Unsetenv("YOUTUBE_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, 8080)
	}

	if cfg.DB.Path != "data/videos.db" {
		t.Errorf("DB.Path = %v, want %v", cfg.DB.Path, "data/videos.db")
	}
	if cfg.DB.BusyTimeout != 30*time.Second {
		t.Errorf("DB.BusyTimeout = %v, want %v", cfg.DB.BusyTimeout, 30*time.Second)
	}
	if cfg.DB.MaxConns != 10 {
		t.Errorf("DB.MaxConns = %v, want %v", cfg.DB.MaxConns, 10)
	}

	if cfg.Index.Path != "data/index.bleve" {
		t.Errorf("Index.Path = %v, want %v", cfg.Index.Path, "data/index.bleve")
	}

	if cfg.Cache.Dir != "data/cache" {
		t.Errorf("Cache.Dir = %v, want %v", cfg.Cache.Dir, "data/cache")
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, time.Hour)
	}

	if cfg.YouTube.BatchSize != 50 {
		t.Errorf("YouTube.BatchSize = %v, want %v", cfg.YouTube.BatchSize, 50)
	}
	if cfg.YouTube.RateLimit != 5 {
		t.Errorf("YouTube.RateLimit = %v, want %v", cfg.YouTube.RateLimit, 5.0)
	}
	if cfg.YouTube.Timeout != 30*time.Second {
		t.Errorf("YouTube.Timeout = %v, want %v", cfg.YouTube.Timeout, 30*time.Second)
	}
	if cfg.YouTube.RetryAttempts != 3 {
		t.Errorf("YouTube.RetryAttempts = %v, want %v", cfg.YouTube.RetryAttempts, 3)
	}
	if cfg.YouTube.CommentLimit != 100 {
		t.Errorf("YouTube.CommentLimit = %v, want %v", cfg.YouTube.CommentLimit, 100)
	}

	if cfg.Ingest.MaxResults != 10 {
		t.Errorf("Ingest.MaxResults = %v, want %v", cfg.Ingest.MaxResults, 10)
	}

	if cfg.Maintenance.Enabled != true {
		t.Errorf("Maintenance.Enabled = %v, want %v", cfg.Maintenance.Enabled, true)
	}
	if cfg.Maintenance.Interval != 24*time.Hour {
		t.Errorf("Maintenance.Interval = %v, want %v", cfg.Maintenance.Interval, 24*time.Hour)
	}
	if cfg.Maintenance.MaxVideosRetained != 1000 {
		t.Errorf("Maintenance.MaxVideosRetained = %v, want %v", cfg.Maintenance.MaxVideosRetained, 1000)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	os.Unsetenv("YOUTUBE_API_KEY")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing YOUTUBE_API_KEY, got nil")
	}
}

func validConfig() Config {
	return Config{
		Server:      ServerConfig{Port: 8080},
		DB:          DBConfig{Path: "data/videos.db", BusyTimeout: 30 * time.Second, MaxConns: 10},
		Cache:       CacheConfig{Dir: "data/cache", TTL: time.Hour},
		YouTube:     YouTubeConfig{APIKey: "key", BatchSize: 50, RateLimit: 5},
		Ingest:      IngestConfig{MaxResults: 10},
		Maintenance: MaintenanceConfig{Enabled: true, Interval: 24 * time.Hour, MaxVideosRetained: 1000},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.YouTube.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "batch size zero",
			mutate:  func(c *Config) { c.YouTube.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "batch size over api maximum",
			mutate:  func(c *Config) { c.YouTube.BatchSize = 51 },
			wantErr: true,
		},
		{
			name:    "invalid rate limit",
			mutate:  func(c *Config) { c.YouTube.RateLimit = 0 },
			wantErr: true,
		},
		{
			name:    "invalid cache ttl",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: true,
		},
		{
			name:    "invalid max results",
			mutate:  func(c *Config) { c.Ingest.MaxResults = 0 },
			wantErr: true,
		},
		{
			name:    "invalid retention count",
			mutate:  func(c *Config) { c.Maintenance.MaxVideosRetained = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
