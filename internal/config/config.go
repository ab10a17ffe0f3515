package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Index       IndexConfig
	Cache       CacheConfig
	YouTube     YouTubeConfig
	Ingest      IngestConfig
	Maintenance MaintenanceConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DBConfig holds the SQLite record store configuration
type DBConfig struct {
	Path        string        `envconfig:"DB_PATH" default:"data/videos.db"`
	BusyTimeout time.Duration `envconfig:"DB_BUSY_TIMEOUT" default:"30s"`
	MaxConns    int           `envconfig:"DB_MAX_CONNS" default:"10"`
}

// IndexConfig holds the full-text index configuration
type IndexConfig struct {
	// Path is the on-disk bleve index location. Empty means in-memory.
	Path string `envconfig:"INDEX_PATH" default:"data/index.bleve"`
}

// CacheConfig holds the disk cache configuration
type CacheConfig struct {
	Dir string        `envconfig:"CACHE_DIR" default:"data/cache"`
	TTL time.Duration `envconfig:"CACHE_TTL" default:"1h"`
}

// YouTubeConfig holds upstream API configuration
type YouTubeConfig struct {
	APIKey        string        `envconfig:"YOUTUBE_API_KEY" required:"true"`
	BatchSize     int           `envconfig:"YOUTUBE_BATCH_SIZE" default:"50"`
	RateLimit     float64       `envconfig:"YOUTUBE_RATE_LIMIT" default:"5"`
	Timeout       time.Duration `envconfig:"YOUTUBE_TIMEOUT" default:"30s"`
	RetryAttempts int           `envconfig:"YOUTUBE_RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"YOUTUBE_RETRY_DELAY" default:"1s"`
	CommentLimit  int           `envconfig:"YOUTUBE_COMMENT_LIMIT" default:"100"`
}

// IngestConfig holds ingestion coordinator configuration
type IngestConfig struct {
	MaxResults int `envconfig:"INGEST_MAX_RESULTS" default:"10"`
}

// MaintenanceConfig holds retention/optimization loop configuration
type MaintenanceConfig struct {
	Enabled bool `envconfig:"MAINTENANCE_ENABLED" default:"true"`
	// Interval between retention sweeps.
	Interval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"24h"`
	// MaxVideosRetained is the newest-N row count kept by retention trims.
	MaxVideosRetained int `envconfig:"MAX_VIDEOS_RETAINED" default:"1000"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Index); err != nil {
		return nil, fmt.Errorf("failed to load index config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Cache); err != nil {
		return nil, fmt.Errorf("failed to load cache config: %w", err)
	}

	if err := envconfig.Process("", &cfg.YouTube); err != nil {
		return nil, fmt.Errorf("failed to load youtube config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Ingest); err != nil {
		return nil, fmt.Errorf("failed to load ingest config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to load maintenance config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YOUTUBE_API_KEY is required")
	}
	if c.YouTube.BatchSize <= 0 || c.YouTube.BatchSize > 50 {
		return fmt.Errorf("YOUTUBE_BATCH_SIZE must be between 1 and 50")
	}
	if c.YouTube.RateLimit <= 0 {
		return fmt.Errorf("YOUTUBE_RATE_LIMIT must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Ingest.MaxResults <= 0 {
		return fmt.Errorf("INGEST_MAX_RESULTS must be positive")
	}
	if c.Maintenance.MaxVideosRetained <= 0 {
		return fmt.Errorf("MAX_VIDEOS_RETAINED must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}
