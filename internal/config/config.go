// Package config loads server settings from HF_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Store       string // HF_STORE ("postgres" or "memory"; default "postgres")
	DatabaseURL string // HF_DATABASE_URL (required for postgres)
	GRPCAddr    string // HF_GRPC_ADDR (default ":9090")
	HTTPAddr    string // HF_HTTP_ADDR (default ":8080")
	NATSURL     string // HF_NATS_URL (optional, empty = single instance)
	AdminToken  string // HF_ADMIN_TOKEN (optional static admin bearer token)
	HoursFile   string // HF_HOURS_FILE (optional TOML overriding shop hours)
	LogLevel    string // HF_LOG_LEVEL (default "info")

	KeepaliveInterval time.Duration // HF_KEEPALIVE_INTERVAL (default 30s)
	SubscriberWarn    int           // HF_SUBSCRIBER_WARN (default 100)
	SessionTTL        time.Duration // HF_SESSION_TTL (default 168h)

	// Sync settings
	SyncInterval   time.Duration // HF_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // HF_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // HF_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // HF_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // HF_SYNC_S3_KEY (default "hotfoods/backup.jsonl")
	SyncGitRepo    string        // HF_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // HF_SYNC_GIT_FILE (default "hotfoods.jsonl")
	SyncGitBranch  string        // HF_SYNC_GIT_BRANCH (default "main")
}

// Load reads the environment. Call Validate after applying any command-line
// overrides.
func Load() (*Config, error) {
	c := &Config{
		Store:          envOrDefault("HF_STORE", StorePostgres),
		DatabaseURL:    os.Getenv("HF_DATABASE_URL"),
		GRPCAddr:       envOrDefault("HF_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("HF_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("HF_NATS_URL"),
		AdminToken:     os.Getenv("HF_ADMIN_TOKEN"),
		HoursFile:      os.Getenv("HF_HOURS_FILE"),
		LogLevel:       envOrDefault("HF_LOG_LEVEL", "info"),
		SyncS3Bucket:   os.Getenv("HF_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("HF_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("HF_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("HF_SYNC_S3_KEY", "hotfoods/backup.jsonl"),
		SyncGitRepo:    os.Getenv("HF_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("HF_SYNC_GIT_FILE", "hotfoods.jsonl"),
		SyncGitBranch:  envOrDefault("HF_SYNC_GIT_BRANCH", "main"),
	}

	var err error
	if c.KeepaliveInterval, err = durationEnv("HF_KEEPALIVE_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	if c.SessionTTL, err = durationEnv("HF_SESSION_TTL", "168h"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = durationEnv("HF_SYNC_INTERVAL", "0"); err != nil {
		return nil, err
	}
	warn := envOrDefault("HF_SUBSCRIBER_WARN", "100")
	if c.SubscriberWarn, err = strconv.Atoi(warn); err != nil {
		return nil, fmt.Errorf("HF_SUBSCRIBER_WARN: %w", err)
	}
	return c, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("HF_DATABASE_URL is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("HF_STORE: unknown store %q (want %s or %s)", c.Store, StorePostgres, StoreMemory)
	}
	if c.KeepaliveInterval <= 0 {
		return fmt.Errorf("HF_KEEPALIVE_INTERVAL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("HF_SESSION_TTL must be positive")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("HF_SYNC_INTERVAL must not be negative")
	}
	return nil
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
