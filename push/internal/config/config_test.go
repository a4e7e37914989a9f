package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_WithDefaults(t *testing.T) {
	// Load config without a config file (use defaults)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	// Verify some default values
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}

	if cfg.Server.IdleTimeout != 120*time.Second {
		t.Errorf("Server.IdleTimeout = %v, want 120s", cfg.Server.IdleTimeout)
	}

	if cfg.Blob.Endpoint != "" {
		t.Errorf("Blob.Endpoint = %q, want empty", cfg.Blob.Endpoint)
	}

	if cfg.Blob.Bucket != "water-push" {
		t.Errorf("Blob.Bucket = %q, want %q", cfg.Blob.Bucket, "water-push")
	}

	if cfg.Database.URL != "" {
		t.Errorf("Database.URL = %q, want empty", cfg.Database.URL)
	}

	if cfg.NATS.URL != "" {
		t.Errorf("NATS.URL = %q, want empty", cfg.NATS.URL)
	}

	if cfg.Ingestion.MaxBodyBytes != 1048576 {
		t.Errorf("Ingestion.MaxBodyBytes = %d, want 1048576", cfg.Ingestion.MaxBodyBytes)
	}

	if !cfg.Ingestion.RateLimitEnabled {
		t.Error("Ingestion.RateLimitEnabled should be true by default")
	}

	if cfg.Ingestion.RateLimitPerMinute != 240 {
		t.Errorf("Ingestion.RateLimitPerMinute = %d, want 240", cfg.Ingestion.RateLimitPerMinute)
	}

	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("CORS.AllowedOrigins = %v, want [*]", cfg.CORS.AllowedOrigins)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  port: 9100
blob:
  endpoint: "minio:9000"
  bucket: "custom-bucket"
ingestion:
  rate_limit_per_minute: 60
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Blob.Endpoint != "minio:9000" {
		t.Errorf("Blob.Endpoint = %q, want minio:9000", cfg.Blob.Endpoint)
	}
	if cfg.Blob.Bucket != "custom-bucket" {
		t.Errorf("Blob.Bucket = %q, want custom-bucket", cfg.Blob.Bucket)
	}
	if cfg.Ingestion.RateLimitPerMinute != 60 {
		t.Errorf("Ingestion.RateLimitPerMinute = %d, want 60", cfg.Ingestion.RateLimitPerMinute)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// File values override only what they name; defaults survive.
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 30s", cfg.Server.WriteTimeout)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() with an explicit missing file should return an error")
	}
}
