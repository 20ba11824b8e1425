package config_test

import (
	"testing"
	"time"

	"github.com/mohammadpnp/data-importer/internal/config"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IMPORT_DATABASE_URL", "postgres://import")
	t.Setenv("MEMBERSHIP_DATABASE_URL", "postgres://membership")
	t.Setenv("IMPORT_PATHS", "/data/in, /data/extra ,")
	t.Setenv("IMPORT_INTERVAL_SECONDS", "30")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.ScanPaths) != 2 || cfg.ScanPaths[0] != "/data/in" || cfg.ScanPaths[1] != "/data/extra" {
		t.Fatalf("unexpected scan paths: %v", cfg.ScanPaths)
	}
	if cfg.Interval != 30*time.Second {
		t.Fatalf("unexpected interval: %s", cfg.Interval)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
}

func TestLoadRequiresConnectionStrings(t *testing.T) {
	t.Setenv("IMPORT_DATABASE_URL", "")
	t.Setenv("MEMBERSHIP_DATABASE_URL", "")
	t.Setenv("IMPORT_PATHS", "/data/in")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing connection strings")
	}
}

func TestLoadRequiresSomeSource(t *testing.T) {
	t.Setenv("IMPORT_DATABASE_URL", "postgres://import")
	t.Setenv("MEMBERSHIP_DATABASE_URL", "postgres://membership")
	t.Setenv("IMPORT_PATHS", "")
	t.Setenv("IMPORT_S3_BUCKET", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when neither paths nor bucket is configured")
	}
}

func TestLoadAllowsS3OnlySource(t *testing.T) {
	t.Setenv("IMPORT_DATABASE_URL", "postgres://import")
	t.Setenv("MEMBERSHIP_DATABASE_URL", "postgres://membership")
	t.Setenv("IMPORT_PATHS", "")
	t.Setenv("IMPORT_S3_BUCKET", "imports")
	t.Setenv("IMPORT_S3_REGION", "eu-west-1")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.S3Bucket != "imports" || cfg.S3Region != "eu-west-1" {
		t.Fatalf("unexpected s3 config: %+v", cfg)
	}
}
