package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is passed explicitly into constructors; there is no process-wide
// configuration singleton.
type Config struct {
	ScanPaths             []string
	Interval              time.Duration
	ImportDatabaseURL     string
	MembershipDatabaseURL string
	ListenAddr            string
	LogLevel              string

	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Load reads an optional config file (config.yaml in the working directory)
// and the environment, environment taking precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("IMPORT_INTERVAL_SECONDS", 60)
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		ScanPaths:             splitPaths(v.GetString("IMPORT_PATHS")),
		Interval:              time.Duration(v.GetInt("IMPORT_INTERVAL_SECONDS")) * time.Second,
		ImportDatabaseURL:     v.GetString("IMPORT_DATABASE_URL"),
		MembershipDatabaseURL: v.GetString("MEMBERSHIP_DATABASE_URL"),
		ListenAddr:            v.GetString("LISTEN_ADDR"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		S3Bucket:              v.GetString("IMPORT_S3_BUCKET"),
		S3Prefix:              v.GetString("IMPORT_S3_PREFIX"),
		S3Region:              v.GetString("IMPORT_S3_REGION"),
		S3Endpoint:            v.GetString("IMPORT_S3_ENDPOINT"),
		S3PathStyle:           v.GetBool("IMPORT_S3_PATH_STYLE"),
	}

	if cfg.ImportDatabaseURL == "" {
		return nil, errors.New("IMPORT_DATABASE_URL is required")
	}
	if cfg.MembershipDatabaseURL == "" {
		return nil, errors.New("MEMBERSHIP_DATABASE_URL is required")
	}
	if len(cfg.ScanPaths) == 0 && cfg.S3Bucket == "" {
		return nil, errors.New("either IMPORT_PATHS or IMPORT_S3_BUCKET is required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("IMPORT_INTERVAL_SECONDS must be positive")
	}

	return cfg, nil
}

func splitPaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
