package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	appingest "github.com/mohammadpnp/data-importer/internal/application/ingest"
	"github.com/mohammadpnp/data-importer/internal/bootstrap"
	"github.com/mohammadpnp/data-importer/internal/config"
	"github.com/mohammadpnp/data-importer/internal/infrastructure/database"
	"github.com/mohammadpnp/data-importer/internal/infrastructure/db/models"
	infrafile "github.com/mohammadpnp/data-importer/internal/infrastructure/file"
	"github.com/mohammadpnp/data-importer/internal/infrastructure/repository"
	"github.com/mohammadpnp/data-importer/internal/logging"
	"github.com/mohammadpnp/data-importer/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger("info").Fatalf("configuration: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	db, err := database.Connect(cfg.ImportDatabaseURL)
	if err != nil {
		logger.Fatalf("connect import database: %v", err)
	}
	defer database.Close(db)

	if err := db.WithContext(startupCtx).AutoMigrate(&models.SourceFile{}); err != nil {
		logger.Fatalf("migrate source_files: %v", err)
	}

	importPool, err := pgxpool.New(context.Background(), cfg.ImportDatabaseURL)
	if err != nil {
		logger.Fatalf("create import pool: %v", err)
	}
	defer importPool.Close()

	membershipPool, err := pgxpool.New(context.Background(), cfg.MembershipDatabaseURL)
	if err != nil {
		logger.Fatalf("create membership pool: %v", err)
	}
	defer membershipPool.Close()

	if err := importPool.Ping(startupCtx); err != nil {
		logger.Fatalf("import store unreachable: %v", err)
	}
	if err := membershipPool.Ping(startupCtx); err != nil {
		logger.Fatalf("membership store unreachable: %v", err)
	}

	scanner, err := buildScanner(startupCtx, cfg)
	if err != nil {
		logger.Fatalf("configure file source: %v", err)
	}

	fileRepo := repository.NewSourceFileRepository(db)
	importRepo := repository.NewImportRecordRepository(importPool)
	membershipRepo := repository.NewMembershipRepository(membershipPool)

	m := metrics.New()
	scheduler := appingest.NewScheduler(scanner, fileRepo, importRepo, membershipRepo, appingest.SchedulerConfig{
		Interval: cfg.Interval,
	}, logger, m)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	scheduler.Start(workerCtx)

	server := bootstrap.NewHTTPServer(scheduler, m)
	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	logger.Infof("import worker started, interval=%s", cfg.Interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")
	stopWorker()
	scheduler.WaitIdle()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("graceful shutdown failed: %v", err)
	}
}

func buildScanner(ctx context.Context, cfg *config.Config) (appingest.SourceScanner, error) {
	if cfg.S3Bucket != "" {
		return infrafile.NewS3Source(ctx, infrafile.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	}
	return infrafile.NewLocalSource(cfg.ScanPaths...), nil
}
