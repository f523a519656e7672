package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/page-archive-service/internal/adapter/confluence"
	minio_adapter "github.com/user/page-archive-service/internal/adapter/minio"
	"github.com/user/page-archive-service/internal/adapter/postgres"
	redis_adapter "github.com/user/page-archive-service/internal/adapter/redis"
	"github.com/user/page-archive-service/internal/adapter/zipstore"
	"github.com/user/page-archive-service/internal/delivery/http/handler"
	"github.com/user/page-archive-service/internal/delivery/http/router"
	"github.com/user/page-archive-service/internal/repository"
	"github.com/user/page-archive-service/internal/usecase"
	"github.com/user/page-archive-service/pkg/config"
	"github.com/user/page-archive-service/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// --- Logger ---
	log := logger.New(os.Stdout, cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	log.Info("Logger initialized", zap.String("level", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecks := map[string]handler.HealthCheck{}

	// --- PostgreSQL catalog ---
	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	if err := postgres.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatal("Unable to prepare catalog schema", zap.Error(err))
	}
	healthChecks["postgres"] = dbpool.Ping
	log.Info("PostgreSQL connection pool established")

	// --- Redis export cache (optional) ---
	var exportCache repository.ExportCacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Unable to connect to Redis", zap.Error(err))
		}
		exportCache = redis_adapter.NewExportCacheRepo(rdb)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("Redis connection established")
	}

	// --- MinIO mirror (optional) ---
	var mirror repository.ArchiveMirror
	if cfg.MinioEndpoint != "" {
		mc, err := minio_adapter.NewClient(minio_adapter.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			log.Fatal("Unable to create object storage client", zap.Error(err))
		}
		m := minio_adapter.NewMirror(mc, cfg.MinioBucket, log)
		if err := m.EnsureBucket(ctx); err != nil {
			log.Fatal("Unable to prepare object storage bucket", zap.Error(err), zap.String("bucket", cfg.MinioBucket))
		}
		mirror = m
		log.Info("Archive mirror enabled", zap.String("endpoint", cfg.MinioEndpoint), zap.String("bucket", cfg.MinioBucket))
	}

	// --- Repositories ---
	content := confluence.NewClient(confluence.Options{
		Email:        cfg.ConfluenceEmail,
		APIToken:     cfg.ConfluenceAPIToken,
		Timeout:      cfg.ConfluenceTimeout(),
		RateLimit:    cfg.ConfluenceRateLimit,
		MaxBodyBytes: cfg.ConfluenceMaxBodyBytes,
	}, log)
	archives := zipstore.NewStore(cfg.ArchiveRoot, log)
	catalogRepo := postgres.NewCatalogRepo(dbpool)

	// --- Use Cases ---
	exporter := usecase.NewExporter(usecase.ExporterDeps{
		Content:  content,
		Archives: archives,
		Cache:    exportCache,
		Mirror:   mirror,
		Catalog:  catalogRepo,
	}, usecase.ExporterOptions{
		ChildConcurrency:       cfg.ExportChildConcurrency,
		CacheTTL:               cfg.ExportCacheTTL(),
		RejectRecentDuplicates: cfg.ExportRejectDuplicates,
	}, log)
	viewer := usecase.NewArchiveViewer(archives, log)
	remediator := usecase.NewRemediator(content, cfg.AppBaseURL, log)
	catalog := usecase.NewCatalog(catalogRepo, archives, log)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(handler.Deps{
		Exporter:     exporter,
		Viewer:       viewer,
		Remediator:   remediator,
		Catalog:      catalog,
		HealthChecks: healthChecks,
	}, log)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router.New(apiHandler, log),
		ReadHeaderTimeout: 10 * time.Second,
		// Exports of large page trees run inside the request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort), zap.String("archive_root", cfg.ArchiveRoot))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
