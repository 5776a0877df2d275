package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/wafr-accelerator/internal/application"
	appanalyses "github.com/bryanwahyu/wafr-accelerator/internal/application/analyses"
	appchat "github.com/bryanwahyu/wafr-accelerator/internal/application/chat"
	"github.com/bryanwahyu/wafr-accelerator/internal/config"
	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
	"github.com/bryanwahyu/wafr-accelerator/internal/domain/genai"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/ai/anthropic"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/wafr-accelerator/internal/infra/db/mysql"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/db/postgres"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/db/sqlite"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/httpserver"
	"github.com/bryanwahyu/wafr-accelerator/internal/infra/registry"
	minioStore "github.com/bryanwahyu/wafr-accelerator/internal/infra/storage"
	"github.com/bryanwahyu/wafr-accelerator/internal/middleware"
	"github.com/bryanwahyu/wafr-accelerator/internal/observability"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	if err := run(path); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	logger := observability.NewLogger(os.Stdout, observability.LogConfig{
		Service: cfg.Observability.ServiceName,
		Env:     cfg.Observability.Env,
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
	})
	slog.SetDefault(logger)

	tracing, err := observability.InitTracing(cfg.Observability.ServiceName, cfg.Observability.Env)
	if err != nil {
		return err
	}
	defer tracing.Shutdown(context.Background())

	ctx := context.Background()

	db, records, queue, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		return fmt.Errorf("minio init: %w", err)
	}

	var workloads domain.WorkloadRegistry = registry.Disabled{}
	if cfg.Registry.Endpoint != "" {
		workloads = &registry.Client{
			Endpoint: cfg.Registry.Endpoint,
			Token:    cfg.Registry.Token,
			PageSize: cfg.Registry.PageSize,
		}
	} else {
		logger.Warn("registry endpoint not configured, only local titles are checked for duplicates")
	}

	analysesSvc := &appanalyses.Service{
		Records:  records,
		Objects:  store,
		Queue:    queue,
		Registry: workloads,
		Bucket:   store.Bucket(),
		Clock:    application.SystemClock{},
		Logger:   logger,
	}
	chatSvc := &appchat.Service{
		Generator: newGenerator(cfg),
		ModelID:   cfg.GenAI.ModelID,
		MaxTokens: cfg.GenAI.MaxTokens,
		Guardrail: genai.NewGuardrail(cfg.GenAI.GuardrailID),
		Logger:    logger,
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	defer limiter.Stop()

	dbCheck := &middleware.DatabaseHealthChecker{DB: db}
	handler := httpserver.NewRouter(httpserver.Options{
		Analyses:       analysesSvc,
		Chat:           chatSvc,
		Logger:         logger,
		Tracer:         tracing.Tracer,
		Metrics:        middleware.NewMetrics(),
		RateLimiter:    limiter,
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		HealthChecks: map[string]middleware.HealthChecker{
			"database": dbCheck,
			"storage":  store,
		},
		Readiness: dbCheck,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// no WriteTimeout: streamed answers stay open while the model writes
		IdleTimeout: 60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "database", cfg.Database.Driver, "genai", cfg.GenAI.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-stop:
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx2)
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, domain.RecordStore, domain.WorkQueue, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return db, postgres.NewAnalysisRepository(db), postgres.NewWorkQueue(db), nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		return db, sqlite.NewAnalysisRepository(db), sqlite.NewWorkQueue(db), nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return db, mysqlp.NewAnalysisRepository(db), mysqlp.NewWorkQueue(db), nil
	}
}

func newGenerator(cfg *config.Config) genai.Generator {
	if cfg.GenAI.Backend == config.BackendOpenAI {
		return openai.NewClient(cfg.GenAI.APIKey, cfg.GenAI.Endpoint, cfg.GenAI.ModelID)
	}
	return anthropic.NewClient(cfg.GenAI.Endpoint, cfg.GenAI.APIKey)
}
