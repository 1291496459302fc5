package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tabprep/internal/config"
	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/source"
	"github.com/JonMunkholm/tabprep/internal/store"
	"github.com/JonMunkholm/tabprep/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"s3", cfg.S3.Enabled,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"dataset_max_count", cfg.Dataset.MaxCount,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	var deps web.Deps

	if cfg.Database.Enabled() {
		pool, err := connectDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		deps.Store = store.New(pool)
	} else {
		slog.Info("no DATABASE_URL set, persist endpoint disabled")
	}

	if cfg.S3.Enabled {
		client, err := source.NewS3(ctx, source.S3Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			slog.Error("failed to configure s3", "error", err)
			os.Exit(1)
		}
		deps.Resolver = &source.Resolver{S3: client}
		slog.Info("s3 imports enabled", "region", cfg.S3.Region, "endpoint", cfg.S3.Endpoint)
	}

	server := web.NewServer(cfg, deps)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stops accepting requests, then waits for running uploads and pipelines
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectDB opens and verifies a connection pool.
func connectDB(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(dbCfg.MaxConns)
	poolConfig.MinConns = int32(dbCfg.MinConns)
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(dbCfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
