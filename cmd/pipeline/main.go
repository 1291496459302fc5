// Command pipeline runs pipeline documents against local or s3:// files.
//
//	pipeline clean.yaml [more.yaml ...]
//	pipeline -persist name clean.yaml
//
// Settings come from the same environment as the server (S3_*, DATABASE_URL,
// LOG_*); a .env file in the working directory is loaded first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tabprep/internal/config"
	"github.com/JonMunkholm/tabprep/internal/core"
	"github.com/JonMunkholm/tabprep/internal/logging"
	"github.com/JonMunkholm/tabprep/internal/pipeline"
	"github.com/JonMunkholm/tabprep/internal/source"
	"github.com/JonMunkholm/tabprep/internal/store"
)

func main() {
	persist := flag.String("persist", "", "also copy the result into this PostgreSQL table (needs DATABASE_URL, one document only)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-persist table] pipeline.yaml ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *persist, flag.Args()); err != nil {
		slog.Error("pipeline failed", "error", err)
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, persist string, paths []string) error {
	if persist != "" && len(paths) > 1 {
		return fmt.Errorf("-persist takes one document, got %d: each run would replace table %q", len(paths), persist)
	}

	resolver := &source.Resolver{}
	if cfg.S3.Enabled {
		client, err := source.NewS3(ctx, source.S3Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return err
		}
		resolver.S3 = client
	}

	var st *store.Store
	if persist != "" {
		if !cfg.Database.Enabled() {
			return fmt.Errorf("-persist: database not configured (set DATABASE_URL)")
		}
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		st = store.New(pool)
	}

	runner := pipeline.NewRunner(resolver)
	for _, path := range paths {
		res, err := runner.RunFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for i, s := range res.Steps {
			fmt.Printf("%s  step %d %-9s rows=%d cols=%d %s\n", path, i+1, s.Op, s.Rows, s.Columns, s.Duration)
		}
		if st != nil {
			n, err := st.Save(ctx, persist, res.Table)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s  saved %d rows to %s\n", path, n, persist)
		}
	}
	return nil
}
