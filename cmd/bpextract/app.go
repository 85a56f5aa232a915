package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bpextract/internal/config"
	"bpextract/internal/logging"
	"bpextract/internal/port"
	"bpextract/internal/repository/postgres"
	s3storage "bpextract/internal/storage/s3"
	"bpextract/internal/service"
)

// app carries the global flags and the dependencies built from them.
type app struct {
	configFile string
	logLevel   string
	output     string

	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	svc    service.ExtractionService
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("create s3 client: %w", err)
		}
		logger.Info("publishing artifacts", zap.String("bucket", cfg.S3.Bucket), zap.String("prefix", cfg.S3.Prefix))
	}

	var catalog port.CatalogRepository
	if cfg.DB.Enabled {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return err
		}
		a.db = db
		catalog = postgres.NewCatalogRepo(db)
		logger.Info("cataloging processes", zap.String("db", cfg.DB.Name))
	}

	a.cfg = cfg
	a.svc = service.NewExtractionService(cfg, storage, catalog, logger)
	return nil
}

// execute runs root and then releases whatever setup acquired. cobra skips
// post-run hooks when a command fails, so teardown cannot live there.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	defer a.teardown()
	return root.ExecuteContext(ctx)
}

func (a *app) teardown() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
		a.logger = nil
	}
}

// outputTo applies --output to the directory the running command writes to.
func (a *app) outputTo(dir *string) {
	if a.output != "" {
		*dir = a.output
	}
}

// finish prints the run summary and turns per-file failures into an error
// so the process exits non-zero.
func finish(w io.Writer, report *service.BatchReport, err error) error {
	if report != nil {
		fmt.Fprintf(w, "run %s: %d processed, %d failed\n", report.RunID, report.Processed, report.Failed)
		for _, f := range report.Files {
			if f.Err != nil {
				fmt.Fprintf(w, "  FAILED %s: %v\n", f.Input, f.Err)
			}
			for _, out := range f.Outputs {
				fmt.Fprintf(w, "  %s\n", out)
			}
		}
		for _, out := range report.Outputs {
			fmt.Fprintf(w, "  %s\n", out)
		}
	}
	if err != nil {
		return err
	}
	if report != nil && report.HasFailures() {
		return fmt.Errorf("%d of %d files failed", report.Failed, report.Processed)
	}
	return nil
}

func argOr(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
