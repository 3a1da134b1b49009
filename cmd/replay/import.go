package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventReplay/internal/canonical"
	"eventReplay/internal/config"
	"eventReplay/internal/loader"
	"eventReplay/internal/storage/postgres"
)

func runImport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.TSVPath == "" {
		return fmt.Errorf("tsv path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ix, err := canonical.Scan(cfg.TSVPath, logger)
	if err != nil {
		return err
	}

	preorgPath, err := canonical.Transform(cfg.TSVPath, ix, logger)
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	run := loader.New(loader.Config{
		BatchSize:  cfg.BatchSize,
		PathFilter: cfg.PathFilter,
	}, store, logger)

	logger.Info("import start",
		zap.String("tsv_path", cfg.TSVPath),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("path_filter", cfg.PathFilter),
	)

	return run.Run(ctx, preorgPath, ix)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
