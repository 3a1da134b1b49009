package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventReplay/internal/canonical"
	"eventReplay/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "replay",
		Short:        "Event log replay and bulk import",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Build the canonical entity index for an event log",
		RunE:  runScan,
	}
	scanCmd.Flags().String("tsv-path", "", "raw event log path")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(scanCmd)

	preorgCmd := &cobra.Command{
		Use:   "preorg",
		Short: "Write the canonical-only preorg file for an event log",
		RunE:  runPreorg,
	}
	preorgCmd.Flags().String("tsv-path", "", "raw event log path")
	preorgCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(preorgCmd)

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replay the canonical event log into Postgres",
		RunE:  runImport,
	}
	importCmd.Flags().String("tsv-path", "", "raw event log path")
	importCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	importCmd.Flags().Int("batch-size", 500, "rows per bulk insert")
	importCmd.Flags().String("path", "", "restrict import to one event path")
	importCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(importCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
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

	ix, err := canonical.Scan(cfg.TSVPath, logger)
	if err != nil {
		return err
	}

	logger.Info("canonical index ready",
		zap.String("tsv_path", cfg.TSVPath),
		zap.Int("blocks", len(ix.IndexBlockHashes)),
		zap.Int("burn_blocks", len(ix.BurnBlockHashes)),
		zap.Int64("lines", ix.TotalLines),
	)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
