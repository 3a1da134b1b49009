package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventReplay/internal/canonical"
	"eventReplay/internal/config"
)

func runPreorg(cmd *cobra.Command, _ []string) error {
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

	preorgPath, err := canonical.Transform(cfg.TSVPath, ix, logger)
	if err != nil {
		return err
	}

	logger.Info("preorg ready", zap.String("path", preorgPath))
	return nil
}
