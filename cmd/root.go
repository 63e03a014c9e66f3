package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tempiaops/internal/config"
	"tempiaops/internal/logger"
)

// app holds what every subcommand needs after the persistent pre-run.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

var current app

func newRootCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:           "tempiaops",
		Short:         "Tempia Ops API",
		Long:          "Backend for Tempia Ops: buildings, procedures, FDV documents, process flows and KPIs.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.Log.Level = lvl
			}

			log, err := logger.Init(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}

			current = app{cfg: cfg, log: log}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "config.yaml", "config file, skipped when missing")
	cmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", version, commit)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("tempiaops %s (%s)\n", version, commit)
		},
	}
}
