package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"labordash/internal/app"
	"labordash/internal/infrastructure"
	"labordash/pkg/contracts"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the data directory and serve the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			logger.Info("Application starting", slog.String("version", contracts.GetFullVersionString()))

			application, err := app.NewApplication(cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override the configured HTTP port")
	return cmd
}
