package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"labordash/internal/config"
	"labordash/internal/infrastructure"
	"labordash/pkg/contracts"
)

type rootFlags struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   config.AppBinary,
		Short: "Labor statistics dashboard",
		Long: "labordash loads BLS, ILO and World Bank exports from a data directory\n" +
			"and serves interactive charts, regional summaries and forecasts.",
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"YAML configuration file (default: $"+config.ConfigFileEnv+" or ./config.yaml)")

	serve := newServeCmd(flags)
	root.AddCommand(serve)
	root.AddCommand(newInspectCmd(flags))

	// a bare invocation serves
	root.RunE = serve.RunE

	return root
}

// loadConfig honors --config, falling back to the usual lookup
func (f *rootFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configFile != "" {
		cfg, err = config.LoadFrom(f.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger, nil
}
