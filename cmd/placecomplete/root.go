package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/genc-murat/crystalplaces/internal/app"
	"github.com/genc-murat/crystalplaces/internal/config"
)

type rootOptions struct {
	env        string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "placecomplete",
		Short:         "Place autocomplete, geocoding and details from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", "development", "Configuration environment (config/<env>.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides the configuration)")

	cmd.AddCommand(newSuggestCmd(opts))
	cmd.AddCommand(newGeocodeCmd(opts))
	cmd.AddCommand(newDetailsCmd(opts))

	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}

	cfg, err := config.LoadConfig(o.env)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.Environment = o.env
		cfg.Places.APIKey = os.Getenv(config.APIKeyEnv)
		return cfg, nil
	}
	return nil, err
}

func newLogger(level string) arbor.ILogger {
	return arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:       arbor_models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
		TextOutput: true,
	}).WithLevelFromString(level)
}

// newApp loads configuration, builds the logger and publishes the places
// namespace.
func (o *rootOptions) newApp() (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger := newLogger(level)

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("set %s or places.api_key: %w", config.APIKeyEnv, err)
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Address, a.MetricsHandler()); err != nil {
				logger.Warn().Err(err).Str("address", cfg.Metrics.Address).Msg("Metrics endpoint stopped")
			}
		}()
	}

	a.Load()
	return a, nil
}
