package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"tidex/internal/services"
	"tidex/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	for i, arg := range os.Args {
		if arg == "--config" || arg == "-c" {
			if i+1 < len(os.Args) {
				configPath = os.Args[i+1]
			}
		}
		if arg == "--quiet" || arg == "-q" {
			shared.SetLogLevel(logger, log.WarnLevel)
		}
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	var collection services.Collection
	if config.Credentials.Tidal.ClientID != "" {
		if svc, err := services.NewTidalService(&config.Credentials.Tidal, shared.WithLogger(logger, "service", "tidal")); err == nil {
			collection = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Collection: collection,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:    "tidex",
		Usage:   "Export, search & rebuild your Tidal library",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrMissingCredentials) {
			logger.Fatalf("%v", err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
