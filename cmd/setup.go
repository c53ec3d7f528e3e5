package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"tidex/internal/shared"
)

// Setup creates the config file from the embedded template if it is missing
// and initializes the cache database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file exists", "path", r.configPath)
	} else {
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s\n", r.configPath)
		r.writePlain("Fill in your Tidal client_id and client_secret, then run 'tidex auth login'.\n")
	}

	r.logger.Info("initializing cache database", "path", r.config.Database.Path)

	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlain("✓ Cache database ready at %s\n", r.config.Database.Path)
	return nil
}
