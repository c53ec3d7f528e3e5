package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"tidex/internal/formatter"
	"tidex/internal/models"
	"tidex/internal/services"
	"tidex/internal/shared"
	"tidex/internal/tasks"
	"tidex/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	collection services.Collection
	engine     *tasks.LibraryEngine
	prompter   ui.Prompter
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Collection services.Collection
	Prompter   ui.Prompter
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Prompter == nil {
		opts.Prompter = ui.NewTeaPrompter()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		collection: opts.Collection,
		engine:     tasks.NewLibraryEngine(opts.Collection, shared.WithLogger(opts.Logger, "component", "library")),
		prompter:   opts.Prompter,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		favoritesCommand, playlistsCommand, playlistCommand, allPlaylistsCommand,
		searchCommand, emptyFavoritesCommand, authCommand, cacheCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// service returns the configured collection or fails with a setup hint.
func (r *Runner) service() (services.Collection, error) {
	if r.collection == nil {
		return nil, fmt.Errorf("%w: configure tidal credentials in %s and run 'tidex auth login'",
			shared.ErrMissingCredentials, r.configPath)
	}
	return r.collection, nil
}

// tidal returns the concrete Tidal service when an operation needs more than
// the Collection interface (OAuth flows, token persistence).
func (r *Runner) tidal() (*services.TidalService, error) {
	svc, err := r.service()
	if err != nil {
		return nil, err
	}
	tidal, ok := svc.(*services.TidalService)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support this operation", shared.ErrInvalidArgument, svc.Name())
	}
	return tidal, nil
}

// openCache opens the sqlite cache database and ensures migrations have run.
func (r *Runner) openCache() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	return db, nil
}

// persistConfig writes the current config back to disk, used after token
// rotation so refreshed credentials survive the process.
func (r *Runner) persistConfig() error {
	return shared.SaveConfig(r.configPath, r.config)
}

// exportTracks writes tracks to the --output path in the selected format, or
// renders them to the runner's output when no path was given. Flags left
// unset fall back to the [export] section of the config file.
func (r *Runner) exportTracks(cmd *cli.Command, tracks []models.Track) error {
	fieldSpec := cmd.String("fields")
	if fieldSpec == "" {
		fieldSpec = r.config.Export.Fields
	}
	fields, err := formatter.ParseFields(fieldSpec)
	if err != nil {
		return err
	}

	formatName := cmd.String("format")
	if formatName == "" {
		formatName = r.config.Export.Format
	}
	format, err := formatter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		count, err := formatter.Export(path, tracks, fields, format)
		if err != nil {
			return err
		}
		r.logger.Info("export complete", "path", path, "tracks", count, "format", format)
		return r.writePlain("✓ Exported %d tracks to %s\n", count, path)
	}

	_, err = formatter.Write(r.output, tracks, fields, formatter.ConsoleFormat(format))
	return err
}

// resolvePlaylist turns a playlist ID or name into a playlist. An empty
// idOrName opens the interactive picker.
func (r *Runner) resolvePlaylist(ctx context.Context, idOrName string) (*models.Playlist, error) {
	svc, err := r.service()
	if err != nil {
		return nil, err
	}

	playlists, err := svc.FetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	if idOrName == "" {
		if len(playlists) == 0 {
			return nil, fmt.Errorf("%w: no playlists in library", shared.ErrPlaylistNotFound)
		}
		choice, err := r.prompter.PickPlaylist(ctx, playlists)
		if err != nil {
			return nil, err
		}
		if choice == nil {
			return nil, fmt.Errorf("%w: no playlist selected", shared.ErrMissingArgument)
		}
		return choice, nil
	}

	for _, playlist := range playlists {
		if playlist.ID == idOrName {
			return &playlist, nil
		}
	}
	for _, playlist := range playlists {
		if strings.EqualFold(playlist.Name, idOrName) {
			return &playlist, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, idOrName)
}

// drainProgress logs progress updates until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		r.logger.Debug(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
