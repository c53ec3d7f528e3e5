package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tidex/internal/formatter"
	"tidex/internal/models"
	"tidex/internal/repositories"
	"tidex/internal/shared"
	"tidex/internal/tasks"
)

// Favorites exports the favorites collection. With --from-csv the tracks are
// read from a previous export instead of the API, which allows re-projecting
// an existing file into different fields or formats offline.
func (r *Runner) Favorites(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("from-csv"); path != "" {
		tracks, err := formatter.LoadTracksCSV(path)
		if err != nil {
			return err
		}
		r.logger.Info("loaded tracks from csv", "path", path, "count", len(tracks))
		return r.exportTracks(cmd, tracks)
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	tracks, err := svc.FetchFavorites(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("fetched favorites", "count", len(tracks))
	return r.exportTracks(cmd, tracks)
}

// Playlists prints the playlist listing.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	playlists, err := svc.FetchPlaylists(ctx)
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found.\n")
	}

	for _, playlist := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", playlist.ID, playlist.Name, playlist.TrackCount)
	}
	return nil
}

// PlaylistList exports the tracks of one playlist, resolved by ID or name,
// or chosen interactively when the argument is omitted.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("from-csv"); path != "" {
		tracks, err := formatter.LoadTracksCSV(path)
		if err != nil {
			return err
		}
		return r.exportTracks(cmd, tracks)
	}

	playlist, err := r.resolvePlaylist(ctx, cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	tracks, err := svc.FetchPlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return err
	}

	r.logger.Info("fetched playlist", "name", playlist.Name, "tracks", len(tracks))
	return r.exportTracks(cmd, tracks)
}

// PlaylistCreate creates a playlist, optionally filled from a CSV export,
// explicit track ids, or the best catalog match per search query.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	if path := cmd.String("from-csv"); path != "" {
		progress := make(chan tasks.ProgressUpdate, 16)
		done := make(chan struct{})
		go func() {
			r.drainProgress(progress)
			close(done)
		}()

		result, err := r.engine.ImportPlaylistCSV(ctx, progress, name, cmd.String("description"), path)
		close(progress)
		<-done
		if err != nil {
			return err
		}

		r.writePlain("✓ Created playlist %s (ID: %s)\n", result.Playlist.Name, result.Playlist.ID)
		r.writePlain("  Added %d tracks", result.Added)
		if result.Skipped > 0 {
			r.writePlain(", skipped %d rows without ids", result.Skipped)
		}
		return r.writePlain("\n")
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	trackIDs := append([]string(nil), cmd.StringSlice("track")...)
	for _, query := range cmd.StringSlice("search") {
		matches, err := svc.SearchTracks(ctx, query, 1)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			r.logger.Warn("no catalog match", "query", query)
			continue
		}
		trackIDs = append(trackIDs, matches[0].ID)
	}

	playlist, err := svc.CreatePlaylist(ctx, name, cmd.String("description"))
	if err != nil {
		return err
	}

	if err := r.writePlain("✓ Created playlist %s (ID: %s)\n", playlist.Name, playlist.ID); err != nil {
		return err
	}
	if len(trackIDs) == 0 {
		return nil
	}

	if err := svc.AddTracks(ctx, playlist.ID, trackIDs); err != nil {
		return err
	}
	return r.writePlain("  Added %d tracks\n", len(trackIDs))
}

// PlaylistAdd appends tracks to an existing playlist, taken from a CSV
// export or from explicit --track ids.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("from-csv")
	trackIDs := cmd.StringSlice("track")
	if path == "" && len(trackIDs) == 0 {
		return fmt.Errorf("%w: --from-csv or --track", shared.ErrMissingArgument)
	}

	playlist, err := r.resolvePlaylist(ctx, cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	if path != "" {
		result, err := r.engine.AppendCSVTracks(ctx, nil, playlist.ID, path)
		if err != nil {
			return err
		}

		r.writePlain("✓ Added %d tracks to %s", result.Added, playlist.Name)
		if result.Skipped > 0 {
			r.writePlain(" (skipped %d rows without ids)", result.Skipped)
		}
		if err := r.writePlain("\n"); err != nil {
			return err
		}
		if len(trackIDs) == 0 {
			return nil
		}
	}

	svc, err := r.service()
	if err != nil {
		return err
	}
	if err := svc.AddTracks(ctx, playlist.ID, trackIDs); err != nil {
		return err
	}
	return r.writePlain("✓ Added %d tracks to %s\n", len(trackIDs), playlist.Name)
}

// PlaylistReorder rewrites a playlist to match a CSV export's row order.
func (r *Runner) PlaylistReorder(ctx context.Context, cmd *cli.Command) error {
	playlist, err := r.resolvePlaylist(ctx, cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	result, err := r.engine.ReorderPlaylistCSV(ctx, nil, playlist.ID, cmd.String("from-csv"))
	if err != nil {
		return err
	}

	return r.writePlain("✓ Reordered %s to %d tracks\n", playlist.Name, result.Added)
}

// AllPlaylists exports every playlist's tracks in one listing. Each row
// carries its playlist name so the aggregate stays attributable.
func (r *Runner) AllPlaylists(ctx context.Context, cmd *cli.Command) error {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	tracks, err := r.engine.GatherAllPlaylists(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	// Include the playlist column by default so rows stay attributable.
	if cmd.String("fields") == "" {
		if err := cmd.Set("fields", "id,title,artists,album,duration,playlist"); err != nil {
			return err
		}
	}

	r.logger.Info("gathered playlists", "tracks", len(tracks))
	return r.exportTracks(cmd, tracks)
}

// Search matches tracks across favorites and every playlist. With --cached
// the local mirror is scanned instead of the live library, and with
// --from-csv a previous export is scanned.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")

	if path := cmd.String("from-csv"); path != "" {
		tracks, err := formatter.LoadTracksCSV(path)
		if err != nil {
			return err
		}
		return r.printSearchResults(cmd, query, tasks.MatchTracks(query, tracks), len(tracks))
	}

	if cmd.Bool("cached") {
		return r.searchCached(cmd, query)
	}

	if cmd.Bool("remote") {
		return r.searchRemote(ctx, cmd, query)
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	results, err := r.engine.SearchLibrary(ctx, progress, query)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	return r.printSearchResults(cmd, query, results.Matches, results.Scanned)
}

// searchRemote queries the service's catalog search rather than scanning the
// user's own collections.
func (r *Runner) searchRemote(ctx context.Context, cmd *cli.Command, query string) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	matches, err := svc.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		return r.writePlain("No catalog matches for %q.\n", query)
	}
	return r.exportTracks(cmd, matches)
}

func (r *Runner) searchCached(cmd *cli.Command, query string) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	cached, err := repositories.NewTrackRepository(db).ListAll()
	if err != nil {
		return err
	}
	if len(cached) == 0 {
		return fmt.Errorf("%w: cache is empty, run 'tidex cache sync' first", shared.ErrInvalidInput)
	}

	matches := tasks.MatchTracks(query, cached)
	return r.printSearchResults(cmd, query, matches, len(cached))
}

func (r *Runner) printSearchResults(cmd *cli.Command, query string, matches []models.Track, scanned int) error {
	if len(matches) == 0 {
		return r.writePlain("No matches for %q (%d tracks searched).\n", query, scanned)
	}

	// Show provenance by default so each row names where it was found.
	if cmd.String("fields") == "" {
		if err := cmd.Set("fields", "title,artists,album,source"); err != nil {
			return err
		}
	}

	if err := r.exportTracks(cmd, matches); err != nil {
		return err
	}
	if cmd.String("output") == "" {
		return r.writePlainln("%d matches (%d tracks searched)", len(matches), scanned)
	}
	return nil
}

// EmptyFavorites removes every favorite track after a confirmation prompt.
// The prompt is skipped with --yes.
func (r *Runner) EmptyFavorites(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.service(); err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		confirmed, err := r.prompter.Confirm(ctx, "Remove every track from favorites?")
		if err != nil {
			return err
		}
		if !confirmed {
			return r.writePlain("Aborted.\n")
		}
	}

	removed, err := r.engine.EmptyFavorites(ctx, nil)
	if err != nil {
		if removed > 0 {
			r.writePlain("Removed %d tracks before failing.\n", removed)
		}
		return err
	}

	return r.writePlain("✓ Removed %d tracks from favorites\n", removed)
}
