// package tasks implements library-wide operations over a music service.
//
// The core abstraction is LibraryEngine, which composes the per-endpoint
// fetches of a [services.Collection] into aggregate operations: searching
// the whole library, gathering every playlist's tracks for export, and bulk
// imports from CSV. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"tidex/internal/formatter"
	"tidex/internal/models"
	"tidex/internal/services"
	"tidex/internal/shared"
)

// SearchResults groups library search matches by where they were found.
// Favorites matches always precede playlist matches, and playlist matches
// follow the service's playlist ordering.
type SearchResults struct {
	Query     string
	Matches   []models.Track
	Favorites int // count of matches from favorites
	Playlists int // count of matches from playlists
	Scanned   int // total tracks examined
}

// ImportResult describes a playlist created from a CSV file.
type ImportResult struct {
	Playlist *models.Playlist
	Added    int
	Skipped  int // rows without a track ID
}

// LibraryEngine implements aggregate operations against a single service.
type LibraryEngine struct {
	collection services.Collection
	logger     *log.Logger
}

// NewLibraryEngine creates a LibraryEngine backed by the given service.
func NewLibraryEngine(collection services.Collection, logger *log.Logger) *LibraryEngine {
	return &LibraryEngine{collection: collection, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// SearchLibrary searches the user's entire library for tracks matching query.
// Favorites are scanned first and matches are tagged with a "Favorites"
// source; every playlist is scanned next with the playlist's name as the
// source. A playlist that fails to load is skipped rather than aborting the
// whole search.
func (e *LibraryEngine) SearchLibrary(ctx context.Context, progress chan<- ProgressUpdate, query string) (*SearchResults, error) {
	if e.collection == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}

	results := &SearchResults{Query: query}

	e.sendProgress(progress, fetchFavoritesUpdate(1, 2))
	favorites, err := e.collection.FetchFavorites(ctx)
	if err != nil {
		return nil, err
	}
	results.Scanned += len(favorites)

	e.sendProgress(progress, searchingUpdate(1, 2, "favorites"))
	for _, track := range MatchTracks(query, favorites) {
		track.Source = models.SourceFavorites
		results.Matches = append(results.Matches, track)
		results.Favorites++
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(2, 2))
	playlists, err := e.collection.FetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for i, playlist := range playlists {
		e.sendProgress(progress, fetchTracksUpdate(i+1, len(playlists), playlist.Name))

		tracks, err := e.collection.FetchPlaylistTracks(ctx, playlist.ID)
		if err != nil {
			e.logger.Warn("skipping playlist", "name", playlist.Name, "error", err)
			continue
		}
		results.Scanned += len(tracks)

		for _, track := range MatchTracks(query, tracks) {
			track.Source = playlist.Name
			results.Matches = append(results.Matches, track)
			results.Playlists++
		}
	}

	return results, nil
}

// GatherAllPlaylists fetches every playlist's tracks into one slice, each
// track carrying its playlist name for attribution in exports.
func (e *LibraryEngine) GatherAllPlaylists(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Track, error) {
	if e.collection == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(1, 1))
	playlists, err := e.collection.FetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.Track
	for i, playlist := range playlists {
		e.sendProgress(progress, fetchTracksUpdate(i+1, len(playlists), playlist.Name))

		tracks, err := e.collection.FetchPlaylistTracks(ctx, playlist.ID)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", playlist.Name, err)
		}

		for _, track := range tracks {
			if track.Playlist == "" {
				track.Playlist = playlist.Name
			}
			all = append(all, track)
		}
	}

	return all, nil
}

// EmptyFavorites removes every favorite track and reports how many went.
func (e *LibraryEngine) EmptyFavorites(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	if e.collection == nil {
		return 0, fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}

	e.sendProgress(progress, removeFavoritesUpdate(1, 1))
	return e.collection.RemoveAllFavorites(ctx)
}

// ImportPlaylistCSV creates a new playlist populated with the track IDs read
// from a CSV export. Rows without an id column value are counted as skipped.
func (e *LibraryEngine) ImportPlaylistCSV(ctx context.Context, progress chan<- ProgressUpdate, name, description, csvPath string) (*ImportResult, error) {
	if e.collection == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}

	tracks, err := formatter.LoadTracksCSV(csvPath)
	if err != nil {
		return nil, err
	}

	trackIDs, skipped := collectTrackIDs(tracks)

	playlist, err := e.collection.CreatePlaylist(ctx, name, description)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, createPlaylistUpdate(1, 2, playlist))

	result := &ImportResult{Playlist: playlist, Skipped: skipped}
	if len(trackIDs) == 0 {
		return result, nil
	}

	e.sendProgress(progress, addTracksUpdate(2, 2, len(trackIDs)))
	if err := e.collection.AddTracks(ctx, playlist.ID, trackIDs); err != nil {
		return result, err
	}

	result.Added = len(trackIDs)
	return result, nil
}

// AppendCSVTracks adds the track IDs from a CSV export to an existing
// playlist.
func (e *LibraryEngine) AppendCSVTracks(ctx context.Context, progress chan<- ProgressUpdate, playlistID, csvPath string) (*ImportResult, error) {
	if e.collection == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}

	tracks, err := formatter.LoadTracksCSV(csvPath)
	if err != nil {
		return nil, err
	}

	trackIDs, skipped := collectTrackIDs(tracks)
	result := &ImportResult{Skipped: skipped}
	if len(trackIDs) == 0 {
		return result, nil
	}

	e.sendProgress(progress, addTracksUpdate(1, 1, len(trackIDs)))
	if err := e.collection.AddTracks(ctx, playlistID, trackIDs); err != nil {
		return result, err
	}

	result.Added = len(trackIDs)
	return result, nil
}

// ReorderPlaylistCSV rewrites a playlist's contents to match the row order
// of a CSV export. The playlist is cleared and the tracks re-added in file
// order, so a failure partway leaves the playlist partially rebuilt.
func (e *LibraryEngine) ReorderPlaylistCSV(ctx context.Context, progress chan<- ProgressUpdate, playlistID, csvPath string) (*ImportResult, error) {
	if e.collection == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrNotAuthenticated)
	}

	tracks, err := formatter.LoadTracksCSV(csvPath)
	if err != nil {
		return nil, err
	}

	trackIDs, skipped := collectTrackIDs(tracks)
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track ids in %s", shared.ErrInvalidInput, csvPath)
	}

	if err := e.collection.ClearPlaylist(ctx, playlistID); err != nil {
		return nil, err
	}

	e.sendProgress(progress, addTracksUpdate(1, 1, len(trackIDs)))
	if err := e.collection.AddTracks(ctx, playlistID, trackIDs); err != nil {
		return &ImportResult{Skipped: skipped}, err
	}

	return &ImportResult{Added: len(trackIDs), Skipped: skipped}, nil
}

func collectTrackIDs(tracks []models.Track) (ids []string, skipped int) {
	for _, track := range tracks {
		if track.ID == "" {
			skipped++
			continue
		}
		ids = append(ids, track.ID)
	}
	return ids, skipped
}
