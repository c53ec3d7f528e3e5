package tasks

import (
	"fmt"

	"tidex/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchFavorites Phase = iota
	FetchPlaylists
	FetchTracks
	SearchTracks
	CreatePlaylist
	AddTracks
	RemoveFavorites
)

func (p Phase) String() string {
	switch p {
	case FetchFavorites:
		return "fetch_favorites"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case RemoveFavorites:
		return "remove_favorites"
	default:
		return ""
	}
}

func fetchFavoritesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFavorites,
		Step:    step,
		Total:   total,
		Message: "Fetching favorite tracks...",
	}
}

func fetchPlaylistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: "Fetching playlists...",
	}
}

func fetchTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks: %s...", step, total, name),
	}
}

func searchingUpdate(step, total int, scope string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching %s...", scope),
	}
}

func createPlaylistUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(step, total int, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func removeFavoritesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveFavorites,
		Step:    step,
		Total:   total,
		Message: "Removing favorite tracks...",
	}
}
