// package services defines interface Collection for interacting with the
// Tidal Web API
package services

import (
	"context"

	"tidex/internal/models"
)

// Collection defines the authenticated session against a music service.
// Every fetch returns a fully materialized slice or fails; pagination,
// authentication, and rate limiting are internal to the implementation.
type Collection interface {
	// FetchFavorites retrieves the user's favorite tracks.
	FetchFavorites(ctx context.Context) ([]models.Track, error)

	// FetchPlaylists retrieves the user's playlists.
	FetchPlaylists(ctx context.Context) ([]models.Playlist, error)

	// FetchPlaylistTracks retrieves all tracks of a playlist. Returned
	// tracks carry the playlist name in their Playlist field.
	FetchPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// CreatePlaylist creates a new user playlist.
	CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error)

	// AddTracks appends tracks to an existing user playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveAllFavorites removes every track from the favorites collection
	// and returns how many were removed.
	RemoveAllFavorites(ctx context.Context) (int, error)

	// SearchTracks searches the service catalog for tracks.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// ClearPlaylist removes every track from a user-owned playlist.
	ClearPlaylist(ctx context.Context, playlistID string) error

	// Name returns the name of the service (e.g., "Tidal")
	Name() string
}
