// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"tidex/internal/models"
)

// MockCollection is a configurable test double for [services.Collection].
// Unset function fields fall back to empty results.
type MockCollection struct {
	FavoritesFunc       func(ctx context.Context) ([]models.Track, error)
	PlaylistsFunc       func(ctx context.Context) ([]models.Playlist, error)
	PlaylistTracksFunc  func(ctx context.Context, playlistID string) ([]models.Track, error)
	CreatePlaylistFunc  func(ctx context.Context, name, description string) (*models.Playlist, error)
	AddTracksFunc       func(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveFavoritesFunc func(ctx context.Context) (int, error)
	SearchTracksFunc    func(ctx context.Context, query string, limit int) ([]models.Track, error)
	ClearPlaylistFunc   func(ctx context.Context, playlistID string) error
}

func (m *MockCollection) FetchFavorites(ctx context.Context) ([]models.Track, error) {
	if m.FavoritesFunc != nil {
		return m.FavoritesFunc(ctx)
	}
	return []models.Track{}, nil
}

func (m *MockCollection) FetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockCollection) FetchPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, playlistID)
	}
	return []models.Track{}, nil
}

func (m *MockCollection) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description)
	}
	return &models.Playlist{ID: "mock", Name: name, Description: description}, nil
}

func (m *MockCollection) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockCollection) RemoveAllFavorites(ctx context.Context) (int, error) {
	if m.RemoveFavoritesFunc != nil {
		return m.RemoveFavoritesFunc(ctx)
	}
	return 0, nil
}

func (m *MockCollection) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if m.SearchTracksFunc != nil {
		return m.SearchTracksFunc(ctx, query, limit)
	}
	return []models.Track{}, nil
}

func (m *MockCollection) ClearPlaylist(ctx context.Context, playlistID string) error {
	if m.ClearPlaylistFunc != nil {
		return m.ClearPlaylistFunc(ctx, playlistID)
	}
	return nil
}

func (m *MockCollection) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	RoundTripFunc func(*http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.RoundTripFunc != nil {
		return m.RoundTripFunc(req)
	}
	return nil, errors.New("no response configured")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
