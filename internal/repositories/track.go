package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tidex/internal/models"
	"tidex/internal/shared"
)

// TrackRepository persists cached tracks grouped by source.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// ReplaceSource atomically swaps all cached rows for one source with the
// given tracks. Track order is preserved via insertion order of the rowid.
func (r *TrackRepository) ReplaceSource(source string, tracks []models.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tracks WHERE source = ?", source); err != nil {
		return fmt.Errorf("failed to clear source %q: %w", source, err)
	}

	query := `
		INSERT INTO tracks (id, track_id, title, artists, album, duration, playlist, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	for _, track := range tracks {
		_, err := tx.Exec(query,
			shared.GenerateID(),
			track.ID,
			track.Title,
			strings.Join(track.Artists, models.ArtistSeparator),
			track.Album,
			track.Duration,
			track.Playlist,
			source,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %q: %w", track.Title, err)
		}
	}

	return tx.Commit()
}

// ListBySource retrieves cached tracks for one source in insertion order.
func (r *TrackRepository) ListBySource(source string) ([]models.Track, error) {
	query := `
		SELECT track_id, title, artists, album, duration, playlist, source
		FROM tracks
		WHERE source = ?
		ORDER BY rowid ASC
	`
	return r.queryTracks(query, source)
}

// ListAll retrieves every cached track, favorites first, then playlist
// sources in insertion order.
func (r *TrackRepository) ListAll() ([]models.Track, error) {
	query := `
		SELECT track_id, title, artists, album, duration, playlist, source
		FROM tracks
		ORDER BY CASE WHEN source = ? THEN 0 ELSE 1 END, rowid ASC
	`
	return r.queryTracks(query, models.SourceFavorites)
}

// Count returns the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	return countRows(r.db, "tracks")
}

// DeleteAll removes every cached track.
func (r *TrackRepository) DeleteAll() error {
	if _, err := r.db.Exec("DELETE FROM tracks"); err != nil {
		return fmt.Errorf("failed to clear track cache: %w", err)
	}
	return nil
}

func (r *TrackRepository) queryTracks(query string, args ...any) ([]models.Track, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		var artists string

		if err := rows.Scan(&track.ID, &track.Title, &artists, &track.Album, &track.Duration, &track.Playlist, &track.Source); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		track.Artists = splitArtists(artists)
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}
