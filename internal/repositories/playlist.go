package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// PlaylistCacheEntry is the cached form of a playlist listing row.
type PlaylistCacheEntry struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	SyncedAt    time.Time
}

// PlaylistRepository persists the cached playlist listing.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Replace swaps the whole cached listing for the given entries.
func (r *PlaylistRepository) Replace(entries []PlaylistCacheEntry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM playlists"); err != nil {
		return fmt.Errorf("failed to clear playlist cache: %w", err)
	}

	query := `
		INSERT INTO playlists (id, name, description, track_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now()
	for _, entry := range entries {
		if _, err := tx.Exec(query, entry.ID, entry.Name, entry.Description, entry.TrackCount, now); err != nil {
			return fmt.Errorf("failed to insert playlist %q: %w", entry.Name, err)
		}
	}

	return tx.Commit()
}

// List retrieves the cached playlist listing in insertion order.
func (r *PlaylistRepository) List() ([]PlaylistCacheEntry, error) {
	query := `
		SELECT id, name, description, track_count, created_at
		FROM playlists
		ORDER BY rowid ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var entries []PlaylistCacheEntry
	for rows.Next() {
		var entry PlaylistCacheEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Description, &entry.TrackCount, &entry.SyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Count returns the number of cached playlists.
func (r *PlaylistRepository) Count() (int, error) {
	return countRows(r.db, "playlists")
}

// DeleteAll removes the cached playlist listing.
func (r *PlaylistRepository) DeleteAll() error {
	if _, err := r.db.Exec("DELETE FROM playlists"); err != nil {
		return fmt.Errorf("failed to clear playlist cache: %w", err)
	}
	return nil
}
