// package repositories provides the local cache persistence layer.
//
// The cache mirrors the remote library on disk so searches can run without
// touching the API. Rows are grouped by source: the favorites collection is
// one source, and each playlist is a source named after the playlist. A sync
// replaces a source's rows wholesale rather than diffing them.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"tidex/internal/models"
)

// splitArtists undoes the joined storage form of the artists column.
func splitArtists(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, models.ArtistSeparator)
}

// countRows returns the number of rows in a cache table.
func countRows(db *sql.DB, table string) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}
