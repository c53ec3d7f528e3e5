package tasks

import (
	"strings"

	"tidex/internal/models"
)

// MatchTracks filters tracks down to those matching the query. The match is
// a case-insensitive substring test against the title, the joined artist
// list, and the album. An empty query matches every track. Input order is
// preserved and the input slice is never mutated.
func MatchTracks(query string, tracks []models.Track) []models.Track {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return append([]models.Track(nil), tracks...)
	}

	var matched []models.Track
	for _, track := range tracks {
		if trackMatches(needle, track) {
			matched = append(matched, track)
		}
	}
	return matched
}

func trackMatches(needle string, track models.Track) bool {
	if strings.Contains(strings.ToLower(track.Title), needle) {
		return true
	}
	artists := strings.Join(track.Artists, models.ArtistSeparator)
	if strings.Contains(strings.ToLower(artists), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(track.Album), needle)
}
