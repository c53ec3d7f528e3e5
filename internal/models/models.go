// package models defines the data model for the Tidal collection extractor
package models

// ArtistSeparator joins and splits multi-artist values everywhere a track is
// rendered as text (CSV cells, console tables, search matching).
const ArtistSeparator = ", "

// SourceFavorites tags tracks that came from the user's favorites collection
// rather than a playlist.
const SourceFavorites = "Favorites"

// Track is a single song entry from the user's collection.
//
// The field set is closed: it corresponds one to one with the user-facing
// projection fields (id, title, artists, album, duration, playlist, source).
// Playlist and Source are empty unless the track was fetched through a
// playlist or tagged by a search.
type Track struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album"`
	Duration int      `json:"duration"` // Duration in seconds
	Playlist string   `json:"playlist,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// Playlist is playlist metadata from the collection. Track membership is
// resolved on demand, never embedded.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}
