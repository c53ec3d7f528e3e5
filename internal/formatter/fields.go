package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"tidex/internal/models"
	"tidex/internal/shared"
)

// Field names a single projectable attribute of a [models.Track].
type Field string

const (
	FieldID       Field = "id"
	FieldTitle    Field = "title"
	FieldArtists  Field = "artists"
	FieldAlbum    Field = "album"
	FieldDuration Field = "duration"
	FieldPlaylist Field = "playlist"
	FieldSource   Field = "source"
)

// DefaultFields is the projection used when the user does not pass --fields.
var DefaultFields = []Field{FieldID, FieldTitle, FieldArtists, FieldAlbum, FieldDuration}

// Target selects how values are rendered: machine-readable (CSV) or
// human-readable (text formats and console tables).
type Target int

const (
	TargetCSV Target = iota
	TargetText
)

// displayNames maps fields to the labels used in text output. CSV headers use
// the field names verbatim.
var displayNames = map[Field]string{
	FieldID:       "ID",
	FieldTitle:    "Title",
	FieldArtists:  "Artists",
	FieldAlbum:    "Album",
	FieldDuration: "Duration",
	FieldPlaylist: "Playlist",
	FieldSource:   "Source",
}

// DisplayName returns the human-readable label for a field.
func (f Field) DisplayName() string {
	if name, ok := displayNames[f]; ok {
		return name
	}
	return string(f)
}

// ParseFields parses a comma-separated field list into an ordered [Field]
// slice. An empty spec yields [DefaultFields]. Unknown names fail with
// [shared.ErrUnknownField] naming the offender, so bad input is rejected
// before any fetch or write happens.
func ParseFields(spec string) ([]Field, error) {
	if strings.TrimSpace(spec) == "" {
		return DefaultFields, nil
	}

	var fields []Field
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		field := Field(name)
		if _, ok := displayNames[field]; !ok {
			return nil, fmt.Errorf("%w: %q", shared.ErrUnknownField, name)
		}
		fields = append(fields, field)
	}

	return fields, nil
}

// Project selects the requested fields from a track, in order, one string per
// field. Artists are joined with [models.ArtistSeparator]; duration renders as
// plain seconds for [TargetCSV] and M:SS for [TargetText]; playlist and source
// project to the empty string when the track has no such association.
func Project(track models.Track, fields []Field, target Target) ([]string, error) {
	values := make([]string, 0, len(fields))

	for _, field := range fields {
		switch field {
		case FieldID:
			values = append(values, track.ID)
		case FieldTitle:
			values = append(values, track.Title)
		case FieldArtists:
			values = append(values, strings.Join(track.Artists, models.ArtistSeparator))
		case FieldAlbum:
			values = append(values, track.Album)
		case FieldDuration:
			if target == TargetCSV {
				values = append(values, strconv.Itoa(track.Duration))
			} else {
				values = append(values, shared.FormatDuration(track.Duration))
			}
		case FieldPlaylist:
			values = append(values, track.Playlist)
		case FieldSource:
			values = append(values, track.Source)
		default:
			return nil, fmt.Errorf("%w: %q", shared.ErrUnknownField, string(field))
		}
	}

	return values, nil
}
