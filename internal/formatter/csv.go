package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tidex/internal/models"
	"tidex/internal/shared"
)

// LoadTracksCSV reads a previously exported CSV file back into track records.
//
// The header row determines which fields are populated; columns that aren't
// known fields are skipped and fields missing from the header stay at their
// zero value. Artist cells are split on [models.ArtistSeparator], so the
// export/import round trip is lossless for artist names that don't contain
// the separator.
func LoadTracksCSV(path string) ([]models.Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrExportIO, path, err)
	}
	defer file.Close()

	return ReadTracksCSV(file)
}

// ReadTracksCSV parses CSV track data from a reader. See [LoadTracksCSV].
func ReadTracksCSV(r io.Reader) ([]models.Track, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[int]Field, len(header))
	for i, name := range header {
		field := Field(strings.TrimSpace(strings.ToLower(name)))
		if _, ok := displayNames[field]; ok {
			columns[i] = field
		}
	}

	var tracks []models.Track
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		var track models.Track
		for i, cell := range record {
			field, ok := columns[i]
			if !ok {
				continue
			}
			switch field {
			case FieldID:
				track.ID = cell
			case FieldTitle:
				track.Title = cell
			case FieldArtists:
				if cell != "" {
					track.Artists = strings.Split(cell, models.ArtistSeparator)
				}
			case FieldAlbum:
				track.Album = cell
			case FieldDuration:
				track.Duration = parseDuration(cell)
			case FieldPlaylist:
				track.Playlist = cell
			case FieldSource:
				track.Source = cell
			}
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// parseDuration accepts both plain seconds (CSV exports) and M:SS (hand
// edited files). Unparseable cells come back as zero.
func parseDuration(cell string) int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}

	if minutes, seconds, ok := strings.Cut(cell, ":"); ok {
		m, errM := strconv.Atoi(minutes)
		s, errS := strconv.Atoi(seconds)
		if errM == nil && errS == nil && m >= 0 && s >= 0 && s < 60 {
			return m*60 + s
		}
		return 0
	}

	n, err := strconv.Atoi(cell)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
