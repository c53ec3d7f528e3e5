// package formatter implements field projection and track export to CSV and
// plain-text layouts (simple table, detailed blocks, bare IDs)
package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"tidex/internal/models"
	"tidex/internal/shared"
)

// Format selects the output layout for exported tracks.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatSimple   Format = "simple"
	FormatDetailed Format = "detailed"
	FormatIDs      Format = "ids"
)

// ParseFormat validates a format name from the CLI.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCSV, FormatSimple, FormatDetailed, FormatIDs:
		return Format(name), nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownFormat, name)
	}
}

// ConsoleFormat resolves the format used when writing to the console rather
// than a file: the simple table unless the user explicitly asked for the
// detailed or ids layout.
func ConsoleFormat(requested Format) Format {
	if requested == FormatDetailed || requested == FormatIDs {
		return requested
	}
	return FormatSimple
}

// Export writes all tracks to the destination path in the given format and
// returns the number of records written. The file is created fresh on every
// call. An unwritable destination fails with [shared.ErrExportIO] naming the
// path. An empty track slice is not an error: CSV output is header-only, text
// output is empty, and the returned count is zero.
func Export(path string, tracks []models.Track, fields []Field, format Format) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", shared.ErrExportIO, path, err)
	}
	defer file.Close()

	count, err := Write(file, tracks, fields, format)
	if err != nil {
		return count, fmt.Errorf("%w: %s: %v", shared.ErrExportIO, path, err)
	}

	if err := file.Close(); err != nil {
		return count, fmt.Errorf("%w: %s: %v", shared.ErrExportIO, path, err)
	}

	return count, nil
}

// Write renders all tracks to w in the given format. Every record is visited
// exactly once, in input order.
func Write(w io.Writer, tracks []models.Track, fields []Field, format Format) (int, error) {
	switch format {
	case FormatCSV:
		return writeCSV(w, tracks, fields)
	case FormatSimple:
		return writeSimple(w, tracks, fields)
	case FormatDetailed:
		return writeDetailed(w, tracks, fields)
	case FormatIDs:
		return writeIDs(w, tracks)
	default:
		return 0, fmt.Errorf("%w: %q", shared.ErrUnknownFormat, string(format))
	}
}

// writeCSV writes a header row with the requested field names verbatim, then
// one projected row per track. Quoting and escaping follow encoding/csv
// (RFC 4180).
func writeCSV(w io.Writer, tracks []models.Track, fields []Field) (int, error) {
	writer := csv.NewWriter(w)

	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = string(field)
	}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, track := range tracks {
		row, err := Project(track, fields, TargetCSV)
		if err != nil {
			return i, err
		}
		if err := writer.Write(row); err != nil {
			return i, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return len(tracks), fmt.Errorf("CSV writer error: %w", err)
	}

	return len(tracks), nil
}

// writeSimple renders an aligned table: header row plus one row per track,
// each column padded to its maximum observed width. Widths are computed in a
// first pass over the projected rows, then everything is rendered.
func writeSimple(w io.Writer, tracks []models.Track, fields []Field) (int, error) {
	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = field.DisplayName()
	}

	rows := make([][]string, 0, len(tracks)+1)
	rows = append(rows, header)
	for _, track := range tracks {
		row, err := Project(track, fields, TargetText)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(fields))
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(cell)
			if i < len(row)-1 {
				line.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
			}
		}
		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return 0, err
		}
	}

	return len(tracks), nil
}

// writeDetailed renders one block per track with a "Label: value" line per
// requested field, blocks separated by a blank line.
func writeDetailed(w io.Writer, tracks []models.Track, fields []Field) (int, error) {
	for i, track := range tracks {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return i, err
			}
		}

		row, err := Project(track, fields, TargetText)
		if err != nil {
			return i, err
		}

		for j, field := range fields {
			if _, err := fmt.Fprintf(w, "%s: %s\n", field.DisplayName(), row[j]); err != nil {
				return i, err
			}
		}
	}

	return len(tracks), nil
}

// writeIDs renders one bare track ID per line. The requested fields are not
// consulted.
func writeIDs(w io.Writer, tracks []models.Track) (int, error) {
	for i, track := range tracks {
		if _, err := fmt.Fprintln(w, track.ID); err != nil {
			return i, err
		}
	}
	return len(tracks), nil
}
