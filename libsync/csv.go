package libsync

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dupewatch/dupewatch/library"
)

// ImportStats summarises a CSV import.
type ImportStats struct {
	Imported int
	Skipped  int
}

// ImportCSV reads library entries from CSV. Expected columns are
// `title[,platform]`; a header row is detected and skipped. Rows with an
// empty title, and rows with neither a platform column nor a
// defaultPlatform, are skipped and counted rather than failing the
// import — GOG exports in the wild are messy.
func ImportCSV(r io.Reader, defaultPlatform string) ([]library.Entry, ImportStats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		entries []library.Entry
		stats   ImportStats
		first   = true
	)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("libsync: csv read: %w", err)
		}

		if first {
			first = false
			if isHeaderRow(rec) {
				continue
			}
		}

		title := ""
		if len(rec) > 0 {
			title = strings.TrimSpace(stripBOM(rec[0]))
		}
		platform := defaultPlatform
		if len(rec) > 1 && strings.TrimSpace(rec[1]) != "" {
			platform = strings.ToLower(strings.TrimSpace(rec[1]))
		}

		if title == "" || platform == "" {
			stats.Skipped++
			continue
		}

		entries = append(entries, library.Entry{Title: title, Platform: platform})
		stats.Imported++
	}

	return entries, stats, nil
}

// GroupByPlatform splits entries into per-platform lists, preserving
// order, ready for library.Store.ReplacePlatform.
func GroupByPlatform(entries []library.Entry) map[string][]library.Entry {
	out := make(map[string][]library.Entry)
	for _, e := range entries {
		out[e.Platform] = append(out[e.Platform], e)
	}
	return out
}

func isHeaderRow(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(stripBOM(rec[0])), "title")
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
