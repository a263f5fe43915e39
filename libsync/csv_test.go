package libsync

import (
	"strings"
	"testing"
)

func TestImportCSV_HeaderAndRows(t *testing.T) {
	in := "title,platform\nHollow Knight,steam\nReturnal,epic\n"
	entries, stats, err := ImportCSV(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Imported != 2 || stats.Skipped != 0 {
		t.Fatalf("stats: %+v", stats)
	}
	if entries[0].Title != "Hollow Knight" || entries[0].Platform != "steam" {
		t.Errorf("entries[0]: %+v", entries[0])
	}
	if entries[1].Platform != "epic" {
		t.Errorf("entries[1]: %+v", entries[1])
	}
}

func TestImportCSV_NoHeader(t *testing.T) {
	in := "Hollow Knight,steam\n"
	entries, _, err := ImportCSV(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
}

func TestImportCSV_DefaultPlatform(t *testing.T) {
	in := "title\nCyberpunk 2077\n"
	entries, _, err := ImportCSV(strings.NewReader(in), "gog")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(entries) != 1 || entries[0].Platform != "gog" {
		t.Fatalf("entries: %+v", entries)
	}
}

func TestImportCSV_SkipsMalformedRows(t *testing.T) {
	in := "title,platform\n,steam\nGood Game,gog\n   ,epic\nNo Platform,\n"
	entries, stats, err := ImportCSV(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Imported != 1 {
		t.Fatalf("imported: got %d, want 1 (%+v)", stats.Imported, entries)
	}
	if stats.Skipped != 3 {
		t.Fatalf("skipped: got %d, want 3", stats.Skipped)
	}
}

func TestImportCSV_BOMAndCase(t *testing.T) {
	in := "\uFEFFTitle,Platform\nHades,Steam\n"
	entries, _, err := ImportCSV(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("BOM header not detected: %+v", entries)
	}
	if entries[0].Platform != "steam" {
		t.Errorf("platform not lowercased: %+v", entries[0])
	}
}

func TestGroupByPlatform(t *testing.T) {
	in := "a,steam\nb,gog\nc,steam\n"
	entries, _, err := ImportCSV(strings.NewReader(in), "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	groups := GroupByPlatform(entries)
	if len(groups["steam"]) != 2 || len(groups["gog"]) != 1 {
		t.Fatalf("groups: %+v", groups)
	}
	if groups["steam"][0].Title != "a" || groups["steam"][1].Title != "c" {
		t.Errorf("order not preserved: %+v", groups["steam"])
	}
}
