package title

import (
	"testing"

	"github.com/dupewatch/dupewatch/library"
)

func entry(title, platform string) library.Entry {
	return library.Entry{Title: title, Platform: platform}
}

func TestConfidence_Tiers(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Hollow Knight", "Hollow Knight", ConfidenceExact},
		{"Hollow Knight", "HOLLOW KNIGHT", ConfidenceExact},
		{"Foo: Game of the Year Edition", "foo", ConfidenceNormalized},
		{"Foo Deluxe Edition", "Foo (PC)", ConfidenceNormalized},
		{"Foo", "Bar", 0.0},
		{"Hollow Knight", "Hollow Knight: Silksong", 0.0}, // no substring tier
	}
	for _, tc := range cases {
		if got := Confidence(tc.a, tc.b); got != tc.want {
			t.Errorf("Confidence(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestConfidence_EmptyNormalizedNeverMatchesNormalized(t *testing.T) {
	// Two all-noise titles must not confirm each other through the
	// normalized tier. Exact equality still scores.
	if got := Confidence("Deluxe Edition", "Gold"); got != 0.0 {
		t.Fatalf("Confidence(all-noise, all-noise) = %v, want 0", got)
	}
	if got := Confidence("Gold", "Gold"); got != ConfidenceExact {
		t.Fatalf("Confidence(Gold, Gold) = %v, want exact", got)
	}
}

func TestMatch_Reflexive(t *testing.T) {
	entries := []library.Entry{entry("Hollow Knight", "steam")}
	got := Match("Hollow Knight", entries)
	if len(got) != 1 || got[0] != entries[0] {
		t.Fatalf("Match reflexive: got %v", got)
	}
}

func TestMatch_NormalizedClearsThreshold(t *testing.T) {
	got := Match("Foo: Game of the Year Edition", []library.Entry{entry("foo", "epic")})
	if len(got) != 1 {
		t.Fatalf("normalized match: got %d entries, want 1", len(got))
	}
}

func TestMatch_UnrelatedEmpty(t *testing.T) {
	got := Match("Foo", []library.Entry{entry("Bar", "epic")})
	if len(got) != 0 {
		t.Fatalf("unrelated: got %v, want empty", got)
	}
}

func TestMatch_PreservesOrderAndDedupes(t *testing.T) {
	entries := []library.Entry{
		entry("Foo", "steam"),
		entry("Bar", "epic"),
		entry("foo deluxe edition", "gog"),
		entry("Foo", "steam"), // duplicate row from a double import
	}
	got := Match("Foo", entries)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(got), got)
	}
	if got[0].Platform != "steam" || got[1].Platform != "gog" {
		t.Errorf("order: got %v", got)
	}
}

func TestMatch_EmptyLibrary(t *testing.T) {
	if got := Match("Foo", nil); len(got) != 0 {
		t.Fatalf("empty library: got %v", got)
	}
}

func TestExcludePlatform(t *testing.T) {
	entries := []library.Entry{
		entry("Foo", "steam"),
		entry("Foo", "Epic"),
	}
	got := ExcludePlatform(entries, "epic")
	if len(got) != 1 || got[0].Platform != "steam" {
		t.Fatalf("exclude: got %v", got)
	}
	// Current-platform-only ownership yields nothing warn-worthy.
	if got := ExcludePlatform(entries[:1], "steam"); len(got) != 0 {
		t.Fatalf("exclude same platform: got %v", got)
	}
}

func TestMalformedEntry(t *testing.T) {
	if !MalformedEntry(entry("", "steam")) {
		t.Error("empty title: want malformed")
	}
	if !MalformedEntry(entry("Deluxe Edition", "steam")) {
		t.Error("all-noise title: want malformed")
	}
	if MalformedEntry(entry("Hollow Knight", "steam")) {
		t.Error("real title: want well-formed")
	}
}

func TestPlatforms(t *testing.T) {
	got := Platforms([]library.Entry{
		entry("a", "steam"), entry("b", "GOG"), entry("c", "steam"),
	})
	if len(got) != 2 || got[0] != "steam" || got[1] != "gog" {
		t.Fatalf("Platforms: got %v", got)
	}
}
