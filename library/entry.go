// Package library is the merged game-library store: every title the user
// owns, keyed by the platform it was synced from. It is the read-only
// collaborator of the page watcher; sync sources own the writes.
package library

import "sort"

// Entry is one owned game. Identity is structural: two entries are the
// same iff title and platform are equal.
type Entry struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
}

// Snapshot is the merged library at one point in time, grouped by
// platform. A pipeline run works against a single snapshot fetched at its
// start; the store may change underneath between reads.
type Snapshot map[string][]Entry

// Platforms returns the snapshot's platform keys, sorted.
func (s Snapshot) Platforms() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// All flattens the snapshot into one slice, in sorted-platform order so
// iteration is deterministic.
func (s Snapshot) All() []Entry {
	var out []Entry
	for _, p := range s.Platforms() {
		out = append(out, s[p]...)
	}
	return out
}

// Total is the number of entries across all platforms.
func (s Snapshot) Total() int {
	n := 0
	for _, entries := range s {
		n += len(entries)
	}
	return n
}
