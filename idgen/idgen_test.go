package idgen

import (
	"strings"
	"testing"
)

func TestNanoID_Length(t *testing.T) {
	for _, length := range []int{8, 12, 16, 24} {
		gen := NanoID(length)
		id := gen()
		if len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
	}
}

func TestNanoID_Alphabet(t *testing.T) {
	gen := NanoID(100)
	id := gen()
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
			t.Fatalf("NanoID: unexpected character %q in %q", c, id)
		}
	}
}

func TestNanoID_Uniqueness(t *testing.T) {
	gen := NanoID(12)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("NanoID: duplicate at iteration %d: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestUUIDv7_Format(t *testing.T) {
	gen := UUIDv7()
	id := gen()
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("UUIDv7: expected 5 parts, got %d in %q", len(parts), id)
	}
	if len(id) != 36 {
		t.Fatalf("UUIDv7: expected length 36, got %d", len(id))
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("adv_", NanoID(8))
	id := gen()
	if !strings.HasPrefix(id, "adv_") {
		t.Fatalf("Prefixed: %q missing prefix", id)
	}
	if len(id) != len("adv_")+8 {
		t.Fatalf("Prefixed: unexpected length %d in %q", len(id), id)
	}
}
