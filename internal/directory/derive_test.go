package directory

import (
	"strings"
	"testing"
)

func TestDeriveNameDeterministic(t *testing.T) {
	ids := []string{"Xy9Z123", "abc_DEF", "9f8e7d6c", "ROOM42"}
	for _, id := range ids {
		first := DeriveName(id)
		for i := 0; i < 5; i++ {
			if got := DeriveName(id); got != first {
				t.Fatalf("DeriveName(%q) not stable: %q vs %q", id, first, got)
			}
		}
	}
}

func TestDeriveNamePassthrough(t *testing.T) {
	// Ids that already read as names come back unchanged.
	for _, id := range []string{"study-group", "general", "my room name", "tech-talk", "Music"} {
		if got := DeriveName(id); got != id {
			t.Errorf("DeriveName(%q) = %q, want passthrough", id, got)
		}
	}
}

func TestDeriveNameVocabulary(t *testing.T) {
	vocab := make(map[string]bool, len(nameWords))
	for _, w := range nameWords {
		vocab[w] = true
	}

	for _, id := range []string{"Xy9Z123", "R2D2", "0ulid0AF", "user1234room"} {
		name := DeriveName(id)
		parts := strings.Split(name, " ")
		if len(parts) != 2 {
			t.Fatalf("DeriveName(%q) = %q, want two words", id, name)
		}
		for _, p := range parts {
			if !vocab[p] {
				t.Errorf("DeriveName(%q) used %q, not in vocabulary", id, p)
			}
		}
	}
}

func TestDeriveNameDistinctIDs(t *testing.T) {
	// Not a collision-freedom guarantee, just a sanity check that the hash
	// actually spreads over the vocabulary.
	seen := make(map[string]bool)
	for _, id := range []string{"A1", "B2", "C3", "D4", "E5", "F6", "G7", "H8"} {
		seen[DeriveName(id)] = true
	}
	if len(seen) < 3 {
		t.Fatalf("expected some spread across derived names, got %d distinct", len(seen))
	}
}

func TestIsReadableName(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"study-group", true},
		{"has space", true},
		{"general", true},
		{"GAMING", true}, // common word, case-insensitive
		{"Xy9Z123", false},
		{"abc123", false},
		{"", false},
	}
	for _, c := range cases {
		if got := isReadableName(c.id); got != c.want {
			t.Errorf("isReadableName(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}
