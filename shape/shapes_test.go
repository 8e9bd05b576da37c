package shape

import "testing"

func TestMatchOpenE(t *testing.T) {
	// E major shape: string indices (high-string-first) 0..5 = e,B,G,D,A,E
	// fretboard.Position.String 0 = high e ... 5 = low E
	positions := []Position{
		{String: 5, Fret: 0}, // low E open
		{String: 4, Fret: 2}, // A string fret 2
		{String: 3, Fret: 2}, // D string fret 2
		{String: 2, Fret: 1}, // G string fret 1
		{String: 1, Fret: 0}, // B open
		{String: 0, Fret: 0}, // e open
	}
	name, offset, ok := Match(positions, 6)
	if !ok {
		t.Fatalf("expected a match")
	}
	if name != "E" {
		t.Errorf("got %q, want E", name)
	}
	if offset != 0 {
		t.Errorf("got offset %d, want 0", offset)
	}
}

func TestMatchBarreShapeAtOffset(t *testing.T) {
	// A-shape barre moved up two frets (B major): low E muted, A/e fretted
	// at the barre (fret 2), D/G/B fretted two frets above that.
	positions := []Position{
		{String: 4, Fret: 2},
		{String: 3, Fret: 4},
		{String: 2, Fret: 4},
		{String: 1, Fret: 4},
		{String: 0, Fret: 2},
	}
	name, offset, ok := Match(positions, 6)
	if !ok {
		t.Fatalf("expected a match for a barre shape at a non-zero fret")
	}
	if name != "A-shape barre" {
		t.Errorf("got %q, want A-shape barre", name)
	}
	if offset != 2 {
		t.Errorf("got offset %d, want 2", offset)
	}
}

func TestMatchNoMatch(t *testing.T) {
	positions := []Position{{String: 5, Fret: 7}, {String: 4, Fret: 9}}
	if _, _, ok := Match(positions, 6); ok {
		t.Errorf("expected no match for an arbitrary dyad")
	}
}
