// Package shape recognises a chosen fretting against a catalogue of common
// named guitar chord shapes, purely for human-facing reporting (spec.md
// §4.1's --analyze surface). It is never consulted by the Oracle or Scorer,
// keeping the DP's cost function pure per spec.md §5.
//
// The shape table itself is adapted from the teacher repo's
// midi.GuitarVoicings table (midi/voicings.go), which stored six-fret
// arrays for common open and barre chords to drive backing-track
// accompaniment; here the same shapes are repurposed as a recognition
// catalogue rather than a generator.
package shape

// Named is one entry in the shape catalogue: a fret per string in standard
// six-string order, low E first (index 0) to high e (index 5). -1 means the
// string is not part of the shape.
//
// Barre marks entries where fret 0 is the barring index finger rather than
// a genuine open string: that finger moves with the barre offset, whereas
// an open-chord entry's fret-0 strings stay open at any offset.
type Named struct {
	Name  string
	Frets [6]int
	Barre bool
}

// Catalogue holds the common open-position and first-position barre shapes,
// fret values relative to an implicit capo/barre position of 0.
var Catalogue = []Named{
	{"C", [6]int{-1, 3, 2, 0, 1, 0}, false},
	{"D", [6]int{-1, -1, 0, 2, 3, 2}, false},
	{"E", [6]int{0, 2, 2, 1, 0, 0}, false},
	{"F", [6]int{1, 3, 3, 2, 1, 1}, false},
	{"G", [6]int{3, 2, 0, 0, 0, 3}, false},
	{"A", [6]int{-1, 0, 2, 2, 2, 0}, false},
	{"Am", [6]int{-1, 0, 2, 2, 1, 0}, false},
	{"Em", [6]int{0, 2, 2, 0, 0, 0}, false},
	{"Dm", [6]int{-1, -1, 0, 2, 3, 1}, false},
	{"E7", [6]int{0, 2, 0, 1, 0, 0}, false},
	{"A7", [6]int{-1, 0, 2, 0, 2, 0}, false},
	{"Am7", [6]int{-1, 0, 2, 0, 1, 0}, false},
	{"Em7", [6]int{0, 2, 0, 0, 0, 0}, false},
	{"Cmaj7", [6]int{-1, 3, 2, 0, 0, 0}, false},
	{"E-shape barre", [6]int{0, 2, 2, 1, 0, 0}, true},
	{"A-shape barre", [6]int{-1, 0, 2, 2, 2, 0}, true},
}

// Position mirrors fretboard.Position without importing it, avoiding a
// dependency cycle: package shape only needs (string, fret) pairs.
type Position struct {
	String int
	Fret   int
}

// Match finds the first catalogue entry that matches a set of positions
// exactly, relative to its own minimum fretted fret (so a barre shape at
// fret 5 still matches the fret-0-relative table entry). It returns that
// entry's name and the barre offset that must be added to the table's frets
// to reproduce the given positions, or ("", 0, false) if no catalogue entry
// matches exactly; near misses are not reported.
func Match(positions []Position, numStrings int) (name string, offset int, ok bool) {
	if numStrings != 6 || len(positions) == 0 {
		return "", 0, false
	}

	given := [6]int{-1, -1, -1, -1, -1, -1}
	for _, p := range positions {
		if p.String < 0 || p.String >= 6 {
			return "", 0, false
		}
		given[5-p.String] = p.Fret // flip: shape table is low-E-first, Position.String is high-string-first
	}

	minFretted := -1
	for _, f := range given {
		if f >= 0 && (minFretted == -1 || f < minFretted) {
			minFretted = f
		}
	}
	if minFretted < 0 {
		minFretted = 0
	}

	for _, cand := range Catalogue {
		candMin := -1
		for _, f := range cand.Frets {
			if f >= 0 && (candMin == -1 || f < candMin) {
				candMin = f
			}
		}
		off := minFretted - candMin
		if off < 0 {
			continue
		}
		if shapesEqual(given, cand.Frets, off, cand.Barre) {
			return cand.Name, off, true
		}
	}
	return "", 0, false
}

func shapesEqual(given, table [6]int, offset int, barre bool) bool {
	for i := 0; i < 6; i++ {
		g, tbl := given[i], table[i]
		if (g < 0) != (tbl < 0) {
			return false
		}
		if g < 0 {
			continue
		}
		want := tbl
		if want > 0 || barre {
			want += offset
		}
		if g != want {
			return false
		}
	}
	return true
}
