package fretboard

import (
	"testing"

	"fretscribe/theory"
)

func TestPositionsForStandardTuning(t *testing.T) {
	b, err := New(theory.Tunings["standard"], 0, 15, -1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// C4 = 60 is reachable on the B string (index 1, pitch 59) fret 1, the G
	// string (index 2, pitch 55) fret 5, the D string (index 3, pitch 50)
	// fret 10 and the A string (index 4, pitch 45) fret 15; the high e string
	// (index 0, pitch 64) sits above it.
	positions := b.PositionsFor(60)
	if len(positions) == 0 {
		t.Fatalf("expected at least one position for C4")
	}
	for _, p := range positions {
		open := b.Tuning.Notes[p.String]
		if open+p.Fret != 60 {
			t.Errorf("position %+v does not resolve to pitch 60: open=%d", p, open)
		}
	}
}

func TestPositionsForUnplayable(t *testing.T) {
	b, _ := New(theory.Tunings["standard"], 0, 12, -1)
	if got := b.PositionsFor(20); len(got) != 0 {
		t.Errorf("expected no positions for unreachable low pitch, got %v", got)
	}
}

func TestSingleStringConstraint(t *testing.T) {
	b, err := New(theory.Tunings["standard"], 0, 15, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	positions := b.PositionsFor(60) // C4 on G string (index 2, pitch 55) = fret 5
	if len(positions) != 1 {
		t.Fatalf("single_string should yield at most one position, got %v", positions)
	}
	if positions[0].String != 2 || positions[0].Fret != 5 {
		t.Errorf("got %+v, want string=2 fret=5", positions[0])
	}
}

func TestNewRejectsBadGeometry(t *testing.T) {
	if _, err := New(theory.Tunings["standard"], 5, 4, -1); err == nil {
		t.Errorf("expected error when capo exceeds max_fret")
	}
	if _, err := New(theory.Tunings["standard"], 0, 12, 99); err == nil {
		t.Errorf("expected error when single_string exceeds string count")
	}
}

func TestAnalyzeCoverage(t *testing.T) {
	reports := AnalyzeCoverage(theory.Tunings, 40, 64, 0, 15)
	found := false
	for _, r := range reports {
		if r.Preset == "standard" {
			found = true
			if !r.Covers {
				t.Errorf("standard tuning should cover its own open strings' span: missing %v", r.Missing)
			}
		}
	}
	if !found {
		t.Fatalf("expected a report for the standard preset")
	}
}
