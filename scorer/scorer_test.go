package scorer

import (
	"testing"

	"fretscribe/fretboard"
)

func TestCentroidIgnoresOpen(t *testing.T) {
	placements := []Placement{
		{Position: fretboard.Position{String: 0, Fret: 0}},
		{Position: fretboard.Position{String: 1, Fret: 4}},
	}
	c, ok := Centroid(placements, true)
	if !ok || c != 4 {
		t.Errorf("got (%v, %v), want (4, true)", c, ok)
	}
}

func TestMovementPenalty(t *testing.T) {
	w := Weights{MovementPenalty: 2}
	prev := []Placement{{Position: fretboard.Position{String: 0, Fret: 2}}}
	curr := []Placement{{Position: fretboard.Position{String: 0, Fret: 7}}}
	cost, ok := Transition(prev, curr, w)
	if !ok {
		t.Fatalf("expected feasible")
	}
	if cost != 10 {
		t.Errorf("got %v, want 10 (2 * |2-7|)", cost)
	}
}

func TestLetRingBonus(t *testing.T) {
	w := Weights{LetRingBonus: 3}
	prev := []Placement{
		{Position: fretboard.Position{String: 0, Fret: 2}},
		{Position: fretboard.Position{String: 1, Fret: 3}},
	}
	curr := []Placement{{Position: fretboard.Position{String: 0, Fret: 2}}}
	cost, _ := Transition(prev, curr, w)
	if cost != -3 {
		t.Errorf("string 1 rings on, expected -3, got %v", cost)
	}
}

func TestNeighborSpanGate(t *testing.T) {
	w := Weights{CountFretSpanAcrossNeighbors: true, UnplayableFretSpan: 4}
	prev := []Placement{{Position: fretboard.Position{String: 0, Fret: 1}}}
	curr := []Placement{{Position: fretboard.Position{String: 1, Fret: 8}}}
	if _, ok := Transition(prev, curr, w); ok {
		t.Errorf("expected infeasible: combined span is 7 frets")
	}
}
