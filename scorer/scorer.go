// Package scorer implements the Position Scorer (spec.md §4.4): the
// transition cost between two consecutive ChosenFrames.
package scorer

import "fretscribe/fretboard"

// Weights holds every transition-cost tunable.
type Weights struct {
	MovementPenalty                float64
	StringSwitchPenalty            float64
	LetRingBonus                   float64
	CountFretSpanAcrossNeighbors   bool
	UnplayableFretSpan             int
	IgnoreOpen                     bool
}

// Placement is one chosen position within a frame, with the string it
// occupies (for let-ring / string-switch bookkeeping).
type Placement struct {
	Position fretboard.Position
}

// Centroid returns the mean fret among fretted (non-open, when ignoreOpen)
// positions in a set of placements. Returns (0, false) if there are no
// qualifying positions (an all-open or empty frame has no meaningful
// centroid, so movement cost against it is zero).
func Centroid(placements []Placement, ignoreOpen bool) (float64, bool) {
	sum, n := 0, 0
	for _, p := range placements {
		if ignoreOpen && p.Position.Fret == 0 {
			continue
		}
		sum += p.Position.Fret
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// Transition computes the transition cost from a previous frame to a
// candidate frame. Returns (cost, feasible) — feasible is false only when
// CountFretSpanAcrossNeighbors rejects the pairing via the neighbor
// fret-span gate.
func Transition(prev, curr []Placement, w Weights) (float64, bool) {
	if w.CountFretSpanAcrossNeighbors && !neighborSpanOK(prev, curr, w) {
		return 0, false
	}

	var cost float64

	pc, pOK := Centroid(prev, w.IgnoreOpen)
	cc, cOK := Centroid(curr, w.IgnoreOpen)
	if pOK && cOK {
		cost += w.MovementPenalty * absF(pc-cc)
	}

	prevStrings := make(map[int]bool, len(prev))
	for _, p := range prev {
		prevStrings[p.Position.String] = true
	}
	currStrings := make(map[int]bool, len(curr))
	newStrings := 0
	for _, c := range curr {
		currStrings[c.Position.String] = true
		if !prevStrings[c.Position.String] {
			newStrings++
		}
	}
	cost += w.StringSwitchPenalty * float64(newStrings)

	for s := range prevStrings {
		if !currStrings[s] {
			cost -= w.LetRingBonus
		}
	}

	return cost, true
}

func neighborSpanOK(prev, curr []Placement, w Weights) bool {
	minFret, maxFret := -1, -1
	consider := func(p Placement) {
		if w.IgnoreOpen && p.Position.Fret == 0 {
			return
		}
		if minFret == -1 || p.Position.Fret < minFret {
			minFret = p.Position.Fret
		}
		if maxFret == -1 || p.Position.Fret > maxFret {
			maxFret = p.Position.Fret
		}
	}
	for _, p := range prev {
		consider(p)
	}
	for _, p := range curr {
		consider(p)
	}
	if minFret == -1 {
		return true
	}
	return maxFret-minFret <= w.UnplayableFretSpan
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
