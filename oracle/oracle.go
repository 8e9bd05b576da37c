// Package oracle implements the Chord-Shape Oracle (spec.md §4.3): it
// scores — or rejects as infeasible — a set of positions played together.
package oracle

import "fretscribe/fretboard"

// Weights holds every tunable the Oracle reads. All are part of the
// immutable configuration bag passed by reference through a run (spec.md
// §5, §9 "Configuration bag").
type Weights struct {
	UnplayableFretSpan int
	IgnoreOpen         bool

	// FretSpanPenalty is a continuous cost applied to the fret span
	// among fretted positions, in addition to (not instead of) the hard
	// UnplayableFretSpan gate: it steers the DP toward the narrowest
	// feasible shape rather than merely rejecting shapes wider than the
	// gate.
	FretSpanPenalty               float64
	HighFretPenalty               float64
	LowStringHighFretMultiplier   float64
	BarreBonus                    float64
	BarrePenalty                  float64
	PreferOpen                    bool
	FrettedOpenPenalty            float64
	SweetSpotLow, SweetSpotHigh   int
	SweetSpotBonus                float64
}

// Candidate is one (string, fret) assignment under consideration, paired
// with whether an open-string alternative existed for the same pitch but
// was not chosen (needed for the fretted_open_penalty term).
type Candidate struct {
	Position      fretboard.Position
	HadOpenChoice bool // true if positions_for(pitch) included an open string
}

// Result is Score's verdict. Feasible is false (and Cost is ignored) when
// the candidate set cannot be played together.
type Result struct {
	Feasible bool
	Cost     float64
}

// Score evaluates a candidate ChosenFrame. numStrings is the board's total
// string count, needed to determine the "lower half" of the string set for
// the low-string-high-fret term.
func Score(candidates []Candidate, numStrings int, w Weights) Result {
	if !feasible(candidates, numStrings, w) {
		return Result{Feasible: false}
	}

	var cost float64
	minFretted, maxFretted := -1, 0
	allSameFret := true
	firstFretted := -1
	frettedCount := 0
	allFretsInSweetSpot := true

	for _, c := range candidates {
		if c.Position.Fret == 0 {
			continue
		}
		frettedCount++
		if minFretted == -1 || c.Position.Fret < minFretted {
			minFretted = c.Position.Fret
		}
		if c.Position.Fret > maxFretted {
			maxFretted = c.Position.Fret
		}
		if firstFretted == -1 {
			firstFretted = c.Position.Fret
		} else if c.Position.Fret != firstFretted {
			allSameFret = false
		}
		if c.Position.Fret < w.SweetSpotLow || c.Position.Fret > w.SweetSpotHigh {
			allFretsInSweetSpot = false
		}

		if isLowString(c.Position.String, numStrings) {
			cost += w.LowStringHighFretMultiplier * float64(c.Position.Fret)
		}

		if w.PreferOpen && c.HadOpenChoice && c.Position.Fret != 0 {
			cost += w.FrettedOpenPenalty
		}
	}

	cost += w.HighFretPenalty * float64(maxFretted)

	if frettedCount >= 2 {
		cost += w.FretSpanPenalty * float64(maxFretted-minFretted)
	}

	if frettedCount >= 2 && allSameFret {
		cost -= w.BarreBonus - w.BarrePenalty
	}

	if frettedCount > 0 && allFretsInSweetSpot {
		cost -= w.SweetSpotBonus
	}

	return Result{Feasible: true, Cost: cost}
}

func feasible(candidates []Candidate, numStrings int, w Weights) bool {
	seen := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.Position.String] {
			return false
		}
		seen[c.Position.String] = true
	}

	minFret, maxFret := -1, -1
	for _, c := range candidates {
		if w.IgnoreOpen && c.Position.Fret == 0 {
			continue
		}
		if minFret == -1 || c.Position.Fret < minFret {
			minFret = c.Position.Fret
		}
		if maxFret == -1 || c.Position.Fret > maxFret {
			maxFret = c.Position.Fret
		}
	}
	if minFret == -1 {
		return true // no fretted positions, nothing to span
	}
	return maxFret-minFret <= w.UnplayableFretSpan
}

// isLowString reports whether stringIdx is in the lower half of the string
// set. "Lower half" means the lower-pitched strings; with index 0 as the
// highest-sounding string (theory.Tuning convention), that is the strings
// with the largest indices.
func isLowString(stringIdx, numStrings int) bool {
	return stringIdx >= (numStrings+1)/2
}
