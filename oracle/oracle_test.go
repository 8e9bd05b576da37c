package oracle

import (
	"testing"

	"fretscribe/fretboard"
)

func defaultWeights() Weights {
	return Weights{
		UnplayableFretSpan:          4,
		IgnoreOpen:                  true,
		HighFretPenalty:             0.1,
		LowStringHighFretMultiplier: 0.05,
		BarreBonus:                  0,
		BarrePenalty:                0,
		PreferOpen:                  true,
		FrettedOpenPenalty:          1,
		SweetSpotLow:                0,
		SweetSpotHigh:               5,
		SweetSpotBonus:              0.5,
	}
}

func TestFeasibleRejectsSharedString(t *testing.T) {
	cands := []Candidate{
		{Position: fretboard.Position{String: 2, Fret: 3}},
		{Position: fretboard.Position{String: 2, Fret: 5}},
	}
	r := Score(cands, 6, defaultWeights())
	if r.Feasible {
		t.Errorf("expected infeasible when two positions share a string")
	}
}

func TestFeasibleRejectsWideSpan(t *testing.T) {
	cands := []Candidate{
		{Position: fretboard.Position{String: 0, Fret: 1}},
		{Position: fretboard.Position{String: 1, Fret: 10}},
	}
	r := Score(cands, 6, defaultWeights())
	if r.Feasible {
		t.Errorf("expected infeasible for a 9-fret span")
	}
}

func TestIgnoreOpenExcludesOpenFromSpan(t *testing.T) {
	w := defaultWeights()
	cands := []Candidate{
		{Position: fretboard.Position{String: 0, Fret: 0}},
		{Position: fretboard.Position{String: 1, Fret: 4}},
	}
	r := Score(cands, 6, w)
	if !r.Feasible {
		t.Fatalf("expected feasible: open string excluded from span")
	}

	w.IgnoreOpen = false
	r2 := Score(cands, 6, w)
	if !r2.Feasible {
		t.Errorf("span of 4 should still be feasible even counting the open string")
	}
}

func TestBarreDetection(t *testing.T) {
	w := defaultWeights()
	w.BarreBonus = 2
	w.BarrePenalty = 0.5
	cands := []Candidate{
		{Position: fretboard.Position{String: 0, Fret: 3}},
		{Position: fretboard.Position{String: 1, Fret: 3}},
		{Position: fretboard.Position{String: 2, Fret: 3}},
	}
	withBarre := Score(cands, 6, w)

	cands[1].Position.Fret = 4
	withoutBarre := Score(cands, 6, w)

	if withBarre.Cost >= withoutBarre.Cost {
		t.Errorf("same-fret frame should net a barre bonus: with=%v without=%v", withBarre.Cost, withoutBarre.Cost)
	}
}

func TestFretSpanPenaltyPrefersNarrowerShape(t *testing.T) {
	w := defaultWeights()
	w.FretSpanPenalty = 0.5
	narrow := Score([]Candidate{
		{Position: fretboard.Position{String: 0, Fret: 3}},
		{Position: fretboard.Position{String: 1, Fret: 4}},
	}, 6, w)
	wide := Score([]Candidate{
		{Position: fretboard.Position{String: 0, Fret: 2}},
		{Position: fretboard.Position{String: 1, Fret: 5}},
	}, 6, w)
	if narrow.Cost >= wide.Cost {
		t.Errorf("narrower fret span should cost less: narrow=%v wide=%v", narrow.Cost, wide.Cost)
	}

	// Both shapes share max fret 4, so high_fret_penalty cannot tell them
	// apart either; only the span (1 vs 3) differs.
	w.FretSpanPenalty = 0
	narrowNoPenalty := Score([]Candidate{
		{Position: fretboard.Position{String: 0, Fret: 3}},
		{Position: fretboard.Position{String: 1, Fret: 4}},
	}, 6, w)
	wideNoPenalty := Score([]Candidate{
		{Position: fretboard.Position{String: 0, Fret: 1}},
		{Position: fretboard.Position{String: 1, Fret: 4}},
	}, 6, w)
	if narrowNoPenalty.Cost != wideNoPenalty.Cost {
		t.Errorf("zero fret_span_penalty should not distinguish span width: narrow=%v wide=%v", narrowNoPenalty.Cost, wideNoPenalty.Cost)
	}
}

func TestSweetSpotBonus(t *testing.T) {
	w := defaultWeights()
	inSpot := Score([]Candidate{{Position: fretboard.Position{String: 0, Fret: 3}}}, 6, w)
	w.SweetSpotHigh = 2 // now fret 3 falls outside
	outSpot := Score([]Candidate{{Position: fretboard.Position{String: 0, Fret: 3}}}, 6, w)
	if inSpot.Cost >= outSpot.Cost {
		t.Errorf("sweet spot bonus should lower cost: in=%v out=%v", inSpot.Cost, outSpot.Cost)
	}
}
