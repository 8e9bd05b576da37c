// Package articulation implements the Articulation Inferrer (spec.md §4.6):
// it labels transitions between consecutive monophonic ChosenFrames as
// legato, slide, or tap runs. Labels are a side channel — positions chosen
// by the DP are never altered.
package articulation

import "fretscribe/mapper"

// Kind enumerates the transition labels spec.md §4.6 and §6 define.
type Kind int

const (
	// None is emitted when no articulation applies (re-articulation, gap
	// too large, or not the same string).
	None Kind = iota
	HammerOn
	PullOff
	SlideUp
	SlideDown
	Tap
)

// String renders the single-character tab glyph spec.md §6 assigns.
func (k Kind) String() string {
	switch k {
	case HammerOn:
		return "h"
	case PullOff:
		return "p"
	case SlideUp:
		return "/"
	case SlideDown:
		return "\\"
	case Tap:
		return "t"
	default:
		return ""
	}
}

// Weights holds the tunables spec.md §6 lists under Scorer weights but that
// belong conceptually to articulation: the legato gap threshold, the fret
// distance beyond which a same-string transition reads as a slide instead
// of a hammer-on/pull-off, the run length before interior transitions
// upgrade to tap, and the hand-span threshold (mirrors the Oracle's
// unplayable_fret_span) used to decide whether a run is wide enough to tap.
type Weights struct {
	LegatoTimeThreshold float64 // beats
	SlideFretThreshold  int     // fret delta strictly greater than this is a slide
	TappingRunThreshold int     // minimum run length (note count) to consider tap
	HandSpan            int     // fret stretch beyond which a run reads as tap, not legato
	Disabled            bool    // no_articulations
}

// Transition is one labeled hop between two consecutive monophonic frames.
type Transition struct {
	FromFrame int // index into the ChosenFrame slice
	ToFrame   int
	Kind      Kind
}

// Infer walks a solved sequence and returns the transitions between
// consecutive monophonic frames, skipping rests and chords (spec.md §4.6:
// "runs after the DP on consecutive monophonic frames"). A rest or a chord
// breaks the run: no transition is emitted across it, and the next
// monophonic frame starts a fresh run with no predecessor.
func Infer(frames []mapper.ChosenFrame, w Weights) []Transition {
	if w.Disabled {
		return nil
	}

	var out []Transition
	prev := -1
	runStart := -1 // index into frames of the first note in the current legato run

	for i, f := range frames {
		if !f.Monophonic() {
			prev = -1
			runStart = -1
			continue
		}
		if prev == -1 {
			prev = i
			runStart = i
			continue
		}

		kind, legato := classify(frames[prev], f, w)
		out = append(out, Transition{FromFrame: prev, ToFrame: i, Kind: kind})

		if !legato {
			runStart = i
		}
		prev = i

		if legato && kind != None {
			upgradeRunToTap(frames, out, runStart, i, w)
		}
	}

	return out
}

// classify decides the label for one prev→curr hop. legato reports whether
// this hop continues a same-string legato run (for tap-run accounting),
// independent of which specific Kind was assigned.
func classify(prev, curr mapper.ChosenFrame, w Weights) (kind Kind, legato bool) {
	prevPos := prev.Positions[0].Position
	currPos := curr.Positions[0].Position

	gap := curr.Frame.StartBeat.Sub(prev.Positions[0].Event.EndBeat()).Float64()
	if gap > w.LegatoTimeThreshold || prevPos.String != currPos.String {
		return None, false
	}

	delta := currPos.Fret - prevPos.Fret
	if delta == 0 {
		return None, true // re-articulation: same fret, same string
	}
	if abs(delta) > w.SlideFretThreshold {
		if delta > 0 {
			return SlideUp, true
		}
		return SlideDown, true
	}
	if delta > 0 {
		return HammerOn, true
	}
	return PullOff, true
}

// upgradeRunToTap rewrites the interior transitions of the legato run
// [runStart, end] to Tap when the run's length meets TappingRunThreshold
// and its total fret stretch exceeds HandSpan (spec.md §4.6: "interior
// transitions" — the endpoints of the run keep their original label).
func upgradeRunToTap(frames []mapper.ChosenFrame, transitions []Transition, runStart, end int, w Weights) {
	runLen := countRun(frames, runStart, end)
	if runLen < w.TappingRunThreshold {
		return
	}
	minFret, maxFret := runFretSpan(frames, runStart, end)
	if maxFret-minFret <= w.HandSpan {
		return
	}
	for idx := range transitions {
		t := transitions[idx]
		if t.FromFrame <= runStart || t.ToFrame >= end {
			continue // endpoints of the run are not interior
		}
		if t.FromFrame >= runStart && t.ToFrame <= end {
			transitions[idx].Kind = Tap
		}
	}
}

func countRun(frames []mapper.ChosenFrame, start, end int) int {
	n := 0
	for i := start; i <= end; i++ {
		if frames[i].Monophonic() {
			n++
		}
	}
	return n
}

func runFretSpan(frames []mapper.ChosenFrame, start, end int) (min, max int) {
	min, max = -1, -1
	for i := start; i <= end; i++ {
		if !frames[i].Monophonic() {
			continue
		}
		fret := frames[i].Positions[0].Position.Fret
		if min == -1 || fret < min {
			min = fret
		}
		if fret > max {
			max = fret
		}
	}
	return min, max
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
