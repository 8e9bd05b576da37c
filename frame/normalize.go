package frame

import "fretscribe/diag"

// PitchMode controls what happens to an event whose pitch falls outside the
// fretboard's playable range (spec.md §4.2 step 2).
type PitchMode int

const (
	// PitchDrop discards unplayable events.
	PitchDrop PitchMode = iota
	// PitchNormalize folds the pitch by octaves until it lands in range,
	// dropping it if no octave-shift succeeds.
	PitchNormalize
)

// Resolution is a valid quantisation grid, expressed in beats.
type Resolution float64

// Resolutions enumerates the grid values spec.md §4.2 step 6 allows.
var Resolutions = []Resolution{0.0125, 0.0625, 0.125, 0.25, 0.5, 1.0}

// Options configures the Normaliser pipeline. Every step except frame
// grouping is toggleable per spec.md §4.2; they run in the fixed order:
// nudge, transpose, range constraint, pre-quantize, frame grouping,
// monophonic reduction, dedupe (the last two act within each grouped frame).
type Options struct {
	// Nudge shifts every event's start beat right by Nudge*0.25 beats
	// (spec.md §6 CLI surface) before any other normalisation step runs.
	Nudge int

	Transpose int // signed semitone shift, applied right after Nudge

	ConstrainPitch bool
	PitchMode      PitchMode
	PitchRangeMin  int
	PitchRangeMax  int

	MonoLowestOnly bool
	Dedupe         bool
	PreQuantize    bool

	GridResolution Resolution // frame-grouping grid, always applied
}

// Normalize runs the full pipeline over a raw event slice (arbitrary input
// order) and returns a strictly time-ordered sequence of Frames.
func Normalize(events []NoteEvent, opt Options, sink diag.Sink, summary *diag.Summary) []Frame {
	working := make([]NoteEvent, 0, len(events))
	nudge := FromFloat(float64(opt.Nudge) * 0.25)

	for _, e := range events {
		// 0. Nudge (applied before the numbered pipeline; spec.md §6).
		if opt.Nudge != 0 {
			e.StartBeat = e.StartBeat.Add(nudge)
		}

		// 1. Transpose
		e.Pitch += opt.Transpose

		// 2. Range constraint
		if opt.ConstrainPitch && (e.Pitch < opt.PitchRangeMin || e.Pitch > opt.PitchRangeMax) {
			e, ok := foldIntoRange(e, opt)
			if !ok {
				sink.Debugf("dropping event pitch=%d: outside playable range after folding", e.Pitch)
				summary.NotesDropped++
				continue
			}
			working = append(working, e)
			continue
		}

		working = append(working, e)
	}

	// 3. Pre-quantize (snap start beats to the grid before grouping, so
	// monophonic reduction / dedupe see the post-snap groupings too).
	if opt.PreQuantize {
		for i := range working {
			working[i].StartBeat = snap(working[i].StartBeat, opt.GridResolution)
		}
	}

	// 6. Frame grouping (always performed) — group first so mono reduction
	// and dedupe operate within the same simultaneous set the spec defines
	// them over ("within each simultaneous set").
	frames := group(working, opt.GridResolution)

	for i := range frames {
		evs := frames[i].Events

		// 4. Monophonic reduction: keep only the lowest pitch.
		if opt.MonoLowestOnly && len(evs) > 1 {
			lowest := evs[0]
			for _, e := range evs[1:] {
				if e.Pitch < lowest.Pitch {
					lowest = e
				}
			}
			evs = []NoteEvent{lowest}
		}

		// 5. Dedup: identical pitch within the same frame collapses to one.
		if opt.Dedupe {
			seen := make(map[int]bool, len(evs))
			deduped := evs[:0:0]
			for _, e := range evs {
				if seen[e.Pitch] {
					continue
				}
				seen[e.Pitch] = true
				deduped = append(deduped, e)
			}
			evs = deduped
		}

		frames[i].Events = evs
	}

	SortFrames(frames)
	return frames
}

// foldIntoRange repeatedly shifts e by +/-12 semitones (whichever direction
// moves it toward the range) until it lands within [min, max], or reports
// failure if neither direction succeeds (spec.md §4.2 step 2: "When neither
// succeeds, drop").
func foldIntoRange(e NoteEvent, opt Options) (NoteEvent, bool) {
	if opt.PitchMode != PitchNormalize {
		return e, false
	}
	if e.Pitch < opt.PitchRangeMin {
		for e.Pitch < opt.PitchRangeMin {
			e.Pitch += 12
			if e.Pitch > opt.PitchRangeMax {
				return e, false
			}
		}
		return e, true
	}
	for e.Pitch > opt.PitchRangeMax {
		e.Pitch -= 12
		if e.Pitch < opt.PitchRangeMin {
			return e, false
		}
	}
	return e, true
}

// snap rounds a beat position to the nearest multiple of the grid
// resolution.
func snap(b Rational, grid Resolution) Rational {
	g := FromFloat(float64(grid))
	if g.Num == 0 {
		return b
	}
	// cell = round(b / g); snapped = cell * g
	cellFloat := b.Float64() / g.Float64()
	cell := int64(cellFloat)
	frac := cellFloat - float64(cell)
	if frac >= 0.5 {
		cell++
	} else if frac <= -0.5 {
		cell--
	}
	return NewRational(cell*g.Num, g.Den)
}

// group buckets events into Frames by their quantised start-beat grid
// cell, regardless of whether PreQuantize already snapped StartBeat
// in place (grouping always re-derives the cell so un-pre-quantized
// streams still group correctly).
func group(events []NoteEvent, grid Resolution) []Frame {
	cells := make(map[int64][]NoteEvent)
	order := make([]int64, 0)
	g := FromFloat(float64(grid))

	for _, e := range events {
		cellFloat := e.StartBeat.Float64() / g.Float64()
		cell := int64(cellFloat + 0.5)
		if _, ok := cells[cell]; !ok {
			order = append(order, cell)
		}
		cells[cell] = append(cells[cell], e)
	}

	frames := make([]Frame, 0, len(order))
	for _, cell := range order {
		frames = append(frames, Frame{
			StartBeat: NewRational(cell*g.Num, g.Den),
			Events:    cells[cell],
		})
	}
	return frames
}
