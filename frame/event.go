// Package frame implements the core data model (spec.md §3) and the Event
// Normaliser (spec.md §4.2): quantising, deduping, transposing and
// range-clipping a raw event stream into an ordered sequence of Frames.
package frame

import "sort"

// Rational is a beat-time value expressed as a rational number so that
// quantisation grids (0.0125 .. 1.0 beats) compare exactly instead of via
// floating point. Beats = Num/Den.
type Rational struct {
	Num, Den int64
}

// NewRational builds a Rational, reducing Den to a positive value.
func NewRational(num, den int64) Rational {
	if den < 0 {
		num, den = -num, -den
	}
	if den == 0 {
		den = 1
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Rational{Num: num, Den: den}
}

// FromFloat converts a float64 beat value to a Rational with denominator
// 1/5120th-beat precision, sufficient for any quantisation grid this system
// supports (finest grid is 1/80 beat; 5120 is a multiple of 80).
func FromFloat(f float64) Rational {
	const scale = 5120
	return NewRational(int64(f*scale+sign(f)*0.5), scale)
}

// Float64 returns the rational as a float64 beat value.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Add returns r + o.
func (r Rational) Add(o Rational) Rational {
	return NewRational(r.Num*o.Den+o.Num*r.Den, r.Den*o.Den)
}

// Sub returns r - o.
func (r Rational) Sub(o Rational) Rational {
	return NewRational(r.Num*o.Den-o.Num*r.Den, r.Den*o.Den)
}

// Cmp returns -1, 0, 1 as r is less than, equal to, or greater than o.
func (r Rational) Cmp(o Rational) int {
	lhs := r.Num * o.Den
	rhs := o.Num * r.Den
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// NoteEvent is an immutable pitch + absolute time + duration + velocity
// record, as produced by an event source (MIDI decode, ASCII-tab parse,
// ...). Once constructed it is never mutated (spec.md §3).
type NoteEvent struct {
	Pitch         int
	StartBeat     Rational
	DurationBeats Rational
	Velocity      int // 0..127
}

// EndBeat returns StartBeat + DurationBeats.
func (e NoteEvent) EndBeat() Rational {
	return e.StartBeat.Add(e.DurationBeats)
}

// Frame is a non-empty set of NoteEvents whose starts coincide after
// quantisation. Frames are totally ordered by StartBeat and never overlap
// in StartBeat.
type Frame struct {
	StartBeat Rational
	Events    []NoteEvent
}

// ShortestDuration returns the duration of the frame's shortest member,
// used for articulation timing (spec.md §3).
func (f Frame) ShortestDuration() Rational {
	if len(f.Events) == 0 {
		return Rational{}
	}
	shortest := f.Events[0].DurationBeats
	for _, e := range f.Events[1:] {
		if e.DurationBeats.Cmp(shortest) < 0 {
			shortest = e.DurationBeats
		}
	}
	return shortest
}

// SortFrames sorts frames by StartBeat ascending, stable so identical
// start-beat frames (which should not occur post-normalisation) keep input
// order.
func SortFrames(frames []Frame) {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].StartBeat.Cmp(frames[j].StartBeat) < 0
	})
}
