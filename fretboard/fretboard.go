// Package fretboard implements the fretted-instrument geometry model:
// tuning plus capo and fret ceiling turned into the set of playable
// (string, fret) positions for any given pitch.
package fretboard

import (
	"sort"

	"fretscribe/ferr"
	"fretscribe/theory"
)

// Position identifies where a pitch can be fretted.
type Position struct {
	String int // 0 = highest-sounding string, matching theory.Tuning ordering
	Fret   int
}

// Open reports whether the position is an open string.
func (p Position) Open() bool { return p.Fret == 0 }

// Board is an immutable fretboard derived from a Tuning, a capo offset and a
// fret ceiling. It never mutates after construction (spec.md §5).
type Board struct {
	Tuning       theory.Tuning
	Capo         int
	MaxFret      int
	SingleString int // -1 when unconstrained, else the forced string index
}

// New constructs a Board. It returns an error if the geometry is internally
// contradictory (spec.md §4.9 "Configuration out of range").
func New(tuning theory.Tuning, capo, maxFret, singleString int) (*Board, error) {
	if len(tuning.Notes) == 0 {
		return nil, ferr.NewConfig("tuning has no strings")
	}
	if capo < 0 || capo > maxFret {
		return nil, ferr.NewConfig("capo %d out of range [0, %d]", capo, maxFret)
	}
	if maxFret < 0 {
		return nil, ferr.NewConfig("max_fret %d must be non-negative", maxFret)
	}
	if singleString >= len(tuning.Notes) {
		return nil, ferr.NewConfig("single_string %d exceeds string count %d", singleString, len(tuning.Notes))
	}
	return &Board{Tuning: tuning, Capo: capo, MaxFret: maxFret, SingleString: singleString}, nil
}

// NumStrings returns the string count.
func (b *Board) NumStrings() int { return len(b.Tuning.Notes) }

// openPitch returns the open-string pitch for stringIdx, capo applied.
func (b *Board) openPitch(stringIdx int) int {
	return b.Tuning.Notes[stringIdx] + b.Capo
}

// PositionsFor enumerates every (string, fret) at which pitch can be played.
// Empty if the pitch is unplayable on this board. Results are sorted by
// string index for determinism (spec.md §8 property 4).
func (b *Board) PositionsFor(pitch int) []Position {
	var positions []Position
	lo, hi := 0, b.NumStrings()-1
	if b.SingleString >= 0 {
		lo, hi = b.SingleString, b.SingleString
	}
	for s := lo; s <= hi; s++ {
		fret := pitch - b.openPitch(s)
		if fret < 0 || fret > b.MaxFret {
			continue
		}
		positions = append(positions, Position{String: s, Fret: fret})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].String < positions[j].String })
	return positions
}

// PitchRange returns the lowest and highest pitch reachable on this board.
func (b *Board) PitchRange() (min, max int) {
	lo, hi := 0, b.NumStrings()-1
	if b.SingleString >= 0 {
		lo, hi = b.SingleString, b.SingleString
	}
	min = 1<<31 - 1
	for s := lo; s <= hi; s++ {
		open := b.openPitch(s)
		if open < min {
			min = open
		}
		top := open + b.MaxFret
		if top > max {
			max = top
		}
	}
	return min, max
}

// Playable reports whether pitch has at least one position on this board
// (PositionsFor is non-empty). Unlike a PitchRange bounds check, this also
// reports false for a pitch that falls into a gap between strings' ranges.
func (b *Board) Playable(pitch int) bool {
	return len(b.PositionsFor(pitch)) > 0
}

// CoverageReport says, for one named preset, whether every pitch in the
// given span is reachable on that preset at the current MaxFret/Capo
// (spec.md §4.1 "analyze(events)").
type CoverageReport struct {
	Preset  string
	Covers  bool
	Missing []int // pitches in span not reachable, if !Covers
}

// AnalyzeCoverage checks a span of pitches (inclusive) against a catalogue
// of tuning presets.
func AnalyzeCoverage(presets map[string]theory.Tuning, minPitch, maxPitch, capo, maxFret int) []CoverageReport {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]CoverageReport, 0, len(names))
	for _, name := range names {
		board, err := New(presets[name], capo, maxFret, -1)
		if err != nil {
			reports = append(reports, CoverageReport{Preset: name, Covers: false})
			continue
		}
		var missing []int
		for p := minPitch; p <= maxPitch; p++ {
			if !board.Playable(p) {
				missing = append(missing, p)
			}
		}
		reports = append(reports, CoverageReport{Preset: name, Covers: len(missing) == 0, Missing: missing})
	}
	return reports
}
