// Package mapper implements the Frame DP Solver (spec.md §4.5): for each
// frame it builds the set of feasible candidate ChosenFrames, then runs a
// forward dynamic program selecting the minimum-cost path across frames.
package mapper

import (
	"sort"

	"fretscribe/diag"
	"fretscribe/fretboard"
	"fretscribe/frame"
	"fretscribe/oracle"
	"fretscribe/scorer"
)

// ChosenPosition binds one NoteEvent to the (string, fret) the solver
// picked for it.
type ChosenPosition struct {
	Position fretboard.Position
	Event    frame.NoteEvent
}

// ChosenFrame is a Frame annotated with the solver's choice. IsRest is true
// when no feasible combination existed (spec.md §4.9): the original Frame
// is preserved for timing but carries no positions.
type ChosenFrame struct {
	Frame     frame.Frame
	Positions []ChosenPosition
	IsRest    bool
}

// ShapeSignature summarises a ChosenFrame for display/debugging: min/max
// fret among fretted positions, how many positions are fretted, and which
// strings are in use (spec.md §3 "cached shape signature").
type ShapeSignature struct {
	MinFret, MaxFret int
	FrettedCount     int
	Strings          []int
}

// Signature computes the ShapeSignature of a ChosenFrame.
func (c ChosenFrame) Signature() ShapeSignature {
	sig := ShapeSignature{MinFret: -1, MaxFret: -1}
	for _, p := range c.Positions {
		sig.Strings = append(sig.Strings, p.Position.String)
		if p.Position.Fret == 0 {
			continue
		}
		sig.FrettedCount++
		if sig.MinFret == -1 || p.Position.Fret < sig.MinFret {
			sig.MinFret = p.Position.Fret
		}
		if p.Position.Fret > sig.MaxFret {
			sig.MaxFret = p.Position.Fret
		}
	}
	sort.Ints(sig.Strings)
	return sig
}

// Monophonic reports whether the frame contains exactly one ChosenPosition,
// the precondition for articulation inference (spec.md §4.6).
func (c ChosenFrame) Monophonic() bool {
	return !c.IsRest && len(c.Positions) == 1
}

// Config bundles the Oracle and Scorer weights plus the optional beam
// width that bounds candidate-set size for wide chords (spec.md §9 Design
// Notes: "bound by pruning ... beam search. Not required for correctness,
// desirable for long inputs").
type Config struct {
	Oracle    oracle.Weights
	Scorer    scorer.Weights
	BeamWidth int // 0 = unbounded
}

// candidate is an internal, fully-evaluated combination for one frame.
type candidate struct {
	placements []ChosenPosition // ordered by event index within the frame
	shapeCost  float64
	maxFret    int
	strings    []int // sorted, for the deterministic tie-break
}

func (c candidate) less(o candidate) bool {
	if c.maxFret != o.maxFret {
		return c.maxFret < o.maxFret
	}
	n := len(c.strings)
	if len(o.strings) < n {
		n = len(o.strings)
	}
	for i := 0; i < n; i++ {
		if c.strings[i] != o.strings[i] {
			return c.strings[i] < o.strings[i]
		}
	}
	return len(c.strings) < len(o.strings)
}

// dpState is the DP table cell: cumulative cost to reach this candidate,
// plus a back-pointer to the predecessor that produced it. The pointer
// names the frame explicitly rather than assuming "the previous frame",
// because a run of rest frames in between has no candidates of its own;
// prevFrame lets the back-trace jump straight to the last frame that did.
// prevFrame is -1 when this is a path start (no feasible predecessor).
type dpState struct {
	cost      float64
	prevFrame int
	prevCand  int
}

// Solve runs the DP over an ordered Frame sequence and returns the chosen
// path. It never errors: an unplayable frame becomes a rest (spec.md §4.9)
// and is recorded in summary.
func Solve(frames []frame.Frame, board *fretboard.Board, cfg Config, sink diag.Sink, summary *diag.Summary) []ChosenFrame {
	summary.FramesTotal += len(frames)

	candidatesPerFrame := make([][]candidate, len(frames))
	for i, f := range frames {
		candidatesPerFrame[i] = buildCandidates(f, board, cfg)
		if len(candidatesPerFrame[i]) == 0 {
			sink.Infof("frame at beat %.4f: no feasible fretting, emitting rest", f.StartBeat.Float64())
			summary.ChordsUnplayable++
		}
	}

	best := make([][]dpState, len(frames))
	for i, cands := range candidatesPerFrame {
		best[i] = make([]dpState, len(cands))
		if len(cands) == 0 {
			continue
		}
		if i == 0 {
			for ci, c := range cands {
				best[i][ci] = dpState{cost: c.shapeCost, prevFrame: -1}
			}
			continue
		}

		prevCands := candidatesPerFrame[i-1]
		prevBest := best[i-1]

		// Seed for when the previous frame was itself a rest (or a run of
		// them): the DP continues from the minimum cumulative cost of the
		// most recent frame that had feasible candidates, per spec.md §4.5
		// "best[i][∅]" rule, generalised to runs of consecutive rests. The
		// floor carries the actual (frame, candidate) it came from so the
		// back-trace can jump straight to it.
		floorFrame, floorCand, floorCost, haveRestFloor := restFloorCost(candidatesPerFrame, best, i-1)

		for ci, c := range cands {
			bestCost := 0.0
			bestPrevFrame := -1
			bestPrevCand := -1
			haveAny := false

			if len(prevCands) == 0 {
				if haveRestFloor {
					bestCost = floorCost + c.shapeCost
					bestPrevFrame = floorFrame
					bestPrevCand = floorCand
					haveAny = true
				}
			} else {
				placementsC := toPlacements(c)
				for pi, pcand := range prevCands {
					transCost, ok := scorer.Transition(toPlacements(pcand), placementsC, cfg.Scorer)
					if !ok {
						continue
					}
					total := prevBest[pi].cost + transCost + c.shapeCost
					if !haveAny || total < bestCost || (total == bestCost && pcand.less(prevCands[bestPrevCand])) {
						bestCost = total
						bestPrevFrame = i - 1
						bestPrevCand = pi
						haveAny = true
					}
				}
			}

			if !haveAny {
				// every transition was rejected by the neighbor fret-span
				// gate; fall back to shape cost alone, unanchored.
				bestCost = c.shapeCost
				bestPrevFrame = -1
				bestPrevCand = -1
			}
			best[i][ci] = dpState{cost: bestCost, prevFrame: bestPrevFrame, prevCand: bestPrevCand}
		}
	}

	// Back-trace from the arg-min of the last non-rest-forcing frame.
	chosen := make([]ChosenFrame, len(frames))
	lastReal := -1
	lastIdx := -1
	for i := len(frames) - 1; i >= 0; i-- {
		if len(candidatesPerFrame[i]) > 0 {
			lastReal = i
			lastIdx = argminState(best[i], candidatesPerFrame[i])
			break
		}
	}

	// Fill rests for frames after the last feasible one, and anything
	// before the first feasible frame, with empty ChosenFrames.
	for i := range frames {
		chosen[i] = ChosenFrame{Frame: frames[i], IsRest: true}
	}

	i, idx := lastReal, lastIdx
	for i >= 0 && idx >= 0 {
		c := candidatesPerFrame[i][idx]
		chosen[i] = ChosenFrame{Frame: frames[i], Positions: c.placements}
		prevFrame, prevCand := best[i][idx].prevFrame, best[i][idx].prevCand
		if prevFrame < 0 && i > 0 {
			// An unanchored state (every transition gated): continue from the
			// best state of the most recent earlier feasible frame, so that
			// frame is not turned into a rest.
			if f, ci, _, ok := restFloorCost(candidatesPerFrame, best, i-1); ok {
				prevFrame, prevCand = f, ci
			}
		}
		i, idx = prevFrame, prevCand
	}

	return chosen
}

// restFloorCost walks backward from frame index i (inclusive) to find the
// (frame, candidate) with the minimum cumulative cost among the most recent
// frame that had feasible candidates. Used to seed a frame immediately
// following one or more rests, and to let the back-trace jump over the rest
// run straight to the state that produced the floor.
func restFloorCost(candidatesPerFrame [][]candidate, best [][]dpState, i int) (frameIdx, candIdx int, cost float64, ok bool) {
	for ; i >= 0; i-- {
		if len(candidatesPerFrame[i]) == 0 {
			continue
		}
		ci := argminState(best[i], candidatesPerFrame[i])
		return i, ci, best[i][ci].cost, true
	}
	return 0, 0, 0, false
}

func argminState(states []dpState, cands []candidate) int {
	best := 0
	for i := 1; i < len(states); i++ {
		if states[i].cost < states[best].cost || (states[i].cost == states[best].cost && cands[i].less(cands[best])) {
			best = i
		}
	}
	return best
}

func toPlacements(c candidate) []scorer.Placement {
	out := make([]scorer.Placement, len(c.placements))
	for i, p := range c.placements {
		out[i] = scorer.Placement{Position: p.Position}
	}
	return out
}

// buildCandidates enumerates every feasible ChosenFrame for f: the
// Cartesian product of positions_for(event.pitch) across f.Events, filtered
// through the Oracle's feasibility gate, sorted into the canonical order
// (ascending max fret, then lexicographic string set) so that a stable
// strict-less-than comparison during the DP implements the spec's
// tie-break rule for free.
func buildCandidates(f frame.Frame, board *fretboard.Board, cfg Config) []candidate {
	positionsPerEvent := make([][]fretboard.Position, len(f.Events))
	for i, e := range f.Events {
		positionsPerEvent[i] = board.PositionsFor(e.Pitch)
		if len(positionsPerEvent[i]) == 0 {
			return nil // an unplayable pitch reached the solver; treat as rest
		}
	}

	var combos [][]fretboard.Position
	var build func(idx int, used map[int]bool, acc []fretboard.Position)
	build = func(idx int, used map[int]bool, acc []fretboard.Position) {
		if idx == len(positionsPerEvent) {
			combo := make([]fretboard.Position, len(acc))
			copy(combo, acc)
			combos = append(combos, combo)
			return
		}
		for _, pos := range positionsPerEvent[idx] {
			if used[pos.String] {
				continue
			}
			used[pos.String] = true
			build(idx+1, used, append(acc, pos))
			delete(used, pos.String)
		}
	}
	build(0, make(map[int]bool), nil)

	cands := make([]candidate, 0, len(combos))
	for _, combo := range combos {
		oc := make([]oracle.Candidate, len(combo))
		for i, pos := range combo {
			hadOpen := false
			for _, alt := range positionsPerEvent[i] {
				if alt.Fret == 0 {
					hadOpen = true
					break
				}
			}
			oc[i] = oracle.Candidate{Position: pos, HadOpenChoice: hadOpen}
		}
		result := oracle.Score(oc, board.NumStrings(), cfg.Oracle)
		if !result.Feasible {
			continue
		}

		placements := make([]ChosenPosition, len(combo))
		maxFret := 0
		strings := make([]int, len(combo))
		for i, pos := range combo {
			placements[i] = ChosenPosition{Position: pos, Event: f.Events[i]}
			if pos.Fret > maxFret {
				maxFret = pos.Fret
			}
			strings[i] = pos.String
		}
		sort.Ints(strings)

		cands = append(cands, candidate{
			placements: placements,
			shapeCost:  result.Cost,
			maxFret:    maxFret,
			strings:    strings,
		})
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].less(cands[j]) })

	if cfg.BeamWidth > 0 && len(cands) > cfg.BeamWidth {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].shapeCost < cands[j].shapeCost })
		cands = cands[:cfg.BeamWidth]
		sort.Slice(cands, func(i, j int) bool { return cands[i].less(cands[j]) })
	}

	return cands
}
