// Package midiio implements the MIDI event source and sink (spec.md §6):
// decoding a Standard MIDI File into NoteEvents, and encoding a solved
// ChosenFrame sequence back into one.
package midiio

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"fretscribe/frame"
	"fretscribe/mapper"
)

// TicksPerQuarter is the resolution written by Encode; Decode reads
// whatever resolution the source file declares.
const TicksPerQuarter = 960

// DefaultTempo is used by Encode when no tempo is supplied, and is the
// fallback Decode reports if the source file carries no tempo meta event.
const DefaultTempo = 120.0

// Decode reads a Standard MIDI File and returns its NoteEvents in beat
// time plus the tempo (BPM) found in the file, defaulting to DefaultTempo.
// track selects a single 1-based track (spec.md §6 "track (1-based): when
// input has tracks, select one; else all"); track == 0 merges every track
// into one stream. Grounded on the note-on/off pairing-by-pitch-stack
// approach common to SMF readers: a note-off (or note-on with velocity 0)
// closes the most recent unmatched note-on for that pitch.
func Decode(r io.Reader, track int) ([]frame.NoteEvent, float64, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, 0, fmt.Errorf("midiio: parse SMF: %w", err)
	}

	ticksPerQuarter := uint16(TicksPerQuarter)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ticksPerQuarter = mt.Resolution()
	}

	tracks := s.Tracks
	if track > 0 && track <= len(tracks) {
		tracks = tracks[track-1 : track]
	}

	tempo := DefaultTempo
	type openNote struct {
		tick     int64
		velocity uint8
	}

	var events []frame.NoteEvent

	for _, track := range tracks {
		var tick int64
		open := map[uint8][]openNote{}

		for _, ev := range track {
			tick += int64(ev.Delta)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				tempo = bpm
				continue
			}

			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
				open[key] = append(open[key], openNote{tick: tick, velocity: vel})
				continue
			}
			if ev.Message.GetNoteOff(&ch, &key, &vel) || (ev.Message.GetNoteOn(&ch, &key, &vel) && vel == 0) {
				stack := open[key]
				if len(stack) == 0 {
					continue // unmatched note-off, ignore
				}
				on := stack[len(stack)-1]
				open[key] = stack[:len(stack)-1]

				startBeat := float64(on.tick) / float64(ticksPerQuarter)
				durBeat := float64(tick-on.tick) / float64(ticksPerQuarter)
				if durBeat <= 0 {
					durBeat = 0.01
				}
				events = append(events, frame.NoteEvent{
					Pitch:         int(key),
					StartBeat:     frame.FromFloat(startBeat),
					DurationBeats: frame.FromFloat(durBeat),
					Velocity:      int(on.velocity),
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartBeat.Cmp(events[j].StartBeat) < 0
	})

	return events, tempo, nil
}

// Encode writes a solved ChosenFrame sequence to w as a Standard MIDI File
// at the given tempo. Rest frames contribute no notes but still advance
// time. Grounded on the teacher's delta-tick accumulation idiom: each
// track event carries a delta from the previous event, so note-on/off
// pairs are flattened into one time-ordered stream before ticks are
// computed.
func Encode(w io.Writer, frames []mapper.ChosenFrame, tempo float64) error {
	if tempo <= 0 {
		tempo = DefaultTempo
	}

	type tickEvent struct {
		tick int64
		msg  midi.Message
	}

	var evs []tickEvent
	for _, cf := range frames {
		if cf.IsRest {
			continue
		}
		for _, pos := range cf.Positions {
			pitch := uint8(pos.Event.Pitch)
			if pos.Event.Pitch < 0 || pos.Event.Pitch > 127 {
				continue
			}
			vel := uint8(pos.Event.Velocity)
			if vel == 0 {
				vel = 100
			}
			startTick := int64(pos.Event.StartBeat.Float64() * TicksPerQuarter)
			endTick := int64(pos.Event.EndBeat().Float64() * TicksPerQuarter)
			if endTick <= startTick {
				endTick = startTick + 1
			}
			evs = append(evs, tickEvent{tick: startTick, msg: midi.NoteOn(0, pitch, vel)})
			evs = append(evs, tickEvent{tick: endTick, msg: midi.NoteOff(0, pitch)})
		}
	}

	sort.SliceStable(evs, func(i, j int) bool { return evs[i].tick < evs[j].tick })

	track := smf.Track{}
	track.Add(0, smf.MetaTempo(tempo))

	var prevTick int64
	for _, e := range evs {
		delta := uint32(e.tick - prevTick)
		track.Add(delta, e.msg)
		prevTick = e.tick
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	s.Add(track)

	_, err := s.WriteTo(w)
	if err != nil {
		return fmt.Errorf("midiio: write SMF: %w", err)
	}
	return nil
}
