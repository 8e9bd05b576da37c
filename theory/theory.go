// Package theory provides pitch-naming and tuning utilities shared by the
// fretboard model and the configuration surface.
package theory

import "strings"

// NoteNames is the sharp spelling of the twelve pitch classes, C at index 0.
var NoteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNamesFlat is the flat spelling of the twelve pitch classes.
var NoteNamesFlat = []string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// Tuning is an ordered sequence of open-string pitches, index 0 = the
// highest-sounding string, in the universal chromatic scale of spec.md §3
// (0 = C-1, analogous to MIDI note numbers).
type Tuning struct {
	Name  string
	Notes []int // open_pitch[string], highest string first
}

// Tunings is the built-in preset catalogue. Notes are ordered high to low,
// matching the teacher repo's GuitarStringNames convention (display order
// e, B, G, D, A, E) but carried as absolute pitches rather than names.
var Tunings = map[string]Tuning{
	"standard":       {Name: "Standard (E A D G B E)", Notes: []int{64, 59, 55, 50, 45, 40}},
	"drop_d":         {Name: "Drop D", Notes: []int{64, 59, 55, 50, 45, 38}},
	"dadgad":         {Name: "DADGAD", Notes: []int{62, 57, 55, 50, 45, 38}},
	"open_g":         {Name: "Open G", Notes: []int{62, 59, 55, 50, 43, 38}},
	"half_step_down": {Name: "Half-Step Down", Notes: []int{63, 58, 54, 49, 44, 39}},
	"seven_string":   {Name: "7-String Standard", Notes: []int{64, 59, 55, 50, 45, 40, 35}},
	"bass4":          {Name: "Bass (E A D G)", Notes: []int{43, 38, 33, 28}},
	"bass5":          {Name: "5-String Bass (B E A D G)", Notes: []int{43, 38, 33, 28, 23}},
}

// NoteToMidi converts a note-name string ("C", "F#", "Bb", ...) to a pitch
// class in 0..11. Unrecognised input defaults to C, matching the teacher's
// NoteToMidi fallback behaviour.
func NoteToMidi(note string) int {
	note = strings.TrimSpace(note)
	if note == "" {
		return 0
	}

	noteMap := map[string]int{
		"C": 0, "C#": 1, "Db": 1,
		"D": 2, "D#": 3, "Eb": 3,
		"E": 4, "Fb": 4, "E#": 5,
		"F": 5, "F#": 6, "Gb": 6,
		"G": 7, "G#": 8, "Ab": 8,
		"A": 9, "A#": 10, "Bb": 10,
		"B": 11, "Cb": 11, "B#": 0,
	}

	if midi, ok := noteMap[note]; ok {
		return midi
	}

	base := strings.ToUpper(string(note[0]))
	if len(note) >= 2 {
		accidental := string(note[1])
		if accidental == "#" || accidental == "b" {
			if midi, ok := noteMap[base+accidental]; ok {
				return midi
			}
		}
	}
	if midi, ok := noteMap[base]; ok {
		return midi
	}
	return 0
}

// MidiToNote names a pitch class 0..11 using sharp spelling.
func MidiToNote(pitchClass int) string {
	return NoteNames[((pitchClass%12)+12)%12]
}

// ParseNoteList parses a space-separated list of octave-qualified note names
// (e.g. "E2 A2 D3 G3 B3 E4") into absolute pitches, in the order given, for
// use as a custom Tuning. Octave follows the convention where C4 == 60.
func ParseNoteList(s string) ([]int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, false
	}
	notes := make([]int, 0, len(fields))
	for _, f := range fields {
		pitch, ok := parseScientificPitch(f)
		if !ok {
			return nil, false
		}
		notes = append(notes, pitch)
	}
	return notes, true
}

// parseScientificPitch parses "E2", "F#3", "Bb4" into an absolute pitch
// where C4 == 60 (matching the fretboard's universal chromatic index, which
// treats 0 as C-1).
func parseScientificPitch(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i := 1
	if len(s) > 1 && (s[1] == '#' || s[1] == 'b') {
		i = 2
	}
	if i > len(s) {
		return 0, false
	}
	name := s[:i]
	octStr := s[i:]
	if octStr == "" {
		return 0, false
	}
	neg := false
	if octStr[0] == '-' {
		neg = true
		octStr = octStr[1:]
	}
	oct := 0
	for _, r := range octStr {
		if r < '0' || r > '9' {
			return 0, false
		}
		oct = oct*10 + int(r-'0')
	}
	if neg {
		oct = -oct
	}
	pitchClass := NoteToMidi(name)
	return (oct+1)*12 + pitchClass, true
}
