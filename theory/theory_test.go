package theory

import "testing"

func TestParseNoteList(t *testing.T) {
	notes, ok := ParseNoteList("E2 A2 D3 G3 B3 E4")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := []int{40, 45, 50, 55, 59, 64}
	if len(notes) != len(want) {
		t.Fatalf("got %v, want %v", notes, want)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Errorf("note %d: got %d, want %d", i, notes[i], want[i])
		}
	}
}

func TestParseNoteListInvalid(t *testing.T) {
	if _, ok := ParseNoteList(""); ok {
		t.Errorf("expected failure on empty string")
	}
	if _, ok := ParseNoteList("E"); ok {
		t.Errorf("expected failure when octave digits are missing")
	}
}

func TestNoteToMidi(t *testing.T) {
	cases := map[string]int{"C": 0, "C#": 1, "Db": 1, "F#": 6, "Bb": 10, "": 0}
	for in, want := range cases {
		if got := NoteToMidi(in); got != want {
			t.Errorf("NoteToMidi(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestMidiToNote(t *testing.T) {
	if got := MidiToNote(61); got != "C#" {
		t.Errorf("MidiToNote(61) = %q, want C#", got)
	}
	if got := MidiToNote(-1); got != "B" {
		t.Errorf("MidiToNote(-1) = %q, want B", got)
	}
}
