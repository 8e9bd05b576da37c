package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fretscribe/config"
	"fretscribe/frame"
	"fretscribe/mapper"
	"fretscribe/midiio"
)

func TestKindDispatch(t *testing.T) {
	cases := map[string]inputKind{
		"song.mid":  kindMIDI,
		"song.MIDI": kindMIDI,
		"song.tab":  kindASCIITab,
		"song.txt":  kindASCIITab,
		"song.abc":  kindUnknown,
		"song.vex":  kindUnknown,
		"song":      kindUnknown,
	}
	for path, want := range cases {
		if got := kind(path); got != want {
			t.Errorf("kind(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestParseFlagsOnlyAppliesVisitedOverrides(t *testing.T) {
	_, ov, err := parseFlags([]string{"--transpose", "5", "--tuning", "drop_d", "in.mid", "out.tab"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	doc := config.Defaults()
	unsetMaxFret := doc.MaxFret
	ov.apply(&doc)

	if doc.Transpose != 5 {
		t.Errorf("Transpose = %d, want 5", doc.Transpose)
	}
	if string(doc.Tuning) != "drop_d" {
		t.Errorf("Tuning = %q, want drop_d", doc.Tuning)
	}
	if doc.MaxFret != unsetMaxFret {
		t.Errorf("MaxFret changed to %d despite not being passed on the command line", doc.MaxFret)
	}
}

func TestRunMIDIToTab(t *testing.T) {
	dir := t.TempDir()
	midPath := filepath.Join(dir, "in.mid")
	tabPath := filepath.Join(dir, "out.tab")

	if err := writeFixtureMIDI(midPath); err != nil {
		t.Fatalf("writing fixture MIDI: %v", err)
	}

	code := run([]string{midPath, tabPath})
	if code != exitOK {
		t.Fatalf("run() = %d, want %d", code, exitOK)
	}

	data, err := os.ReadFile(tabPath)
	if err != nil {
		t.Fatalf("reading output tab: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "|") {
		t.Errorf("output tab has no string rows: %q", text)
	}
	if !strings.Contains(text, "// Tempo:") {
		t.Errorf("output tab missing header comment: %q", text)
	}
}

func TestRunTranscribePreviewRendersStyledTab(t *testing.T) {
	dir := t.TempDir()
	midPath := filepath.Join(dir, "in.mid")
	outPath := filepath.Join(dir, "out.mid")

	if err := writeFixtureMIDI(midPath); err != nil {
		t.Fatalf("writing fixture MIDI: %v", err)
	}

	code := run([]string{"--preview", midPath, outPath})
	if code != exitOK {
		t.Fatalf("run(--preview) = %d, want %d", code, exitOK)
	}
	// The --preview dump is a styled rendering of the tab even though the
	// write destination above is a MIDI file, not an ASCII tab.
}

func TestRunRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.abc")
	if err := os.WriteFile(inPath, []byte("X:1\n"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	outPath := filepath.Join(dir, "out.mid")

	code := run([]string{inPath, outPath})
	if code != exitUserError {
		t.Fatalf("run() = %d, want %d (unsupported format is a user error)", code, exitUserError)
	}
}

func TestRunAnalyzeMode(t *testing.T) {
	dir := t.TempDir()
	midPath := filepath.Join(dir, "in.mid")
	if err := writeFixtureMIDI(midPath); err != nil {
		t.Fatalf("writing fixture MIDI: %v", err)
	}

	code := run([]string{"--analyze", midPath})
	if code != exitOK {
		t.Fatalf("run(--analyze) = %d, want %d", code, exitOK)
	}
}

func TestRunMissingArgsIsUserError(t *testing.T) {
	if code := run([]string{}); code != exitUserError {
		t.Errorf("run([]) = %d, want %d", code, exitUserError)
	}
	if code := run([]string{"--analyze"}); code != exitUserError {
		t.Errorf("run([--analyze]) = %d, want %d", code, exitUserError)
	}
}

// writeFixtureMIDI encodes a short chosen-frame sequence to path via
// midiio.Encode, giving the CLI tests a real SMF to decode without
// depending on an external fixture file.
func writeFixtureMIDI(path string) error {
	frames := []mapper.ChosenFrame{
		{Positions: []mapper.ChosenPosition{{Event: sampleEvent(60, 0)}}},
		{Positions: []mapper.ChosenPosition{{Event: sampleEvent(64, 0.5)}}},
		{Positions: []mapper.ChosenPosition{{Event: sampleEvent(67, 1.0)}}},
	}
	var buf bytes.Buffer
	if err := midiio.Encode(&buf, frames, 120); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func sampleEvent(pitch int, startBeat float64) frame.NoteEvent {
	return frame.NoteEvent{
		Pitch:         pitch,
		StartBeat:     frame.FromFloat(startBeat),
		DurationBeats: frame.FromFloat(0.5),
		Velocity:      100,
	}
}
