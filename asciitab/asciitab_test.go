package asciitab

import (
	"strings"
	"testing"

	"fretscribe/articulation"
	"fretscribe/fretboard"
	"fretscribe/frame"
	"fretscribe/mapper"
)

func TestParseHeaderFields(t *testing.T) {
	input := "// Title: Test Song\n// Tempo: 140\n// Time: 3/4\n// Tuning: standard\n\ne|--5----|\nB|-------|\nG|-------|\nD|-------|\nA|-------|\nE|-------|\n"
	res, err := Parse(input, Options{}, []int{64, 59, 55, 50, 45, 40}, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Header.Title != "Test Song" || res.Header.Tempo != 140 || res.Header.BeatsPerBar != 3 {
		t.Errorf("got header %+v", res.Header)
	}
	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}
	if res.Events[0].Pitch != 69 { // e (64) + fret 5 = 69
		t.Errorf("got pitch %d, want 69", res.Events[0].Pitch)
	}
}

func TestParseRejectsUnequalRowWidths(t *testing.T) {
	input := "e|----|\nB|---|\n"
	_, err := Parse(input, Options{}, []int{64, 59}, 0)
	if err == nil {
		t.Fatalf("expected error for unequal row widths")
	}
}

func TestParseRejectsMissingBar(t *testing.T) {
	input := "e----\nB|----\n"
	_, err := Parse(input, Options{}, []int{64, 59}, 0)
	if err == nil {
		t.Fatalf("expected error for a row missing '|'")
	}
}

func TestParseMultiDigitFret(t *testing.T) {
	input := "e|--12--|\nB|------|\n"
	res, err := Parse(input, Options{}, []int{64, 59}, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0].Pitch != 76 {
		t.Fatalf("got %+v, want single note at pitch 76 (64+12)", res.Events)
	}
}

func TestRenderPlacesNotesAndBars(t *testing.T) {
	ev := frame.NoteEvent{Pitch: 64, StartBeat: frame.FromFloat(0), DurationBeats: frame.FromFloat(0.5)}
	frames := []mapper.ChosenFrame{
		{
			Frame: frame.Frame{StartBeat: ev.StartBeat, Events: []frame.NoteEvent{ev}},
			Positions: []mapper.ChosenPosition{
				{Position: fretboard.Position{String: 0, Fret: 0}, Event: ev},
			},
		},
	}
	out := Render(frames, nil, []string{"e", "B", "G", "D", "A", "E"}, LayoutOptions{MaxLineWidth: 20, BeatsPerBar: 4})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d rows, want 6", len(lines))
	}
	if !strings.HasPrefix(lines[0], "e|") {
		t.Errorf("row 0 should start with the string letter: %q", lines[0])
	}
	if !strings.Contains(lines[0], "0") {
		t.Errorf("expected a fretted '0' on the e row: %q", lines[0])
	}
}

func TestRenderSkipsRestFrames(t *testing.T) {
	frames := []mapper.ChosenFrame{
		{Frame: frame.Frame{StartBeat: frame.FromFloat(0)}, IsRest: true},
	}
	out := Render(frames, nil, []string{"e"}, LayoutOptions{MaxLineWidth: 10})
	if !strings.Contains(out, "----------") {
		t.Errorf("expected an all-rest row, got %q", out)
	}
}

func TestRenderStyledPreservesPlainContent(t *testing.T) {
	plain := "e|--0--|\n"
	styled := RenderStyled(plain)
	if !strings.Contains(styled, "0") {
		t.Errorf("styled output should still contain the fret digit")
	}
}

func TestArticulationGlyphRoundTrip(t *testing.T) {
	for ch, kind := range articulationGlyphs {
		if kind.String() != string(ch) {
			t.Errorf("glyph %q maps to %v whose String() is %q", ch, kind, kind.String())
		}
	}
	_ = articulation.HammerOn
}
