package frame

import "testing"

func TestRationalAddSub(t *testing.T) {
	a := NewRational(1, 2)
	b := NewRational(1, 4)
	if got := a.Add(b).Float64(); got != 0.75 {
		t.Errorf("1/2 + 1/4 = %v, want 0.75", got)
	}
	if got := a.Sub(b).Float64(); got != 0.25 {
		t.Errorf("1/2 - 1/4 = %v, want 0.25", got)
	}
}

func TestRationalCmp(t *testing.T) {
	a := NewRational(1, 4)
	b := NewRational(1, 2)
	if a.Cmp(b) >= 0 {
		t.Errorf("1/4 should be < 1/2")
	}
	if b.Cmp(a) <= 0 {
		t.Errorf("1/2 should be > 1/4")
	}
	if a.Cmp(a) != 0 {
		t.Errorf("1/4 should equal itself")
	}
}

func TestFromFloatRoundTrips(t *testing.T) {
	for _, f := range []float64{0, 0.125, 0.25, 0.5, 1.0, 2.75} {
		r := FromFloat(f)
		if got := r.Float64(); got != f {
			t.Errorf("FromFloat(%v).Float64() = %v, want %v", f, got, f)
		}
	}
}

func TestNoteEventEndBeat(t *testing.T) {
	e := NoteEvent{StartBeat: NewRational(1, 1), DurationBeats: NewRational(1, 2)}
	if got := e.EndBeat().Float64(); got != 1.5 {
		t.Errorf("EndBeat = %v, want 1.5", got)
	}
}

func TestFrameShortestDuration(t *testing.T) {
	f := Frame{Events: []NoteEvent{
		{DurationBeats: NewRational(1, 2)},
		{DurationBeats: NewRational(1, 4)},
		{DurationBeats: NewRational(1, 1)},
	}}
	if got := f.ShortestDuration().Float64(); got != 0.25 {
		t.Errorf("ShortestDuration = %v, want 0.25", got)
	}
}

func TestSortFramesStable(t *testing.T) {
	frames := []Frame{
		{StartBeat: NewRational(2, 1)},
		{StartBeat: NewRational(0, 1)},
		{StartBeat: NewRational(1, 1)},
	}
	SortFrames(frames)
	for i := 1; i < len(frames); i++ {
		if frames[i-1].StartBeat.Cmp(frames[i].StartBeat) > 0 {
			t.Fatalf("frames not sorted ascending: %+v", frames)
		}
	}
}
