package sequencer

import (
	"slices"
	"testing"
)

func TestDetectScaleTriad(t *testing.T) {
	scale, ok := DetectScale(PitchSetOf(60, 64, 67))
	if !ok {
		t.Fatal("DetectScale() found nothing")
	}
	if scale.Root != 0 {
		t.Errorf("Root = %d, want 0", scale.Root)
	}
	for _, pc := range []int{0, 4, 7} {
		if !scale.InScale(pc) {
			t.Errorf("%s does not contain %d", scale.Name(), pc)
		}
	}
	if got := scale.Name(); got != "C Major Penta" {
		t.Errorf("Name() = %q, want C Major Penta", got)
	}
}

func TestDetectScaleEmpty(t *testing.T) {
	if _, ok := DetectScale(0); ok {
		t.Error("DetectScale(empty) should detect nothing")
	}
}

func TestDetectScalePrefersFullFit(t *testing.T) {
	// D dorian pitch classes: only a seven-note scale covers them
	ps := PitchSetOf(62, 64, 65, 67, 69, 71, 72)
	scale, ok := DetectScale(ps)
	if !ok {
		t.Fatal("DetectScale() found nothing")
	}
	for _, pc := range ps.Classes() {
		if !scale.InScale(pc) {
			t.Errorf("%s misses %d", scale.Name(), pc)
		}
	}
}

func TestPitchSet(t *testing.T) {
	ps := PitchSetOf(60, 72, -1, 13)
	if got := ps.Classes(); !slices.Equal(got, []int{0, 1, 11}) {
		t.Errorf("Classes() = %v, want [0 1 11]", got)
	}
	if ps.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ps.Len())
	}
}

func TestCollectPitchClasses(t *testing.T) {
	ts := NewTracks()
	ts[0].Patterns[3].Steps[0].ToggleNote(61, 100)
	ts[4].Patterns[0].Steps[9].ToggleNote(62, 100)

	follow := make([]bool, NumTracks)
	follow[4] = true
	if got := CollectPitchClasses(ts, follow).Classes(); !slices.Equal(got, []int{2}) {
		t.Errorf("Classes() = %v, want [2]", got)
	}
	follow[0] = true
	if got := CollectPitchClasses(ts, follow).Classes(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("Classes() = %v, want [1 2]", got)
	}
}

func TestSessionScaleFollowsEdits(t *testing.T) {
	s := NewSession(nil)
	if s.ScaleOK {
		t.Fatal("empty session should have no scale")
	}
	s.EditStep(4, 0, func(st *Step) { st.SetNotes([]int{57, 60, 64}, nil) })
	if !s.ScaleOK {
		t.Fatal("scale not detected after editing a chord-follow track")
	}
	s.SetChordFollow(4, false)
	if s.ScaleOK {
		t.Error("scale should clear when no track follows chords")
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		note int
		want string
	}{
		{60, "C4"}, {61, "C#4"}, {21, "A0"}, {0, "---"},
	}
	for _, tt := range tests {
		if got := NoteName(tt.note); got != tt.want {
			t.Errorf("NoteName(%d) = %q, want %q", tt.note, got, tt.want)
		}
	}
}
