package sequencer

import (
	"fmt"
	"testing"
)

func lane(t *testing.T, steps ...[2]int) *TransposeSequence {
	t.Helper()
	ts := NewTransposeSequence()
	for i, s := range steps {
		if !ts.Set(i, s[0], Some(s[1])) {
			t.Fatalf("Set(%d) failed", i)
		}
	}
	return ts
}

func TestTransposeAt(t *testing.T) {
	ts := lane(t, [2]int{0, 4}, [2]int{5, 4}, [2]int{-3, 8})
	if got := ts.TotalDuration(); got != 16 {
		t.Fatalf("TotalDuration() = %d, want 16", got)
	}

	tests := []struct {
		beat, want int
	}{
		{0, 0},
		{3, 0},
		{4, 5},
		{7, 5},
		{8, -3},
		{15, -3},
		{16, 0},
		{20, 5},
		{-1, -3},
	}
	for _, tt := range tests {
		if got := ts.TransposeAt(tt.beat); got != tt.want {
			t.Errorf("TransposeAt(%d) = %d, want %d", tt.beat, got, tt.want)
		}
	}
}

func TestTransposeAtEmpty(t *testing.T) {
	ts := NewTransposeSequence()
	if got := ts.TransposeAt(10); got != 0 {
		t.Errorf("TransposeAt() = %d, want 0", got)
	}
	if got := ts.StepIndexAt(10); got != -1 {
		t.Errorf("StepIndexAt() = %d, want -1", got)
	}
}

func TestTransposeSkipsEmptySlots(t *testing.T) {
	ts := NewTransposeSequence()
	ts.Set(0, 2, Some(4))
	ts.Set(2, 7, Some(4))

	if ts.Len() != 3 || ts.Count() != 2 {
		t.Fatalf("Len() = %d Count() = %d, want 3 2", ts.Len(), ts.Count())
	}
	if got := ts.StepIndexAt(5); got != 2 {
		t.Errorf("StepIndexAt(5) = %d, want 2", got)
	}
	steps, idx := ts.Compacted()
	if len(steps) != 2 || idx[0] != 0 || idx[1] != -1 || idx[2] != 1 {
		t.Errorf("Compacted() = %v %v", steps, idx)
	}
	if got := ts.AuthoredIndex(1); got != 2 {
		t.Errorf("AuthoredIndex(1) = %d, want 2", got)
	}
	if got := ts.AuthoredIndex(2); got != -1 {
		t.Errorf("AuthoredIndex(2) = %d, want -1", got)
	}
}

func TestTransposeSet(t *testing.T) {
	ts := NewTransposeSequence()
	ts.Set(0, 100, None())
	st := ts.Step(0)
	if st.Transpose != MaxTranspose || st.Duration != DefaultDuration || st.Jump != NoJump {
		t.Errorf("new step = %+v", *st)
	}

	ts.Set(0, -3, None())
	if st.Duration != DefaultDuration || st.Transpose != -3 {
		t.Errorf("update without duration = %+v", *st)
	}
	if ts.Set(MaxTransposeSteps, 0, None()) {
		t.Error("Set() past the lane should fail")
	}
}

func TestAdjustDuration(t *testing.T) {
	tests := []struct {
		start, delta, want int
	}{
		{4, 1, 5},
		{4, -1, 3},
		{1, -1, 1},
		{19, 1, 20},
		{20, 1, 24},
		{24, 1, 28},
		{20, -1, 19},
		{24, -1, 20},
		{22, -1, 20},
		{64, 1, 64},
	}
	for _, tt := range tests {
		ts := lane(t, [2]int{0, tt.start})
		got, ok := ts.AdjustDuration(0, tt.delta)
		if !ok || got != tt.want {
			t.Errorf("AdjustDuration(%d, %+d) = %d, want %d", tt.start, tt.delta, got, tt.want)
		}
	}

	if _, ok := NewTransposeSequence().AdjustDuration(0, 1); ok {
		t.Error("AdjustDuration() on an empty slot should fail")
	}
}

func TestDurationBarUnit(t *testing.T) {
	ts := lane(t, [2]int{0, BeatGranularityMax})
	if got, _ := ts.AdjustDuration(0, 1); got != BeatGranularityMax+BeatsPerBar {
		t.Errorf("AdjustDuration() above the threshold = %d, want %d", got, BeatGranularityMax+BeatsPerBar)
	}
	if got, _ := ts.AdjustDuration(0, -1); got != BeatGranularityMax {
		t.Errorf("AdjustDuration() back down = %d, want %d", got, BeatGranularityMax)
	}

	tests := []struct {
		beats int
		want  string
	}{
		{BeatsPerBar - 1, fmt.Sprintf("%d beats", BeatsPerBar-1)},
		{BeatsPerBar, "1 bar"},
		{BeatsPerBar + 1, "1 bar 1"},
		{3 * BeatsPerBar, "3 bars"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.beats); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.beats, got, tt.want)
		}
	}
}

func TestRemoveRetargetsJumps(t *testing.T) {
	ts := lane(t, [2]int{0, 4}, [2]int{1, 4}, [2]int{2, 4}, [2]int{3, 4})
	ts.SetJump(0, 3)
	ts.SetJump(2, 1)
	ts.SetJump(3, 0)

	if !ts.Remove(1) {
		t.Fatal("Remove(1) failed")
	}
	if ts.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ts.Len())
	}
	if got := ts.Step(0).Jump; got != 2 {
		t.Errorf("jump past the removed slot = %d, want 2", got)
	}
	if got := ts.Step(1).Jump; got != NoJump {
		t.Errorf("jump to the removed slot = %d, want %d", got, NoJump)
	}
	if got := ts.Step(2).Jump; got != 0 {
		t.Errorf("jump before the removed slot = %d, want 0", got)
	}
	if ts.Remove(5) {
		t.Error("Remove() of a missing slot should fail")
	}
}

func TestCompact(t *testing.T) {
	ts := NewTransposeSequence()
	ts.Set(0, 1, None())
	ts.Set(1, 2, None())
	ts.Set(4, 3, None())

	ts.Remove(4)
	if ts.Len() != 2 {
		t.Errorf("Len() after removing the last entry = %d, want 2", ts.Len())
	}

	ts.Set(5, 1, None())
	ts.Remove(1)
	if ts.Len() != 5 {
		t.Errorf("Len() = %d, want 5: interior empty slots stay", ts.Len())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		beats int
		want  string
	}{
		{1, "1 beat"},
		{3, "3 beats"},
		{4, "1 bar"},
		{8, "2 bars"},
		{6, "1 bar 2"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.beats); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.beats, got, tt.want)
		}
	}
}
