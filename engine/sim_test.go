package engine

import (
	"strconv"
	"testing"
	"time"
)

func TestSimPlaysSteps(t *testing.T) {
	sim := NewSim(1)
	var played []Note
	sim.OnNote = func(n Note) { played = append(played, n) }

	b := NewBatcher(sim, 0)
	b.Begin()
	b.SetParam(TrackKey(0, "length"), "4")
	b.SetParam(StepKey(0, 0, "clear"), "1")
	b.SetParam(StepKey(0, 0, "add_note"), "60,90")
	b.SetParam(StepKey(0, 2, "clear"), "1")
	b.SetParam(StepKey(0, 2, "add_note"), "62")
	b.End()

	sim.SetParam(KeyPlaying, "1")
	sim.Advance(0)
	if len(played) != 1 || played[0].Note != 60 || played[0].Velocity != 90 {
		t.Fatalf("played after start = %+v, want note 60 vel 90", played)
	}

	sim.Advance(2)
	if got := ReadInt(sim, TrackKey(0, "current_step")); got != 2 {
		t.Errorf("current_step = %d, want 2", got)
	}
	if len(played) != 2 || played[1].Note != 62 || played[1].Velocity != 100 {
		t.Errorf("played = %+v, want second note 62 vel 100", played)
	}

	sim.Advance(2) // wraps at length 4
	if got := ReadInt(sim, TrackKey(0, "current_step")); got != 0 {
		t.Errorf("current_step after wrap = %d, want 0", got)
	}
	if len(played) != 3 {
		t.Errorf("played %d notes, want 3", len(played))
	}
}

func TestSimConditionAndMute(t *testing.T) {
	sim := NewSim(1)
	count := 0
	sim.OnNote = func(Note) { count++ }

	sim.SetParam(TrackKey(1, "length"), "1")
	sim.SetParam(StepKey(1, 0, "add_note"), "48")
	sim.SetParam(StepKey(1, 0, "condition_n"), "2")
	sim.SetParam(StepKey(1, 0, "condition_m"), "1")

	sim.SetParam(KeyPlaying, "1")
	sim.Advance(3) // loops 0..3 play on 0 and 2
	if count != 2 {
		t.Errorf("notes = %d, want 2", count)
	}

	sim.SetParam(TrackKey(1, "mute"), "1")
	sim.Advance(4)
	if count != 2 {
		t.Errorf("notes while muted = %d, want 2", count)
	}
}

func TestSimTransposeReadback(t *testing.T) {
	sim := NewSim(1)
	if got := ReadInt(sim, KeyCurrentTransposeStep); got != -1 {
		t.Errorf("empty lane step = %d, want -1", got)
	}

	sim.SetParam("transpose_clear", "1")
	sim.SetParam(TransposeKey(0, "transpose"), "0")
	sim.SetParam(TransposeKey(0, "duration"), "4")
	sim.SetParam(TransposeKey(1, "transpose"), "7")
	sim.SetParam(TransposeKey(1, "duration"), "4")
	sim.SetParam("transpose_step_count", "2")

	sim.SetParam(KeyPlaying, "1")
	sim.Advance(5)
	if got := ReadInt(sim, KeyCurrentTransposeStep); got != 1 {
		t.Errorf("current_transpose_step = %d, want 1", got)
	}
	if got := ReadInt(sim, KeyCurrentTranspose); got != 7 {
		t.Errorf("current_transpose = %d, want 7", got)
	}
}

func TestSimElapseFollowsTempo(t *testing.T) {
	sim := NewSim(1)
	sim.SetParam("bpm", "150") // 10 steps per second
	sim.SetParam(KeyPlaying, "1")
	sim.Elapse(time.Second)
	if got := sim.Step(); got != 10 {
		t.Errorf("Step() = %d, want 10", got)
	}

	sim.SetParam(KeyPlaying, "0")
	sim.Elapse(time.Second)
	if got := sim.Step(); got != 10 {
		t.Errorf("Step() while stopped = %d, want 10", got)
	}
}

func TestSimMasterReset(t *testing.T) {
	sim := NewSim(1)
	count := 0
	sim.OnNote = func(Note) { count++ }

	sim.SetParam("master_reset", "6")
	sim.SetParam(TrackKey(0, "length"), "16")
	sim.SetParam(StepKey(0, 0, "add_note"), "60")
	sim.SetParam(TrackKey(1, "length"), "2")

	sim.SetParam(KeyPlaying, "1")
	sim.Advance(5)
	if got := ReadInt(sim, TrackKey(0, "current_step")); got != 5 {
		t.Fatalf("current_step before reset = %d, want 5", got)
	}

	sim.Advance(1)
	if got := ReadInt(sim, TrackKey(0, "current_step")); got != 0 {
		t.Errorf("current_step at reset = %d, want 0", got)
	}
	if count != 2 {
		t.Errorf("notes = %d, want 2 (start and reset)", count)
	}
	if got := sim.tracks[1].loops; got != 2 {
		t.Errorf("track 1 loops after reset = %d, want 2", got)
	}

	sim.Advance(2)
	if got := ReadInt(sim, TrackKey(0, "current_step")); got != 2 {
		t.Errorf("current_step after reset = %d, want 2", got)
	}
	if got := sim.tracks[1].loops; got != 3 {
		t.Errorf("track 1 loops = %d, want 3", got)
	}
}

func TestSimMasterResetKeepsTransposePlayhead(t *testing.T) {
	sim := NewSim(1)
	sim.SetParam("master_reset", "6")
	sim.SetParam("transpose_clear", "1")
	sim.SetParam(TransposeKey(0, "transpose"), "0")
	sim.SetParam(TransposeKey(0, "duration"), "4")
	sim.SetParam(TransposeKey(0, "jump"), "0")
	sim.SetParam(TransposeKey(0, "condition_n"), "2")
	sim.SetParam(TransposeKey(0, "condition_m"), "1")
	sim.SetParam(TransposeKey(1, "transpose"), "5")
	sim.SetParam(TransposeKey(1, "duration"), "4")
	sim.SetParam("transpose_step_count", "2")

	sim.SetParam(KeyPlaying, "1")

	// entry 0 repeats once through its jump, so step 6 is still on entry 0
	sim.Advance(6)
	if got := ReadInt(sim, KeyCurrentTransposeStep); got != 0 {
		t.Errorf("current_transpose_step at reset = %d, want 0", got)
	}
	sim.Advance(2)
	if got := ReadInt(sim, KeyCurrentTransposeStep); got != 1 {
		t.Errorf("current_transpose_step = %d, want 1", got)
	}
}

func TestSimTrackReset(t *testing.T) {
	tests := []struct {
		reset    int
		advances int
		want     int
	}{
		{0, 5, 5},
		{3, 2, 2},
		{3, 3, 0},
		{3, 5, 2},
		{4, 8, 0},
		{20, 17, 1}, // wraps at length before the reset
	}

	for _, tt := range tests {
		sim := NewSim(1)
		sim.SetParam(TrackKey(0, "length"), "16")
		sim.SetParam(TrackKey(0, "reset"), strconv.Itoa(tt.reset))
		sim.SetParam(KeyPlaying, "1")
		sim.Advance(tt.advances)
		if got := ReadInt(sim, TrackKey(0, "current_step")); got != tt.want {
			t.Errorf("reset %d after %d steps: current_step = %d, want %d", tt.reset, tt.advances, got, tt.want)
		}
	}
}
