package sequencer

import (
	"reflect"
	"strings"
	"testing"

	"go-seqomd/engine"
)

func syncedSession(t *testing.T) (*Session, *engine.Store) {
	t.Helper()
	store := engine.NewStore()
	s := NewSession(nil)
	s.AttachEngine(NewSyncer(store, 0))
	return s, store
}

func TestJumpRemap(t *testing.T) {
	s, store := syncedSession(t)

	s.EditTranspose(func(ts *TransposeSequence) {
		ts.Set(0, 3, Some(4)) // A
		ts.Set(2, 7, Some(4)) // B
		ts.SetJump(0, 2)
	})
	if got := store.Params[engine.TransposeKey(0, "jump")]; got != "1" {
		t.Errorf("A jump = %s, want 1 (B's engine index)", got)
	}
	if got := store.Params["transpose_step_count"]; got != "2" {
		t.Errorf("transpose_step_count = %s, want 2", got)
	}
	if got := store.Params[engine.TransposeKey(1, "transpose")]; got != "7" {
		t.Errorf("B transpose = %s, want 7", got)
	}

	s.EditTranspose(func(ts *TransposeSequence) { ts.Remove(0) })
	store.Reset()
	s.EditTranspose(func(*TransposeSequence) {})

	if got := store.Params["transpose_step_count"]; got != "1" {
		t.Fatalf("transpose_step_count = %s, want 1", got)
	}
	if got := store.Params[engine.TransposeKey(0, "transpose")]; got != "7" {
		t.Errorf("B transpose at engine index 0 = %s, want 7", got)
	}
	if got := store.Params[engine.TransposeKey(0, "jump")]; got != "-1" {
		t.Errorf("B jump = %s, want -1", got)
	}
}

func TestJumpToEmptySlot(t *testing.T) {
	s, store := syncedSession(t)
	s.EditTranspose(func(ts *TransposeSequence) {
		ts.Set(0, 0, None())
		ts.Set(3, 0, None())
		ts.SetJump(0, 1)
	})
	if got := store.Params[engine.TransposeKey(0, "jump")]; got != "-1" {
		t.Errorf("jump to an empty slot = %s, want -1", got)
	}
}

func TestSyncTransposeDurationInSteps(t *testing.T) {
	s, store := syncedSession(t)
	s.EditTranspose(func(ts *TransposeSequence) {
		ts.Set(0, 0, Some(3))
		ts.SetCondition(0, 2)
	})
	if got := store.Params[engine.TransposeKey(0, "duration")]; got != "12" {
		t.Errorf("duration = %s, want 12", got)
	}
	if got := store.Params[engine.TransposeKey(0, "condition_n")]; got != "2" {
		t.Errorf("condition_n = %s, want 2", got)
	}
	if got := store.Params[engine.TransposeKey(0, "condition_m")]; got != "2" {
		t.Errorf("condition_m = %s, want 2", got)
	}
}

func TestSyncStepOrder(t *testing.T) {
	s, store := syncedSession(t)
	store.Reset()

	s.EditStep(1, 4, func(st *Step) {
		st.SetNotes([]int{60, 67}, []int{100, 50})
		st.SetProbability(40)
		st.SetCondition(1)
	})

	prefix := engine.StepKey(1, 4, "")
	keys := store.Keys(prefix)
	if len(keys) == 0 || keys[0] != prefix+"clear" {
		t.Fatalf("first write = %v, want clear", keys)
	}
	notes := store.Values(prefix + "add_note")
	if !reflect.DeepEqual(notes, []string{"60,100", "67,50"}) {
		t.Errorf("add_note = %v", notes)
	}
	if got := store.Params[prefix+"probability"]; got != "40" {
		t.Errorf("probability = %s, want 40", got)
	}
	if got := store.Params[prefix+"condition_n"]; got != "2" {
		t.Errorf("condition_n = %s, want 2", got)
	}
	if _, ok := store.Params[prefix+"gate"]; ok {
		t.Error("an inherited gate should not be sent")
	}
	if len(store.Writes) != 1 || store.Writes[0].Key != engine.BulkKey {
		t.Errorf("step edit took %d physical writes, want one bulk write", len(store.Writes))
	}
}

func TestSyncAllChunked(t *testing.T) {
	store := engine.NewStore()
	s := NewSession(nil)
	for tr := range NumTracks {
		for st := range NumSteps {
			s.Tracks[tr].ActivePattern().Steps[st].SetNotes([]int{36 + st%24}, nil)
		}
	}

	sy := NewSyncer(store, 4096)
	writes := sy.SyncAll(s)
	if writes != len(store.Writes) {
		t.Errorf("SyncAll() = %d, store saw %d writes", writes, len(store.Writes))
	}
	if writes < 2 {
		t.Fatalf("SyncAll() = %d writes, want several chunks", writes)
	}
	for i, w := range store.Writes {
		if len(w.Value) > 4096 {
			t.Errorf("write %d is %d bytes", i, len(w.Value))
		}
	}
	if got := store.Params["bpm"]; got != "120" {
		t.Errorf("bpm = %s, want 120", got)
	}
	if got := store.Params[engine.TrackKey(9, "channel")]; got != "9" {
		t.Errorf("track 9 channel = %s, want 9", got)
	}
	if got := store.Params[engine.TrackKey(5, "chord_follow")]; got != "1" {
		t.Errorf("track 5 chord_follow = %s, want 1", got)
	}
	if !strings.HasPrefix(store.Log[0].Key, "bpm") {
		t.Errorf("first logical write = %s, want bpm", store.Log[0].Key)
	}
}

func TestSessionMuteAndFollowSync(t *testing.T) {
	s, store := syncedSession(t)
	s.ToggleMute(2)
	s.SetChordFollow(2, true)
	s.SetBPM(999)

	if got := store.Params[engine.TrackKey(2, "mute")]; got != "1" {
		t.Errorf("mute = %s, want 1", got)
	}
	if got := store.Params[engine.TrackKey(2, "chord_follow")]; got != "1" {
		t.Errorf("chord_follow = %s, want 1", got)
	}
	if got := store.Params["bpm"]; got != "300" {
		t.Errorf("bpm = %s, want 300", got)
	}
}
