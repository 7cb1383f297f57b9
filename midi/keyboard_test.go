package midi

import (
	"slices"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestKeyboardChord(t *testing.T) {
	kb, err := NewKeyboardController("kb", nil)
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		msg      gomidi.Message
		ok       bool
		chord    []uint8
		note     uint8
		velocity uint8
	}{
		{gomidi.NoteOn(0, 64, 90), true, []uint8{64}, 64, 90},
		{gomidi.NoteOn(0, 60, 80), true, []uint8{60, 64}, 60, 80},
		{gomidi.NoteOn(0, 67, 70), true, []uint8{60, 64, 67}, 67, 70},
		{gomidi.NoteOff(0, 64), false, nil, 0, 0},
		{gomidi.NoteOn(0, 60, 0), false, nil, 0, 0},
		{gomidi.NoteOn(0, 72, 100), true, []uint8{67, 72}, 72, 100},
		{gomidi.ControlChange(0, 1, 64), false, nil, 0, 0},
	}
	for i, st := range steps {
		evt, ok := kb.Handle(st.msg)
		if ok != st.ok {
			t.Fatalf("message %d: Handle() ok = %v, want %v", i, ok, st.ok)
		}
		if !ok {
			continue
		}
		if evt.Note != st.note || evt.Velocity != st.velocity || !slices.Equal(evt.Chord, st.chord) {
			t.Errorf("message %d: Handle() = %+v, want note %d vel %d chord %v", i, evt, st.note, st.velocity, st.chord)
		}
	}
}
