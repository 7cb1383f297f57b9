package sequencer

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func exportSession() *Session {
	s := NewSession(nil)
	s.Tracks[0].ActivePattern().Steps[0].SetNotes([]int{60}, []int{90})
	s.Tracks[2].ActivePattern().Steps[0].SetNotes([]int{48}, nil)
	s.Tracks[2].Muted = true
	s.Tracks[4].ActivePattern().Steps[0].SetNotes([]int{60}, nil)
	s.Transpose.Set(0, 5, Some(4))
	return s
}

type noteOn struct {
	ch, key, vel uint8
}

func readNoteOns(t *testing.T, raw []byte) ([][]noteOn, int) {
	t.Helper()
	sm, err := smf.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	out := make([][]noteOn, len(sm.Tracks))
	for i, tr := range sm.Tracks {
		for _, ev := range tr {
			var n noteOn
			if gomidi.Message(ev.Message).GetNoteOn(&n.ch, &n.key, &n.vel) && n.vel > 0 {
				out[i] = append(out[i], n)
			}
		}
	}
	return out, len(sm.Tracks)
}

func TestExportSMF(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportSMF(exportSession(), &buf, ExportOptions{Loops: 2, Seed: 1}); err != nil {
		t.Fatalf("ExportSMF() error = %v", err)
	}

	notes, tracks := readNoteOns(t, buf.Bytes())
	if tracks != 3 {
		t.Fatalf("tracks = %d, want tempo track plus two voices", tracks)
	}
	if len(notes[0]) != 0 {
		t.Errorf("tempo track has %d notes", len(notes[0]))
	}

	want := noteOn{ch: 0, key: 60, vel: 90}
	if len(notes[1]) != 2 || notes[1][0] != want || notes[1][1] != want {
		t.Errorf("track 1 notes = %v, want two of %v", notes[1], want)
	}
	// chord follow applies the +5 transpose
	for _, n := range notes[2] {
		if n.key != 65 || n.ch != uint8(DefaultChannel(4)) {
			t.Errorf("track 5 note = %+v, want key 65 on channel %d", n, DefaultChannel(4))
		}
	}
	if len(notes[2]) != 2 {
		t.Errorf("track 5 has %d notes, want 2", len(notes[2]))
	}
}

func TestExportSMFRatchet(t *testing.T) {
	s := NewSession(nil)
	st := &s.Tracks[0].ActivePattern().Steps[0]
	st.SetNotes([]int{36}, nil)
	st.SetRatchet(3) // four hits

	var buf bytes.Buffer
	if err := ExportSMF(s, &buf, ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	notes, _ := readNoteOns(t, buf.Bytes())
	if len(notes[1]) != 4 {
		t.Errorf("ratcheted step produced %d notes, want 4", len(notes[1]))
	}
}

func TestExportSMFEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportSMF(NewSession(nil), &buf, ExportOptions{}); err == nil {
		t.Error("ExportSMF() of an empty session should fail")
	}
}

func TestCCNumber(t *testing.T) {
	tests := []struct {
		track, which int
		want         uint8
	}{
		{0, 1, 20},
		{0, 2, 21},
		{1, 1, 22},
		{15, 2, 51},
	}
	for _, tt := range tests {
		if got := CCNumber(tt.track, tt.which); got != tt.want {
			t.Errorf("CCNumber(%d, %d) = %d, want %d", tt.track, tt.which, got, tt.want)
		}
	}
}
