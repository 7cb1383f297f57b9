package sequencer

import (
	"slices"
	"testing"

	"go-seqomd/engine"
)

type recordSink struct {
	frames []Frame
}

func (r *recordSink) Render(f Frame) {
	r.frames = append(r.frames, f)
}

func TestSoundingNotes(t *testing.T) {
	p := NewPattern()
	p.Steps[0].SetNotes([]int{60}, nil)
	p.Steps[0].SetLength(4)
	p.Steps[1].SetNotes([]int{64}, nil)
	p.Steps[2].SetNotes([]int{67}, nil)
	p.Steps[2].SetLength(2)
	p.Steps[2].SetArpLayer(LayerCut)
	p.Steps[5].SetNotes([]int{70}, nil)
	p.Steps[5].SetLength(3)
	p.Steps[6].SetNotes([]int{70}, nil)

	tests := []struct {
		pos  int
		want []int
	}{
		{0, []int{60}},
		{1, []int{60, 64}},
		{2, []int{67}},
		{3, []int{67}},
		{4, nil},
		{6, []int{70}},
		{-1, nil},
		{NumSteps, nil},
	}
	for _, tt := range tests {
		if got := SoundingNotes(&p, tt.pos); !slices.Equal(got, tt.want) {
			t.Errorf("SoundingNotes(%d) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestObserverThrottle(t *testing.T) {
	s := NewSession(nil)
	store := engine.NewStore()
	sink := &recordSink{}
	o := NewObserver(s, store, sink, 4)

	s.Play()
	store.Params[engine.TrackKey(0, "current_step")] = "3"
	for range 3 {
		o.Tick()
	}
	if len(sink.frames) != 0 {
		t.Fatalf("rendered %d frames before the divisor tick", len(sink.frames))
	}
	o.Tick()
	if len(sink.frames) != 1 || sink.frames[0].Step != 3 {
		t.Fatalf("frames = %+v, want one at step 3", sink.frames)
	}

	for range 8 {
		o.Tick()
	}
	if len(sink.frames) != 1 {
		t.Errorf("rendered %d frames without a change, want 1", len(sink.frames))
	}

	store.Params[engine.TrackKey(0, "current_step")] = "4"
	for range 4 {
		o.Tick()
	}
	if len(sink.frames) != 2 || sink.frames[1].Step != 4 {
		t.Errorf("frames = %+v, want a second one at step 4", sink.frames)
	}
	if o.Renders() != len(sink.frames) {
		t.Errorf("Renders() = %d, want %d", o.Renders(), len(sink.frames))
	}
}

func TestObserverClearsOnceWhenStopped(t *testing.T) {
	s := NewSession(nil)
	store := engine.NewStore()
	sink := &recordSink{}
	o := NewObserver(s, store, sink, 1)

	for range 5 {
		o.Tick()
	}
	if len(sink.frames) != 0 {
		t.Fatalf("rendered %d frames while never playing", len(sink.frames))
	}

	s.Play()
	store.Params[engine.TrackKey(0, "current_step")] = "7"
	o.Tick()
	s.Stop()
	for range 5 {
		o.Tick()
	}
	if len(sink.frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(sink.frames))
	}
	last := sink.frames[1]
	if last.Step != -1 || last.Playing || last.TransposeStep != -1 || last.Sounding != nil {
		t.Errorf("cleared frame = %+v", last)
	}
}

func TestObserverTranspose(t *testing.T) {
	s := NewSession(nil)
	s.EditTranspose(func(ts *TransposeSequence) {
		ts.Set(1, 5, None())
		ts.Set(2, -2, None())
	})
	s.EditStep(0, 2, func(st *Step) {
		st.SetNotes([]int{48}, nil)
		st.SetLength(2)
	})

	store := engine.NewStore()
	sink := &recordSink{}
	o := NewObserver(s, store, sink, 1)
	s.Play()
	store.Params[engine.TrackKey(0, "current_step")] = "3"
	store.Params[engine.KeyCurrentTransposeStep] = "0"
	o.Tick()

	f := o.Frame()
	if f.TransposeStep != 1 || f.Transpose != 5 {
		t.Errorf("transpose step %d value %d, want 1 and 5", f.TransposeStep, f.Transpose)
	}
	if !slices.Equal(f.Sounding, []int{48}) {
		t.Errorf("Sounding = %v, want [48]", f.Sounding)
	}

	store.Params[engine.KeyCurrentTransposeStep] = "garbage"
	o.Tick()
	if f := o.Frame(); f.TransposeStep != -1 || f.Transpose != 0 {
		t.Errorf("unreadable position gave step %d value %d", f.TransposeStep, f.Transpose)
	}
}

func TestObserverFollowsSelectedTrack(t *testing.T) {
	s := NewSession(nil)
	store := engine.NewStore()
	o := NewObserver(s, store, nil, 1)
	s.Play()
	store.Params[engine.TrackKey(0, "current_step")] = "1"
	store.Params[engine.TrackKey(6, "current_step")] = "9"

	o.Tick()
	s.SelectTrack(6)
	o.Tick()
	if f := o.Frame(); f.Track != 6 || f.Step != 9 {
		t.Errorf("frame track %d step %d, want 6 9", f.Track, f.Step)
	}
}
