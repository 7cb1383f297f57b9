package sequencer

import (
	"slices"

	"go-seqomd/debug"
	"go-seqomd/engine"
)

// DefaultLEDDivisor is how many ticks pass between feedback renders
const DefaultLEDDivisor = 4

// Frame is the playback position as shown to the user
type Frame struct {
	Track         int
	Step          int // -1 when stopped or unknown
	TransposeStep int // authored index, -1 for none
	Transpose     int
	Sounding      []int
	Playing       bool
	Tick          int
}

// FeedbackSink receives rendered frames (LED grid, TUI)
type FeedbackSink interface {
	Render(f Frame)
}

// SoundingNotes returns the notes held at pos in a pattern. The most recent
// Cut step at or before pos silences everything before it; from there every
// step whose length window covers pos contributes its notes once.
func SoundingNotes(p *Pattern, pos int) []int {
	if p == nil || pos < 0 || pos >= NumSteps {
		return nil
	}

	lastCut := 0
	for s := pos; s >= 0; s-- {
		st := &p.Steps[s]
		if st.ArpLayer == LayerCut && len(st.Notes) > 0 {
			lastCut = s
			break
		}
	}

	var out []int
	for s := lastCut; s <= pos; s++ {
		st := &p.Steps[s]
		if len(st.Notes) == 0 {
			continue
		}
		if pos > s+max(st.Length, 1)-1 {
			continue
		}
		for _, n := range st.Notes {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Observer polls the engine for the playhead once per tick. Position is
// tracked on every tick; rendering to the sink only happens every divisor
// ticks and only when something changed.
type Observer struct {
	session *Session
	ch      engine.Channel
	sink    FeedbackSink
	divisor int

	tick          int
	track         int
	step          int
	transposeStep int // engine index
	transpose     int
	sounding      []int
	pending       bool
	cleared       bool
	renders       int
}

// NewObserver watches ch on behalf of s. sink may be nil.
func NewObserver(s *Session, ch engine.Channel, sink FeedbackSink, divisor int) *Observer {
	if divisor <= 0 {
		divisor = DefaultLEDDivisor
	}
	return &Observer{
		session:       s,
		ch:            ch,
		sink:          sink,
		divisor:       divisor,
		step:          -1,
		transposeStep: -1,
		cleared:       true,
	}
}

// Tick runs one poll: autosave, position readback, then a throttled render
func (o *Observer) Tick() {
	o.tick++

	if _, err := o.session.TickDirty(); err != nil {
		debug.Log("persist", "autosave set %d: %v", o.session.CurrentSet, err)
	}

	if o.session.Playing {
		o.cleared = false
		o.poll()
	} else if !o.cleared {
		o.step = -1
		o.transposeStep = -1
		o.transpose = 0
		o.sounding = nil
		o.pending = true
		o.cleared = true
	}

	if o.pending && o.tick%o.divisor == 0 {
		o.pending = false
		o.renders++
		if o.sink != nil {
			o.sink.Render(o.Frame())
		}
	}
}

func (o *Observer) poll() {
	track := o.session.SelectedTrack
	step := engine.ReadInt(o.ch, engine.TrackKey(track, "current_step"))
	ts := engine.ReadInt(o.ch, engine.KeyCurrentTransposeStep)

	if step == o.step && ts == o.transposeStep && track == o.track {
		return
	}
	o.track = track
	o.step = step
	o.transposeStep = ts
	o.transpose = 0
	if st := o.session.Transpose.Step(o.session.Transpose.AuthoredIndex(ts)); st != nil {
		o.transpose = st.Transpose
	}
	o.sounding = SoundingNotes(o.session.ActiveTrack().ActivePattern(), step)
	o.pending = true
}

// Frame returns the last observed position
func (o *Observer) Frame() Frame {
	return Frame{
		Track:         o.track,
		Step:          o.step,
		TransposeStep: o.session.Transpose.AuthoredIndex(o.transposeStep),
		Transpose:     o.transpose,
		Sounding:      slices.Clone(o.sounding),
		Playing:       o.session.Playing,
		Tick:          o.tick,
	}
}

// Renders returns how many frames were sent to the sink
func (o *Observer) Renders() int {
	return o.renders
}

// Invalidate forces a render on the next divisor tick
func (o *Observer) Invalidate() {
	o.pending = true
}
