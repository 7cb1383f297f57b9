package sequencer

import (
	"strconv"

	"go-seqomd/debug"
	"go-seqomd/engine"
)

// Syncer pushes session state into the engine's parameter channel.
// Full syncs run inside one batch so thousands of fields cost a few writes.
type Syncer struct {
	b *engine.Batcher
}

// NewSyncer wraps ch in a batcher with the given chunk bound (0 = default)
func NewSyncer(ch engine.Channel, chunkBytes int) *Syncer {
	return &Syncer{b: engine.NewBatcher(ch, chunkBytes)}
}

// Channel returns the batched channel, for reads and single writes
func (sy *Syncer) Channel() engine.Channel {
	return sy.b
}

// Writes returns the number of physical writes issued
func (sy *Syncer) Writes() int {
	return sy.b.Writes()
}

func (sy *Syncer) set(key, value string) {
	sy.b.SetParam(key, value)
}

func (sy *Syncer) setInt(key string, v int) {
	sy.b.SetParam(key, strconv.Itoa(v))
}

// SyncAll sends tempo, every track, the transpose lane and the master reset.
// Returns the number of physical writes the batch took.
func (sy *Syncer) SyncAll(s *Session) int {
	sy.b.Begin()
	sy.setInt("bpm", s.BPM)
	for t := range s.Tracks {
		sy.syncTrack(s, t)
	}
	sy.SyncTranspose(s.Transpose)
	sy.setInt("master_reset", s.MasterReset)
	n := sy.b.End()
	debug.Log("sync", "full sync: %d writes", n)
	return n
}

// SyncTrack resends one track's settings and active pattern
func (sy *Syncer) SyncTrack(s *Session, t int) {
	if t < 0 || t >= NumTracks {
		return
	}
	sy.b.Begin()
	sy.syncTrack(s, t)
	sy.b.End()
}

func (sy *Syncer) syncTrack(s *Session, t int) {
	track := s.Tracks[t]
	if track == nil {
		return
	}
	key := func(field string) string { return engine.TrackKey(t, field) }

	sy.setInt(key("channel"), track.Channel)
	sy.set(key("mute"), engine.Bool(track.Muted))
	sy.set(key("speed"), strconv.FormatFloat(track.Speed(), 'g', -1, 64))
	sy.setInt(key("swing"), track.Swing)
	sy.setInt(key("pattern"), track.CurrentPattern)
	sy.set(key("chord_follow"), engine.Bool(s.ChordFollow[t]))
	sy.setInt(key("arp_mode"), track.ArpMode)
	sy.setInt(key("arp_speed"), track.ArpSpeed)
	sy.setInt(key("arp_octave"), track.ArpOctave)
	sy.setInt(key("arp_continuous"), track.ArpContinuous)
	sy.setInt(key("arp_play_steps"), track.ArpPlaySteps)
	sy.setInt(key("arp_play_start"), track.ArpPlayStart)
	sy.setInt(key("cc1_default"), track.CC1Default)
	sy.setInt(key("cc2_default"), track.CC2Default)
	sy.setInt(key("length"), track.Length)
	sy.setInt(key("reset"), track.ResetLength)
	sy.setInt(key("gate"), track.Gate)

	p := track.ActivePattern()
	for i := range p.Steps {
		sy.syncStep(t, i, &p.Steps[i])
	}
}

// SyncStep resends one step of a track's active pattern
func (sy *Syncer) SyncStep(s *Session, t, step int) {
	if t < 0 || t >= NumTracks || step < 0 || step >= NumSteps || s.Tracks[t] == nil {
		return
	}
	sy.b.Begin()
	sy.syncStep(t, step, &s.Tracks[t].ActivePattern().Steps[step])
	sy.b.End()
}

// syncStep clears the engine step, then sends its notes and the fields that
// differ from their defaults
func (sy *Syncer) syncStep(t, i int, st *Step) {
	key := func(field string) string { return engine.StepKey(t, i, field) }

	sy.set(key("clear"), "1")
	for n, note := range st.Notes {
		sy.set(key("add_note"), strconv.Itoa(note)+","+strconv.Itoa(st.VelocityAt(n)))
	}

	if v, ok := st.Gate.Unpack(); ok {
		sy.setInt(key("gate"), v)
	}
	if v, ok := st.CC1.Unpack(); ok {
		sy.setInt(key("cc1"), v)
	}
	if v, ok := st.CC2.Unpack(); ok {
		sy.setInt(key("cc2"), v)
	}
	if st.Probability < DefaultProbability {
		sy.setInt(key("probability"), st.Probability)
	}
	if st.Ratchet > 0 {
		sy.setInt(key("ratchet"), ratchetValue(st.Ratchet))
	}
	if st.Length > 1 {
		sy.setInt(key("length"), st.Length)
	}
	if st.Offset != 0 {
		sy.setInt(key("offset"), st.Offset)
	}
	sy.condition(key, "condition", st.Condition)
	sy.condition(key, "param_spark", st.ParamSpark)
	sy.condition(key, "comp_spark", st.CompSpark)
	if st.Jump >= 0 {
		sy.setInt(key("jump"), st.Jump)
	}

	overrides := []struct {
		field string
		value Opt
	}{
		{"arp_mode", st.ArpMode},
		{"arp_speed", st.ArpSpeed},
		{"arp_octave", st.ArpOctave},
		{"arp_play_steps", st.ArpPlaySteps},
		{"arp_play_start", st.ArpPlayStart},
	}
	for _, o := range overrides {
		if v, ok := o.value.Unpack(); ok {
			sy.setInt(key(o.field), v)
		}
	}
	if st.ArpLayer != LayerLayer {
		sy.setInt(key("arp_layer"), int(st.ArpLayer))
	}
}

// condition sends the n/m/not triplet of a condition index other than none
func (sy *Syncer) condition(key func(string) string, prefix string, index int) {
	if index <= 0 {
		return
	}
	c := ConditionAt(index)
	sy.setInt(key(prefix+"_n"), c.N)
	sy.setInt(key(prefix+"_m"), c.M)
	sy.set(key(prefix+"_not"), engine.Bool(c.Not))
}

// SyncTranspose rebuilds the engine's transpose table. Empty slots are
// skipped, so entries get consecutive engine indices in authored order and
// jumps are remapped onto them; a jump to an empty or missing slot becomes -1.
func (sy *Syncer) SyncTranspose(ts *TransposeSequence) {
	sy.b.Begin()
	defer sy.b.End()

	sy.set("transpose_clear", "1")
	steps, engineIdx := ts.Compacted()
	for i, st := range steps {
		jump := NoJump
		if st.Jump >= 0 && st.Jump < len(engineIdx) {
			jump = engineIdx[st.Jump]
		}
		c := ConditionAt(st.Condition)

		sy.setInt(engine.TransposeKey(i, "transpose"), st.Transpose)
		sy.setInt(engine.TransposeKey(i, "duration"), st.Duration*StepsPerBeat)
		sy.setInt(engine.TransposeKey(i, "jump"), jump)
		sy.setInt(engine.TransposeKey(i, "condition_n"), c.N)
		sy.setInt(engine.TransposeKey(i, "condition_m"), c.M)
		sy.set(engine.TransposeKey(i, "condition_not"), engine.Bool(c.Not))
	}
	sy.setInt("transpose_step_count", len(steps))
}

// SetPlaying starts or stops the engine transport
func (sy *Syncer) SetPlaying(playing bool) {
	sy.set(engine.KeyPlaying, engine.Bool(playing))
}
