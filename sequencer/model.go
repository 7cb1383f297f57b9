package sequencer

import (
	"fmt"
	"slices"
	"strings"
)

// Step is the smallest schedulable unit of a pattern
type Step struct {
	Notes      []int // MIDI note numbers
	Velocities []int // parallel to Notes

	Gate Opt // gate percent; absent uses the track gate
	CC1  Opt // CC lock; absent uses the track CC default
	CC2  Opt

	Probability int // 1-100
	Condition   int // index into Conditions, gates the trigger
	Ratchet     int // index into RatchetValues, 0 = single hit
	Length      int // note length in steps
	ParamSpark  int // index into Conditions, gates CC locks
	CompSpark   int // index into Conditions, gates ratchet and jump
	Jump        int // target step, NoJump for none
	Offset      int // micro-timing in ticks (48 per step)

	ArpMode      Opt
	ArpSpeed     Opt
	ArpOctave    Opt
	ArpPlaySteps Opt // bit pattern 1-255
	ArpPlayStart Opt // 0-7
	ArpLayer     ArpLayer
}

// NewStep returns an empty step
func NewStep() Step {
	return Step{
		Notes:       []int{},
		Velocities:  []int{},
		Probability: DefaultProbability,
		Length:      1,
		Jump:        NoJump,
	}
}

// Clone returns a copy that shares no slices with s
func (s *Step) Clone() Step {
	c := *s
	c.Notes = slices.Clone(s.Notes)
	c.Velocities = slices.Clone(s.Velocities)
	if c.Notes == nil {
		c.Notes = []int{}
	}
	if c.Velocities == nil {
		c.Velocities = []int{}
	}
	return c
}

// Clear resets the step to defaults
func (s *Step) Clear() {
	*s = NewStep()
}

// HasData reports whether any field differs from its default
func (s *Step) HasData() bool {
	return len(s.Notes) > 0 ||
		s.Gate.IsSet() ||
		s.CC1.IsSet() ||
		s.CC2.IsSet() ||
		s.Probability != DefaultProbability ||
		s.Condition != 0 ||
		s.Ratchet != 0 ||
		s.Length != 1 ||
		s.ParamSpark != 0 ||
		s.CompSpark != 0 ||
		s.Jump != NoJump ||
		s.Offset != 0 ||
		s.ArpMode.IsSet() ||
		s.ArpSpeed.IsSet() ||
		s.ArpOctave.IsSet() ||
		s.ArpLayer != LayerLayer ||
		s.ArpPlaySteps.IsSet() ||
		s.ArpPlayStart.IsSet()
}

// IsEmpty reports whether the step triggers no notes
func (s *Step) IsEmpty() bool {
	return len(s.Notes) == 0
}

// VelocityAt returns the velocity of the nth note
func (s *Step) VelocityAt(n int) int {
	if n >= 0 && n < len(s.Velocities) {
		return s.Velocities[n]
	}
	return DefaultVelocity
}

// SetNotes replaces the notes, keeping velocities parallel.
// Missing velocities are filled with DefaultVelocity, extra ones dropped.
func (s *Step) SetNotes(notes, velocities []int) {
	s.Notes = make([]int, len(notes))
	s.Velocities = make([]int, len(notes))
	for i, n := range notes {
		s.Notes[i] = clamp(n, 0, 127)
		vel := DefaultVelocity
		if i < len(velocities) {
			vel = velocities[i]
		}
		s.Velocities[i] = clamp(vel, 1, 127)
	}
}

// ToggleNote adds a note with the given velocity, or removes it if present
func (s *Step) ToggleNote(note, velocity int) {
	if i := slices.Index(s.Notes, note); i >= 0 {
		s.Notes = slices.Delete(s.Notes, i, i+1)
		if i < len(s.Velocities) {
			s.Velocities = slices.Delete(s.Velocities, i, i+1)
		}
		return
	}
	s.Notes = append(s.Notes, clamp(note, 0, 127))
	s.Velocities = append(s.Velocities, clamp(velocity, 1, 127))
}

// SetGate sets the gate override; 0 or less inherits the track gate
func (s *Step) SetGate(v int) {
	if v <= 0 {
		s.Gate = None()
		return
	}
	s.Gate = Some(clamp(v, 1, 100))
}

// SetCC sets CC lock 1 or 2; a negative value clears it
func (s *Step) SetCC(which, v int) {
	o := None()
	if v >= 0 {
		o = Some(clamp(v, 0, 127))
	}
	if which == 2 {
		s.CC2 = o
	} else {
		s.CC1 = o
	}
}

func (s *Step) SetProbability(v int) { s.Probability = clamp(v, 1, 100) }
func (s *Step) SetLength(v int)      { s.Length = clamp(v, 1, NumSteps) }
func (s *Step) SetOffset(v int)      { s.Offset = clamp(v, MinOffset, MaxOffset) }
func (s *Step) SetCondition(i int)   { s.Condition = clamp(i, 0, len(Conditions)-1) }
func (s *Step) SetParamSpark(i int)  { s.ParamSpark = clamp(i, 0, len(Conditions)-1) }
func (s *Step) SetCompSpark(i int)   { s.CompSpark = clamp(i, 0, len(Conditions)-1) }
func (s *Step) SetRatchet(i int)     { s.Ratchet = clamp(i, 0, len(RatchetValues)-1) }
func (s *Step) SetJump(v int)        { s.Jump = clamp(v, NoJump, NumSteps-1) }

func (s *Step) SetArpLayer(l ArpLayer) {
	s.ArpLayer = ArpLayer(clamp(int(l), int(LayerLayer), int(LayerLegato)))
}

// Pattern is a fixed-length sequence of steps
type Pattern struct {
	Steps [NumSteps]Step
}

// NewPattern returns a pattern of empty steps
func NewPattern() Pattern {
	var p Pattern
	for i := range p.Steps {
		p.Steps[i] = NewStep()
	}
	return p
}

// Clone returns an independent copy of the pattern
func (p *Pattern) Clone() Pattern {
	var c Pattern
	for i := range p.Steps {
		c.Steps[i] = p.Steps[i].Clone()
	}
	return c
}

// HasData reports whether any step carries data
func (p *Pattern) HasData() bool {
	for i := range p.Steps {
		if p.Steps[i].HasData() {
			return true
		}
	}
	return false
}

// Track is an independent voice with its own patterns and defaults
type Track struct {
	Patterns [NumPatterns]Pattern

	CurrentPattern int
	Muted          bool
	Channel        int
	SpeedIndex     int // index into SpeedOptions
	Swing          int // 50 = straight
	Length         int // playable steps
	ResetLength    int // steps before a forced reset, ResetNever for none
	Gate           int // percent

	ArpMode       int
	ArpSpeed      int
	ArpOctave     int
	ArpContinuous int
	ArpPlaySteps  int
	ArpPlayStart  int

	CC1Default int
	CC2Default int
}

// NewTrack returns a track on the given channel with default settings
func NewTrack(channel int) *Track {
	t := &Track{
		Channel:      channel,
		SpeedIndex:   DefaultSpeedIndex,
		Swing:        DefaultSwing,
		Length:       DefaultTrackLength,
		ResetLength:  ResetNever,
		Gate:         DefaultGate,
		ArpSpeed:     DefaultArpSpeed,
		ArpPlaySteps: DefaultArpPlay,
		CC1Default:   DefaultCC,
		CC2Default:   DefaultCC,
	}
	for i := range t.Patterns {
		t.Patterns[i] = NewPattern()
	}
	return t
}

// Clone returns an independent copy of the track
func (t *Track) Clone() *Track {
	c := *t
	for i := range t.Patterns {
		c.Patterns[i] = t.Patterns[i].Clone()
	}
	return &c
}

// ActivePattern returns the pattern the track is playing
func (t *Track) ActivePattern() *Pattern {
	return &t.Patterns[clamp(t.CurrentPattern, 0, NumPatterns-1)]
}

func (t *Track) SetCurrentPattern(i int) { t.CurrentPattern = clamp(i, 0, NumPatterns-1) }
func (t *Track) SetChannel(ch int)       { t.Channel = clamp(ch, 0, 15) }
func (t *Track) SetSpeedIndex(i int)     { t.SpeedIndex = clamp(i, 0, len(SpeedOptions)-1) }
func (t *Track) SetSwing(v int)          { t.Swing = clamp(v, 0, 100) }
func (t *Track) SetLength(v int)         { t.Length = clamp(v, 1, NumSteps) }
func (t *Track) SetResetLength(v int)    { t.ResetLength = clamp(v, ResetNever, 256) }
func (t *Track) SetGate(v int)           { t.Gate = clamp(v, 1, 100) }
func (t *Track) SetArpMode(v int)        { t.ArpMode = clamp(v, 0, len(ArpModes)-1) }
func (t *Track) SetArpSpeed(v int)       { t.ArpSpeed = clamp(v, 0, len(ArpSpeeds)-1) }
func (t *Track) SetArpOctave(v int)      { t.ArpOctave = clamp(v, 0, len(ArpOctaves)-1) }

// Speed returns the playback multiplier
func (t *Track) Speed() float64 {
	return SpeedOptions[clamp(t.SpeedIndex, 0, len(SpeedOptions)-1)].Mult
}

// Effective per-step values, falling back to the track defaults

func (t *Track) StepGate(s *Step) int      { return Resolve(s.Gate, t.Gate) }
func (t *Track) StepCC1(s *Step) int       { return Resolve(s.CC1, t.CC1Default) }
func (t *Track) StepCC2(s *Step) int       { return Resolve(s.CC2, t.CC2Default) }
func (t *Track) StepArpMode(s *Step) int   { return Resolve(s.ArpMode, t.ArpMode) }
func (t *Track) StepArpSpeed(s *Step) int  { return Resolve(s.ArpSpeed, t.ArpSpeed) }
func (t *Track) StepArpOctave(s *Step) int { return Resolve(s.ArpOctave, t.ArpOctave) }
func (t *Track) StepArpPlaySteps(s *Step) int {
	return Resolve(s.ArpPlaySteps, t.ArpPlaySteps)
}
func (t *Track) StepArpPlayStart(s *Step) int {
	return Resolve(s.ArpPlayStart, t.ArpPlayStart)
}

// StepSummary describes the values a step plays with once track defaults
// are applied. Arp settings appear only when an arp mode is active.
func (t *Track) StepSummary(s *Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "gate %d%%  cc %d/%d", t.StepGate(s), t.StepCC1(s), t.StepCC2(s))
	mode := clamp(t.StepArpMode(s), 0, len(ArpModes)-1)
	if mode == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "  arp %s %s %s", ArpModes[mode],
		ArpSpeeds[clamp(t.StepArpSpeed(s), 0, len(ArpSpeeds)-1)],
		ArpOctaves[clamp(t.StepArpOctave(s), 0, len(ArpOctaves)-1)])

	mask := t.StepArpPlaySteps(s)
	pattern := make([]byte, 8)
	for i := range pattern {
		pattern[i] = '.'
		if mask&(1<<i) != 0 {
			pattern[i] = 'x'
		}
	}
	fmt.Fprintf(&b, "  play %s from %d", pattern, t.StepArpPlayStart(s)+1)
	return b.String()
}

// Tracks is the fixed set of tracks in a session
type Tracks [NumTracks]*Track

// NewTracks returns default tracks with their default channels
func NewTracks() *Tracks {
	var ts Tracks
	for i := range ts {
		ts[i] = NewTrack(DefaultChannel(i))
	}
	return &ts
}

// Clone returns an independent copy of all tracks
func (ts *Tracks) Clone() *Tracks {
	var c Tracks
	for i, t := range ts {
		if t != nil {
			c[i] = t.Clone()
		}
	}
	return &c
}

// HasContent reports whether any step holds notes or CC locks
func (ts *Tracks) HasContent() bool {
	for _, t := range ts {
		if t == nil {
			continue
		}
		for p := range t.Patterns {
			for s := range t.Patterns[p].Steps {
				st := &t.Patterns[p].Steps[s]
				if len(st.Notes) > 0 || st.CC1.IsSet() || st.CC2.IsSet() {
					return true
				}
			}
		}
	}
	return false
}
