package sequencer

import "fmt"

// Transpose automation limits. Durations are in beats.
const (
	MaxTransposeSteps = 16
	DefaultDuration   = 4
	MinDuration       = 1
	MaxDuration       = 64
	MinTranspose      = -24
	MaxTranspose      = 24

	// BeatGranularityMax is the duration up to which adjustments move by one
	// beat; above it they move by a bar.
	BeatGranularityMax = 20

	// BeatsPerBar is the bar size of transpose durations
	BeatsPerBar = 4

	// StepsPerBeat converts beats to engine steps
	StepsPerBeat = 4
)

// TransposeStep is one entry of the transpose automation lane
type TransposeStep struct {
	Transpose int // semitones
	Duration  int // beats
	Jump      int // authored index, NoJump for none
	Condition int // index into Conditions
}

// NewTransposeStep returns a clamped step with no jump or condition
func NewTransposeStep(transpose, duration int) TransposeStep {
	return TransposeStep{
		Transpose: clamp(transpose, MinTranspose, MaxTranspose),
		Duration:  clamp(duration, MinDuration, MaxDuration),
		Jump:      NoJump,
	}
}

// TransposeSequence is the authored transpose lane. Slots may be empty
// (nil); only filled slots play or reach the engine. Trailing empty slots are
// trimmed by Compact.
type TransposeSequence struct {
	slots []*TransposeStep
}

// NewTransposeSequence returns an empty sequence
func NewTransposeSequence() *TransposeSequence {
	return &TransposeSequence{}
}

// Len returns the number of authored slots, filled or not
func (ts *TransposeSequence) Len() int {
	return len(ts.slots)
}

// Count returns the number of filled slots
func (ts *TransposeSequence) Count() int {
	n := 0
	for _, s := range ts.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Step returns the step at an authored index, or nil
func (ts *TransposeSequence) Step(index int) *TransposeStep {
	if index < 0 || index >= len(ts.slots) {
		return nil
	}
	return ts.slots[index]
}

// Set creates or updates the step at index. An absent duration keeps the
// existing one, or uses DefaultDuration for a new step. Returns false if
// index is outside the lane.
func (ts *TransposeSequence) Set(index, transpose int, duration Opt) bool {
	if index < 0 || index >= MaxTransposeSteps {
		return false
	}
	for len(ts.slots) <= index {
		ts.slots = append(ts.slots, nil)
	}
	if s := ts.slots[index]; s != nil {
		s.Transpose = clamp(transpose, MinTranspose, MaxTranspose)
		if d, ok := duration.Unpack(); ok {
			s.Duration = clamp(d, MinDuration, MaxDuration)
		}
		return true
	}
	step := NewTransposeStep(transpose, Resolve(duration, DefaultDuration))
	ts.slots[index] = &step
	return true
}

// SetDuration sets the duration of a filled slot
func (ts *TransposeSequence) SetDuration(index, beats int) bool {
	s := ts.Step(index)
	if s == nil {
		return false
	}
	s.Duration = clamp(beats, MinDuration, MaxDuration)
	return true
}

// SetJump sets the authored jump target of a filled slot; negative clears it
func (ts *TransposeSequence) SetJump(index, target int) bool {
	s := ts.Step(index)
	if s == nil {
		return false
	}
	if target < 0 {
		target = NoJump
	}
	s.Jump = clamp(target, NoJump, MaxTransposeSteps-1)
	return true
}

// SetCondition sets the jump condition of a filled slot
func (ts *TransposeSequence) SetCondition(index, cond int) bool {
	s := ts.Step(index)
	if s == nil {
		return false
	}
	s.Condition = clamp(cond, 0, len(Conditions)-1)
	return true
}

// AdjustDuration nudges a step's duration by one unit in the sign of delta.
// Up to BeatGranularityMax the unit is a beat, above it a bar. Decreasing
// from above the threshold never lands below it.
func (ts *TransposeSequence) AdjustDuration(index, delta int) (int, bool) {
	s := ts.Step(index)
	if s == nil {
		return 0, false
	}
	d := s.Duration
	switch {
	case delta > 0:
		if d < BeatGranularityMax {
			d++
		} else {
			d += BeatsPerBar
		}
	case delta < 0:
		if d <= BeatGranularityMax {
			d--
		} else {
			d -= BeatsPerBar
			if d < BeatGranularityMax {
				d = BeatGranularityMax
			}
		}
	}
	s.Duration = clamp(d, MinDuration, MaxDuration)
	return s.Duration, true
}

// Remove splices out a filled slot, shifting later slots down. Jumps to the
// removed slot are cleared and jumps past it follow their target.
func (ts *TransposeSequence) Remove(index int) bool {
	if ts.Step(index) == nil {
		return false
	}
	ts.slots = append(ts.slots[:index], ts.slots[index+1:]...)
	for _, s := range ts.slots {
		if s == nil {
			continue
		}
		switch {
		case s.Jump == index:
			s.Jump = NoJump
		case s.Jump > index:
			s.Jump--
		}
	}
	ts.Compact()
	return true
}

// Compact trims trailing empty slots
func (ts *TransposeSequence) Compact() {
	for len(ts.slots) > 0 && ts.slots[len(ts.slots)-1] == nil {
		ts.slots = ts.slots[:len(ts.slots)-1]
	}
}

// Clear removes every slot
func (ts *TransposeSequence) Clear() {
	ts.slots = nil
}

// Clone returns an independent copy, empty slots included
func (ts *TransposeSequence) Clone() *TransposeSequence {
	c := &TransposeSequence{slots: make([]*TransposeStep, len(ts.slots))}
	for i, s := range ts.slots {
		if s != nil {
			cp := *s
			c.slots[i] = &cp
		}
	}
	return c
}

// TotalDuration returns the loop length in beats
func (ts *TransposeSequence) TotalDuration() int {
	total := 0
	for _, s := range ts.slots {
		if s != nil {
			total += s.Duration
		}
	}
	return total
}

// locate returns the authored index covering beat within the loop, or -1
func (ts *TransposeSequence) locate(beat int) int {
	total := ts.TotalDuration()
	if total == 0 {
		return -1
	}
	looped := beat % total
	if looped < 0 {
		looped += total
	}
	acc := 0
	for i, s := range ts.slots {
		if s == nil {
			continue
		}
		if looped < acc+s.Duration {
			return i
		}
		acc += s.Duration
	}
	return -1
}

// TransposeAt returns the transpose active at a beat, 0 for an empty lane
func (ts *TransposeSequence) TransposeAt(beat int) int {
	i := ts.locate(beat)
	if i < 0 {
		return 0
	}
	return ts.slots[i].Transpose
}

// StepIndexAt returns the authored index active at a beat, -1 for an empty lane
func (ts *TransposeSequence) StepIndexAt(beat int) int {
	return ts.locate(beat)
}

// Compacted returns the filled steps in order together with the engine
// index of each authored slot (-1 for empty slots)
func (ts *TransposeSequence) Compacted() ([]TransposeStep, []int) {
	steps := make([]TransposeStep, 0, len(ts.slots))
	engineIdx := make([]int, len(ts.slots))
	for i, s := range ts.slots {
		if s == nil {
			engineIdx[i] = -1
			continue
		}
		engineIdx[i] = len(steps)
		steps = append(steps, *s)
	}
	return steps, engineIdx
}

// AuthoredIndex maps an engine index back to its authored slot, -1 if none
func (ts *TransposeSequence) AuthoredIndex(engineIndex int) int {
	if engineIndex < 0 {
		return -1
	}
	n := 0
	for i, s := range ts.slots {
		if s == nil {
			continue
		}
		if n == engineIndex {
			return i
		}
		n++
	}
	return -1
}

// FormatDuration renders beats as beats below a bar, else bars
func FormatDuration(beats int) string {
	if beats < BeatsPerBar {
		if beats == 1 {
			return "1 beat"
		}
		return fmt.Sprintf("%d beats", beats)
	}
	bars := beats / BeatsPerBar
	rem := beats % BeatsPerBar
	unit := "bars"
	if bars == 1 {
		unit = "bar"
	}
	if rem == 0 {
		return fmt.Sprintf("%d %s", bars, unit)
	}
	return fmt.Sprintf("%d %s %d", bars, unit, rem)
}
