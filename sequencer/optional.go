package sequencer

import "strconv"

// Opt is an int that may be absent. Absent step fields inherit the track value.
type Opt struct {
	value   int
	present bool
}

// Some returns a present Opt
func Some(v int) Opt {
	return Opt{value: v, present: true}
}

// None returns an absent Opt
func None() Opt {
	return Opt{}
}

// OptFromSentinel maps the persisted -1 ("inherit") convention onto Opt
func OptFromSentinel(v int) Opt {
	if v < 0 {
		return None()
	}
	return Some(v)
}

func (o Opt) Unpack() (int, bool) {
	return o.value, o.present
}

func (o Opt) IsSet() bool {
	return o.present
}

// Sentinel returns the value, or -1 when absent
func (o Opt) Sentinel() int {
	if !o.present {
		return -1
	}
	return o.value
}

func (o Opt) String() string {
	if !o.present {
		return "-"
	}
	return strconv.Itoa(o.value)
}

// Resolve returns the step value if present, else the track default
func Resolve(step Opt, trackDefault int) int {
	if v, ok := step.Unpack(); ok {
		return v
	}
	return trackDefault
}
