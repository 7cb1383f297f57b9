package sequencer

import "fmt"

// Capacities of the data model
const (
	NumTracks   = 16
	NumPatterns = 16
	NumSteps    = 64
	NumSets     = 32

	// MaxNotesPerStep matches the engine's per-step note slots
	MaxNotesPerStep = 8
)

// Track and step defaults
const (
	MelodicTracks      = 8 // tracks below this index own a channel each
	DrumChannel        = 9 // shared by the remaining tracks
	DefaultSpeedIndex  = 4 // 1x
	DefaultTrackLength = 16
	ResetNever         = 0
	DefaultGate        = 95
	DefaultSwing       = 50
	DefaultVelocity    = 100
	DefaultProbability = 100
	DefaultArpSpeed    = 2 // 1/16
	DefaultArpPlay     = 1 // all notes play
	DefaultCC          = 64
	NoJump             = -1

	MinOffset = -24
	MaxOffset = 24

	MinBPM     = 20
	MaxBPM     = 300
	DefaultBPM = 120

	// MasterCCChannel carries pattern-mode CCs
	MasterCCChannel = 15
)

// ArpLayer controls how a step's notes interact with earlier sounding notes.
// It has no track-level default.
type ArpLayer int

const (
	LayerLayer ArpLayer = iota
	LayerCut
	LayerLegato
)

var arpLayerNames = []string{"Layer", "Cut", "Legato"}

func (l ArpLayer) String() string {
	if l < 0 || int(l) >= len(arpLayerNames) {
		return fmt.Sprintf("ArpLayer(%d)", int(l))
	}
	return arpLayerNames[l]
}

// SpeedOption is a track playback rate
type SpeedOption struct {
	Name string
	Mult float64
}

var SpeedOptions = []SpeedOption{
	{"1/4x", 0.25},
	{"1/3x", 1.0 / 3.0},
	{"1/2x", 0.5},
	{"2/3x", 2.0 / 3.0},
	{"1x", 1.0},
	{"3/2x", 1.5},
	{"2x", 2.0},
	{"3x", 3.0},
	{"4x", 4.0},
}

// RatchetValues maps a step's ratchet index to the engine encoding:
// 1-8 regular, 10-16 velocity ramp up (count = v-8), 20-26 ramp down (count = v-18).
var RatchetValues = []int{
	1, 2, 3, 4, 5, 6, 7, 8,
	10, 11, 12, 13, 14, 15, 16,
	20, 21, 22, 23, 24, 25, 26,
}

// RatchetMode is the velocity shape of a ratcheted step
type RatchetMode int

const (
	RatchetRegular RatchetMode = iota
	RatchetRampUp
	RatchetRampDown
)

// DecodeRatchet splits an engine ratchet value into mode and repeat count
func DecodeRatchet(value int) (RatchetMode, int) {
	switch {
	case value >= 20:
		return RatchetRampDown, value - 18
	case value >= 10:
		return RatchetRampUp, value - 8
	default:
		return RatchetRegular, value
	}
}

// RatchetName returns the display label for a ratchet index
func RatchetName(index int) string {
	mode, count := DecodeRatchet(ratchetValue(index))
	switch mode {
	case RatchetRampUp:
		return fmt.Sprintf("Ramp Up: %dx", count)
	case RatchetRampDown:
		return fmt.Sprintf("Ramp Dn: %dx", count)
	}
	return fmt.Sprintf("Ratchet: %dx", count)
}

func ratchetValue(index int) int {
	if index < 0 || index >= len(RatchetValues) {
		return 1
	}
	return RatchetValues[index]
}

// Condition plays on iteration M of every N loops, inverted when Not is set.
// N == 0 means no condition.
type Condition struct {
	Name string
	N, M int
	Not  bool
}

// Conditions is indexed by Step.Condition, Step.ParamSpark, Step.CompSpark
// and TransposeStep.Condition.
var Conditions = buildConditions()

func buildConditions() []Condition {
	cycles := []int{2, 3, 4, 5, 6, 8}
	conds := []Condition{{Name: "---"}}
	for _, not := range []bool{false, true} {
		for _, n := range cycles {
			for m := 1; m <= n; m++ {
				name := fmt.Sprintf("%d:%d", m, n)
				if not {
					name = "!" + name
				}
				conds = append(conds, Condition{Name: name, N: n, M: m, Not: not})
			}
		}
	}
	return conds
}

// ConditionAt returns the condition for an index, or the empty condition if out of range
func ConditionAt(index int) Condition {
	if index < 0 || index >= len(Conditions) {
		return Conditions[0]
	}
	return Conditions[index]
}

var ArpModes = []string{
	"Off", "Up", "Down", "Up-Down", "Down-Up", "Up & Down", "Down & Up",
	"Random", "Chord", "Outside-In", "Inside-Out", "Converge", "Diverge",
	"Thumb", "Pinky",
}

// ArpSpeeds are note values; 16 steps make a bar
var ArpSpeeds = []string{"1/32", "1/24", "1/16", "1/12", "1/8", "1/6", "1/4", "1/3", "1/2", "1/1"}

var ArpOctaves = []string{"0", "+1", "+2", "-1", "-2", "±1", "±2"}

// DefaultChannel returns the MIDI channel a track starts on
func DefaultChannel(trackIdx int) int {
	if trackIdx < MelodicTracks {
		return trackIdx
	}
	return DrumChannel
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
