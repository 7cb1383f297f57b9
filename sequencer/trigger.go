package sequencer

import "go-seqomd/engine"

// Passes reports whether the condition holds on a 0-based loop count
func (c Condition) Passes(loop int) bool {
	return engine.ConditionPasses(c.N, c.M, c.Not, loop)
}

// SparkPasses evaluates a param or comp spark index on a loop count
func SparkPasses(index, loop int) bool {
	return ConditionAt(index).Passes(loop)
}

// Roller returns an int in [0, n)
type Roller interface {
	IntN(n int) int
}

// ShouldTrigger decides whether a step plays on a loop: its condition is
// checked first, then its probability. A nil roller treats every
// probability below 100 as a miss.
func ShouldTrigger(s *Step, loop int, rng Roller) bool {
	if s.IsEmpty() {
		return false
	}
	if !ConditionAt(s.Condition).Passes(loop) {
		return false
	}
	if s.Probability >= 100 {
		return true
	}
	if rng == nil {
		return false
	}
	return rng.IntN(100) < s.Probability
}

// Hits returns one velocity per ratchet hit of a step, shaped by the ratchet mode
func Hits(s *Step, velocity int) []int {
	mode, count := DecodeRatchet(ratchetValue(s.Ratchet))
	out := make([]int, count)
	for i := range out {
		switch {
		case count == 1 || mode == RatchetRegular:
			out[i] = velocity
		case mode == RatchetRampUp:
			out[i] = max(1, velocity*(i+1)/count)
		default:
			out[i] = max(1, velocity*(count-i)/count)
		}
	}
	return out
}
