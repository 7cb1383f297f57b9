package sequencer

import (
	"encoding/json"
	"math"

	"go-seqomd/debug"
)

// Migrate builds schema-current tracks from decoded track data of any
// revision. The input is the dense long-key shape: a list of track objects,
// each with a "patterns" list of objects holding a "steps" list.
//
// Missing tracks, patterns, steps and fields take their defaults, values that
// cannot be interpreted fall back to defaults, loopStart/loopEnd are dropped
// and a scalar step velocity is spread across the step's notes. Migrate never
// fails and Migrate(Export(Migrate(x))) equals Migrate(x).
func Migrate(data []any) *Tracks {
	tracks := NewTracks()
	for i := 0; i < NumTracks && i < len(data); i++ {
		m, ok := data[i].(map[string]any)
		if !ok {
			if data[i] != nil {
				debug.Log("migrate", "track %d: unexpected %T, using defaults", i, data[i])
			}
			continue
		}
		tracks[i] = migrateTrack(fields(m), i)
	}
	return tracks
}

func migrateTrack(f fields, idx int) *Track {
	t := NewTrack(DefaultChannel(idx))

	t.SetCurrentPattern(f.intOr(0, "currentPattern"))
	t.Muted = f.boolOr(false, "muted")
	t.SetChannel(f.intOr(t.Channel, "channel"))
	t.SetSpeedIndex(f.intOr(DefaultSpeedIndex, "speedIndex"))
	t.SetSwing(f.intOr(DefaultSwing, "swing"))
	t.SetLength(f.intOr(DefaultTrackLength, "trackLength"))
	t.SetResetLength(f.intOr(ResetNever, "resetLength"))
	t.SetGate(f.intOr(DefaultGate, "gate"))
	t.SetArpMode(f.intOr(0, "arpMode"))
	t.SetArpSpeed(f.intOr(DefaultArpSpeed, "arpSpeed"))
	t.SetArpOctave(f.intOr(0, "arpOctave"))
	t.ArpContinuous = clamp(f.intOr(0, "arpContinuous"), 0, 1)
	t.ArpPlaySteps = clamp(f.intOr(DefaultArpPlay, "arpPlaySteps"), 1, 255)
	t.ArpPlayStart = clamp(f.intOr(0, "arpPlayStart"), 0, 7)
	t.CC1Default = clamp(f.intOr(DefaultCC, "cc1Default"), 0, 127)
	t.CC2Default = clamp(f.intOr(DefaultCC, "cc2Default"), 0, 127)

	patterns, _ := f["patterns"].([]any)
	for p := 0; p < NumPatterns && p < len(patterns); p++ {
		pm, ok := patterns[p].(map[string]any)
		if !ok {
			continue
		}
		steps, _ := pm["steps"].([]any)
		for s := 0; s < NumSteps && s < len(steps); s++ {
			sm, ok := steps[s].(map[string]any)
			if !ok {
				continue
			}
			t.Patterns[p].Steps[s] = migrateStep(fields(sm))
		}
	}
	return t
}

func migrateStep(f fields) Step {
	s := NewStep()

	notes, vels := f.notes()
	s.Notes = notes
	s.Velocities = vels

	s.SetGate(f.intOr(0, "gate"))
	s.SetCC(1, f.intOr(-1, "cc1"))
	s.SetCC(2, f.intOr(-1, "cc2"))
	s.SetProbability(f.intOr(DefaultProbability, "probability"))
	s.SetCondition(f.intOr(0, "condition"))
	s.SetRatchet(f.intOr(0, "ratchet"))
	s.SetLength(f.intOr(1, "length"))
	s.SetParamSpark(f.intOr(0, "paramSpark"))
	s.SetCompSpark(f.intOr(0, "compSpark"))
	s.SetJump(f.intOr(NoJump, "jump"))
	s.SetOffset(f.intOr(0, "offset"))
	s.ArpMode = optIn(f.intOr(-1, "arpMode"), len(ArpModes)-1)
	s.ArpSpeed = optIn(f.intOr(-1, "arpSpeed"), len(ArpSpeeds)-1)
	s.ArpOctave = optIn(f.intOr(-1, "arpOctave"), len(ArpOctaves)-1)
	s.SetArpLayer(ArpLayer(f.intOr(0, "arpLayer")))
	s.ArpPlaySteps = optIn(f.intOr(-1, "arpPlaySteps"), 255)
	s.ArpPlayStart = optIn(f.intOr(-1, "arpPlayStart"), 7)
	return s
}

func optIn(v, hi int) Opt {
	if v < 0 {
		return None()
	}
	return Some(clamp(v, 0, hi))
}

// Export returns the dense long-key representation accepted by Migrate
func (ts *Tracks) Export() []any {
	out := make([]any, NumTracks)
	for i, t := range ts {
		if t == nil {
			t = NewTrack(DefaultChannel(i))
		}
		patterns := make([]any, NumPatterns)
		for p := range t.Patterns {
			steps := make([]any, NumSteps)
			for s := range t.Patterns[p].Steps {
				steps[s] = exportStep(&t.Patterns[p].Steps[s])
			}
			patterns[p] = map[string]any{"steps": steps}
		}
		out[i] = map[string]any{
			"currentPattern": t.CurrentPattern,
			"muted":          t.Muted,
			"channel":        t.Channel,
			"speedIndex":     t.SpeedIndex,
			"swing":          t.Swing,
			"trackLength":    t.Length,
			"resetLength":    t.ResetLength,
			"gate":           t.Gate,
			"arpMode":        t.ArpMode,
			"arpSpeed":       t.ArpSpeed,
			"arpOctave":      t.ArpOctave,
			"arpContinuous":  t.ArpContinuous,
			"arpPlaySteps":   t.ArpPlaySteps,
			"arpPlayStart":   t.ArpPlayStart,
			"cc1Default":     t.CC1Default,
			"cc2Default":     t.CC2Default,
			"patterns":       patterns,
		}
	}
	return out
}

func exportStep(s *Step) map[string]any {
	gate, _ := s.Gate.Unpack()
	return map[string]any{
		"notes":        toAnySlice(s.Notes),
		"velocities":   toAnySlice(s.Velocities),
		"gate":         gate,
		"cc1":          s.CC1.Sentinel(),
		"cc2":          s.CC2.Sentinel(),
		"probability":  s.Probability,
		"condition":    s.Condition,
		"ratchet":      s.Ratchet,
		"length":       s.Length,
		"paramSpark":   s.ParamSpark,
		"compSpark":    s.CompSpark,
		"jump":         s.Jump,
		"offset":       s.Offset,
		"arpMode":      s.ArpMode.Sentinel(),
		"arpSpeed":     s.ArpSpeed.Sentinel(),
		"arpOctave":    s.ArpOctave.Sentinel(),
		"arpLayer":     int(s.ArpLayer),
		"arpPlaySteps": s.ArpPlaySteps.Sentinel(),
		"arpPlayStart": s.ArpPlayStart.Sentinel(),
	}
}

func toAnySlice(vs []int) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// fields reads loosely typed values out of decoded JSON objects
type fields map[string]any

// intOr returns the first key holding a number, or def
func (f fields) intOr(def int, keys ...string) int {
	for _, k := range keys {
		if v, ok := toInt(f[k]); ok {
			return v
		}
	}
	return def
}

func (f fields) boolOr(def bool, keys ...string) bool {
	for _, k := range keys {
		switch v := f[k].(type) {
		case bool:
			return v
		case nil:
		default:
			if n, ok := toInt(v); ok {
				return n != 0
			}
		}
	}
	return def
}

// notes returns the step's notes with a velocity for each. Velocities come
// from the per-note list, then the legacy scalar velocity, then the default.
func (f fields) notes() ([]int, []int) {
	raw, _ := f["notes"].([]any)
	rawVels, _ := f["velocities"].([]any)
	legacy := f.intOr(DefaultVelocity, "velocity")

	notes := make([]int, 0, len(raw))
	vels := make([]int, 0, len(raw))
	for i, rn := range raw {
		n, ok := toInt(rn)
		if !ok {
			continue
		}
		vel := legacy
		if i < len(rawVels) {
			if v, ok := toInt(rawVels[i]); ok {
				vel = v
			}
		}
		notes = append(notes, clamp(n, 0, 127))
		vels = append(vels, clamp(vel, 1, 127))
	}
	return notes, vels
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if fl, err := n.Float64(); err == nil {
			return int(fl), true
		}
	}
	return 0, false
}
