package sequencer

import (
	"encoding/json"
	"strconv"

	"go-seqomd/debug"
)

// Sparse form: only non-default values are written, under short keys, and
// tracks, patterns and steps are index-keyed objects so that untouched ones
// cost nothing.

var stepKeys = [][2]string{
	{"n", "notes"},
	{"v", "velocities"},
	{"gt", "gate"},
	{"c1", "cc1"},
	{"c2", "cc2"},
	{"pr", "probability"},
	{"co", "condition"},
	{"ra", "ratchet"},
	{"le", "length"},
	{"ps", "paramSpark"},
	{"cs", "compSpark"},
	{"ju", "jump"},
	{"of", "offset"},
	{"am", "arpMode"},
	{"as", "arpSpeed"},
	{"ao", "arpOctave"},
	{"al", "arpLayer"},
	{"ap", "arpPlaySteps"},
	{"at", "arpPlayStart"},
}

var trackKeys = [][2]string{
	{"cp", "currentPattern"},
	{"mu", "muted"},
	{"ch", "channel"},
	{"sp", "speedIndex"},
	{"sw", "swing"},
	{"tl", "trackLength"},
	{"rl", "resetLength"},
	{"ga", "gate"},
	{"am", "arpMode"},
	{"as", "arpSpeed"},
	{"ao", "arpOctave"},
	{"ac", "arpContinuous"},
	{"ap", "arpPlaySteps"},
	{"at", "arpPlayStart"},
	{"c1", "cc1Default"},
	{"c2", "cc2Default"},
}

// EncodeStep returns the sparse form of a step, or nil if it holds no data
func EncodeStep(s *Step) map[string]any {
	if !s.HasData() {
		return nil
	}
	m := map[string]any{}
	if len(s.Notes) > 0 {
		m["n"] = toAnySlice(s.Notes)
		m["v"] = toAnySlice(s.Velocities)
	}
	putOpt(m, "gt", s.Gate)
	putOpt(m, "c1", s.CC1)
	putOpt(m, "c2", s.CC2)
	putInt(m, "pr", s.Probability, DefaultProbability)
	putInt(m, "co", s.Condition, 0)
	putInt(m, "ra", s.Ratchet, 0)
	putInt(m, "le", s.Length, 1)
	putInt(m, "ps", s.ParamSpark, 0)
	putInt(m, "cs", s.CompSpark, 0)
	putInt(m, "ju", s.Jump, NoJump)
	putInt(m, "of", s.Offset, 0)
	putOpt(m, "am", s.ArpMode)
	putOpt(m, "as", s.ArpSpeed)
	putOpt(m, "ao", s.ArpOctave)
	putInt(m, "al", int(s.ArpLayer), int(LayerLayer))
	putOpt(m, "ap", s.ArpPlaySteps)
	putOpt(m, "at", s.ArpPlayStart)
	return m
}

// EncodePattern returns {"s": {index: step}}, or nil if no step holds data
func EncodePattern(p *Pattern) map[string]any {
	steps := map[string]any{}
	for i := range p.Steps {
		if s := EncodeStep(&p.Steps[i]); s != nil {
			steps[strconv.Itoa(i)] = s
		}
	}
	if len(steps) == 0 {
		return nil
	}
	return map[string]any{"s": steps}
}

// EncodeTrack returns the non-default settings and patterns of a track.
// The channel is written only when it differs from the index default.
func EncodeTrack(t *Track, index int) map[string]any {
	m := map[string]any{}
	putInt(m, "cp", t.CurrentPattern, 0)
	if t.Muted {
		m["mu"] = true
	}
	putInt(m, "ch", t.Channel, DefaultChannel(index))
	putInt(m, "sp", t.SpeedIndex, DefaultSpeedIndex)
	putInt(m, "sw", t.Swing, DefaultSwing)
	putInt(m, "tl", t.Length, DefaultTrackLength)
	putInt(m, "rl", t.ResetLength, ResetNever)
	putInt(m, "ga", t.Gate, DefaultGate)
	putInt(m, "am", t.ArpMode, 0)
	putInt(m, "as", t.ArpSpeed, DefaultArpSpeed)
	putInt(m, "ao", t.ArpOctave, 0)
	putInt(m, "ac", t.ArpContinuous, 0)
	putInt(m, "ap", t.ArpPlaySteps, DefaultArpPlay)
	putInt(m, "at", t.ArpPlayStart, 0)
	putInt(m, "c1", t.CC1Default, DefaultCC)
	putInt(m, "c2", t.CC2Default, DefaultCC)

	patterns := map[string]any{}
	for i := range t.Patterns {
		if p := EncodePattern(&t.Patterns[i]); p != nil {
			patterns[strconv.Itoa(i)] = p
		}
	}
	if len(patterns) > 0 {
		m["p"] = patterns
	}
	return m
}

// EncodeTracks returns {index: track}, leaving out tracks with nothing to store
func EncodeTracks(ts *Tracks) map[string]any {
	out := map[string]any{}
	for i, t := range ts {
		if t == nil {
			continue
		}
		if m := EncodeTrack(t, i); len(m) > 0 {
			out[strconv.Itoa(i)] = m
		}
	}
	return out
}

func putInt(m map[string]any, key string, v, def int) {
	if v != def {
		m[key] = v
	}
}

func putOpt(m map[string]any, key string, o Opt) {
	if v, ok := o.Unpack(); ok {
		m[key] = v
	}
}

// shape tags a decoded value by structure. Stored data carries no version
// field: dense lists are the legacy layout, index-keyed objects the sparse one.
type shape int

const (
	shapeAbsent shape = iota
	shapeDense
	shapeSparse
)

func shapeOf(v any) shape {
	switch v.(type) {
	case []any:
		return shapeDense
	case map[string]any:
		return shapeSparse
	}
	return shapeAbsent
}

// slots lays out a dense list or a sparse index-keyed object as n entries.
// Out of range and non-numeric indices are ignored.
func slots(v any, n int) []any {
	out := make([]any, n)
	switch shapeOf(v) {
	case shapeDense:
		copy(out, v.([]any))
	case shapeSparse:
		for k, e := range v.(map[string]any) {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= n {
				continue
			}
			out[i] = e
		}
	}
	return out
}

// longKeys copies m, filling each long key from its short alias when absent
func longKeys(m map[string]any, keys [][2]string) map[string]any {
	out := make(map[string]any, len(m)+len(keys))
	for k, v := range m {
		out[k] = v
	}
	for _, kv := range keys {
		if _, ok := out[kv[1]]; ok {
			continue
		}
		if v, ok := m[kv[0]]; ok {
			out[kv[1]] = v
		}
	}
	return out
}

// canonicalTracks converts any stored tracks value into the dense long-key
// layout understood by Migrate
func canonicalTracks(v any) []any {
	if shapeOf(v) == shapeAbsent {
		return nil
	}
	ts := slots(v, NumTracks)
	for i := range ts {
		ts[i] = canonicalTrack(ts[i])
	}
	return ts
}

func canonicalTrack(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := longKeys(m, trackKeys)
	src := m["patterns"]
	if shapeOf(src) == shapeAbsent {
		src = m["p"]
	}
	patterns := slots(src, NumPatterns)
	for i := range patterns {
		patterns[i] = canonicalPattern(patterns[i])
	}
	out["patterns"] = patterns
	return out
}

func canonicalPattern(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	src := m["steps"]
	if shapeOf(src) == shapeAbsent {
		src = m["s"]
	}
	steps := slots(src, NumSteps)
	for i := range steps {
		steps[i] = canonicalStep(steps[i])
	}
	return map[string]any{"steps": steps}
}

func canonicalStep(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return longKeys(m, stepKeys)
}

// DecodeStep reads a step in either key style; nil yields an empty step
func DecodeStep(v any) Step {
	m, ok := canonicalStep(v).(map[string]any)
	if !ok {
		return NewStep()
	}
	return migrateStep(fields(m))
}

// DecodeTrack reads a dense or sparse track; nil yields a default track
func DecodeTrack(v any, index int) *Track {
	m, ok := canonicalTrack(v).(map[string]any)
	if !ok {
		return NewTrack(DefaultChannel(index))
	}
	return migrateTrack(fields(m), index)
}

// DecodeTracksValue reads tracks from an already decoded JSON value
func DecodeTracksValue(v any) *Tracks {
	return Migrate(canonicalTracks(v))
}

// DecodeTracks reads tracks stored in any historical layout. Empty or
// malformed input yields default tracks.
func DecodeTracks(raw []byte) *Tracks {
	if len(raw) == 0 {
		return NewTracks()
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		debug.Log("migrate", "tracks: %v, using defaults", err)
		return NewTracks()
	}
	return DecodeTracksValue(v)
}

// MarshalTracks returns the sparse JSON form of the tracks
func MarshalTracks(ts *Tracks) ([]byte, error) {
	return json.Marshal(EncodeTracks(ts))
}
