// Package engine is the boundary to the real-time playback engine: a
// string key/value parameter channel, write batching over it, and a local
// simulator that answers position reads without hardware.
package engine

import (
	"strconv"
	"strings"
)

// Channel is the engine's parameter surface. Values are decimal strings.
type Channel interface {
	SetParam(key, value string)
	GetParam(key string) (string, bool)
}

// Position readback keys
const (
	KeyCurrentTransposeStep = "current_transpose_step"
	KeyCurrentTranspose     = "current_transpose"
	KeyPlaying              = "playing"
)

// TrackKey returns track_<t>_<field>
func TrackKey(track int, field string) string {
	return "track_" + strconv.Itoa(track) + "_" + field
}

// StepKey returns track_<t>_step_<s>_<field>
func StepKey(track, step int, field string) string {
	return "track_" + strconv.Itoa(track) + "_step_" + strconv.Itoa(step) + "_" + field
}

// TransposeKey returns transpose_step_<i>_<field>
func TransposeKey(index int, field string) string {
	return "transpose_step_" + strconv.Itoa(index) + "_" + field
}

// ReadInt reads an integer parameter. Missing or unparsable values read as -1.
func ReadInt(ch Channel, key string) int {
	v, ok := ch.GetParam(key)
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return -1
	}
	return n
}

// Bool encodes a flag the way the engine expects
func Bool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
