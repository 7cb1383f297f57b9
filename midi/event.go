package midi

import (
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a MIDI message scheduled for the note output
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15
	Note     uint8 // note or controller number
	Velocity uint8 // velocity or controller value
	Due      time.Time
}

// Message converts the event to a wire message
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	default:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	}
}
