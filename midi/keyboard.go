package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController turns a MIDI keyboard into a step entry device. Each
// note-on reports the chord held with it, so pressing several keys before
// touching a step pad enters them together.
type KeyboardController struct {
	id       string
	stopFunc func()

	mu   sync.Mutex
	held [128]bool

	padChan  chan PadEvent
	noteChan chan NoteEvent
}

// NewKeyboardController listens on inPort; a nil port gives a controller
// that only receives what is passed to Handle
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:       id,
		padChan:  make(chan PadEvent),
		noteChan: make(chan NoteEvent, 32),
	}
	if inPort == nil {
		return kb, nil
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, _ int32) {
		if evt, ok := kb.Handle(msg); ok {
			select {
			case kb.noteChan <- evt:
			default:
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("keyboard %s: %w", id, err)
	}
	kb.stopFunc = stop
	return kb, nil
}

// Handle updates the held keys from one message and returns the entry event
// for a note-on. Note-offs, including note-ons with velocity 0, release keys.
func (kb *KeyboardController) Handle(msg gomidi.Message) (NoteEvent, bool) {
	var channel, note, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		kb.mu.Lock()
		defer kb.mu.Unlock()
		kb.held[note] = true
		return NoteEvent{Note: note, Velocity: velocity, Channel: channel, Chord: kb.chord()}, true
	case msg.GetNoteEnd(&channel, &note):
		kb.mu.Lock()
		kb.held[note] = false
		kb.mu.Unlock()
	}
	return NoteEvent{}, false
}

func (kb *KeyboardController) chord() []uint8 {
	var out []uint8
	for n, down := range kb.held {
		if down {
			out = append(out, uint8(n))
		}
	}
	return out
}

func (kb *KeyboardController) ID() string           { return kb.id }
func (kb *KeyboardController) Type() ControllerType { return ControllerKeyboard }

func (kb *KeyboardController) PadEvents() <-chan PadEvent   { return kb.padChan }
func (kb *KeyboardController) NoteEvents() <-chan NoteEvent { return kb.noteChan }

// Keyboards have no LEDs
func (kb *KeyboardController) SetLEDRGB(int, int, [3]uint8, uint8) error { return nil }
func (kb *KeyboardController) SetLEDBatch([]LEDUpdate) error             { return nil }

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.padChan)
	close(kb.noteChan)
	return nil
}
