package midi

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go-seqomd/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ledSendCount uint64

// LaunchpadModel selects the SysEx device byte of a Launchpad (MK3 family)
type LaunchpadModel uint8

const (
	LaunchpadX    LaunchpadModel = 0x0C
	LaunchpadMini LaunchpadModel = 0x0D
	LaunchpadPro  LaunchpadModel = 0x0E
)

// ModelFromName guesses the model from a port name, defaulting to the X
func ModelFromName(name string) LaunchpadModel {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "mini"):
		return LaunchpadMini
	case strings.Contains(name, "pro"):
		return LaunchpadPro
	default:
		return LaunchpadX
	}
}

func (m LaunchpadModel) String() string {
	switch m {
	case LaunchpadMini:
		return "Launchpad Mini MK3"
	case LaunchpadPro:
		return "Launchpad Pro MK3"
	default:
		return "Launchpad X"
	}
}

func (m LaunchpadModel) sysex(body ...byte) gomidi.Message {
	return gomidi.SysEx(append([]byte{0x00, 0x20, 0x29, 0x02, byte(m)}, body...))
}

// ProgrammerMode is the SysEx switching the device to programmer layout
func (m LaunchpadModel) ProgrammerMode() gomidi.Message {
	return m.sysex(0x00, 0x7F)
}

// LaunchpadController handles a Novation Launchpad
type LaunchpadController struct {
	id       string
	model    LaunchpadModel
	outPort  drivers.Out
	inPort   drivers.In
	send     func(msg gomidi.Message) error
	stopFunc func()

	padChan  chan PadEvent
	noteChan chan NoteEvent
}

// NewLaunchpadController opens the ports and switches to programmer mode
func NewLaunchpadController(id string, model LaunchpadModel, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:       id,
		model:    model,
		inPort:   inPort,
		outPort:  outPort,
		padChan:  make(chan PadEvent, 32),
		noteChan: make(chan NoteEvent, 32),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send

		lp.send(model.ProgrammerMode())
		// full brightness, then LED feedback for externally sent notes
		lp.send(model.sysex(0x08, 0x7F))
		lp.send(model.sysex(0x0A, 0x01, 0x01))
		debug.Log("ctrl", "%s %q in programmer mode", model, id)
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			var channel, note, velocity uint8
			var cc, value uint8

			// grid and scene column
			if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
				row, col := noteToRowCol(note)
				if row >= 0 {
					select {
					case lp.padChan <- PadEvent{Row: row, Col: col, Velocity: velocity}:
					default:
					}
				}
			}

			// top row
			if msg.GetControlChange(&channel, &cc, &value) && value > 0 {
				row, col := ccToRowCol(cc)
				if row >= 0 {
					select {
					case lp.padChan <- PadEvent{Row: row, Col: col, Velocity: value}:
					default:
					}
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

// Model returns the Launchpad model
func (lp *LaunchpadController) Model() LaunchpadModel {
	return lp.model
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.padChan
}

func (lp *LaunchpadController) NoteEvents() <-chan NoteEvent {
	return lp.noteChan
}

func (lp *LaunchpadController) SetLEDRGB(row, col int, rgb [3]uint8, channel uint8) error {
	return lp.SetLEDBatch([]LEDUpdate{{Row: row, Col: col, Color: rgb, Channel: channel}})
}

// SetLEDBatch sends one message per update (NoteOn for the grid, CC for the
// top row); callers diff before sending
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	for _, u := range updates {
		msg := gomidi.NoteOn(u.Channel, rowColToNote(u.Row, u.Col), PaletteIndex(u.Color))
		if u.Row == 8 {
			msg = gomidi.ControlChange(u.Channel, rowColToNote(u.Row, u.Col), PaletteIndex(u.Color))
		}
		if err := lp.send(msg); err != nil {
			return fmt.Errorf("led %d,%d: %w", u.Row, u.Col, err)
		}
	}

	count := atomic.AddUint64(&ledSendCount, uint64(len(updates)))
	if count%100 < uint64(len(updates)) {
		debug.Log("lp-send", "batch count=%d (this batch=%d)", count, len(updates))
	}
	return nil
}

// approximate RGB of common palette velocities: {velocity, R, G, B}
var launchpadPalette = [][4]uint8{
	{0, 0, 0, 0},
	{5, 255, 0, 0},
	{6, 255, 80, 80},
	{7, 180, 60, 60},
	{9, 255, 100, 0},
	{11, 180, 80, 40},
	{13, 255, 200, 0},
	{17, 0, 180, 0},
	{19, 0, 100, 0},
	{21, 0, 255, 0},
	{37, 0, 200, 200},
	{43, 40, 60, 120},
	{45, 0, 100, 255},
	{47, 80, 150, 255},
	{49, 150, 0, 200},
	{53, 255, 80, 180},
	{78, 100, 100, 255},
	{84, 255, 150, 50},
	{87, 150, 255, 100},
	{97, 180, 180, 60},
	{119, 255, 255, 255},
}

// PaletteIndex returns the nearest Launchpad palette velocity for an RGB color
func PaletteIndex(rgb [3]uint8) uint8 {
	best := uint8(0)
	bestDist := -1
	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range launchpadPalette {
		dr, dg, db := r-int(p[1]), g-int(p[2]), b-int(p[3])
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = p[0]
		}
	}
	return best
}

func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		var updates []LEDUpdate
		for row := range 9 {
			for col := range 9 {
				if row == 8 && col == 8 {
					continue // no LED
				}
				updates = append(updates, LEDUpdate{Row: row, Col: col})
			}
		}
		lp.SetLEDBatch(updates)
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	close(lp.padChan)
	close(lp.noteChan)
	return nil
}

// Programmer layout:
// grid rows 0 (bottom) to 7 are notes 11-18 .. 81-88,
// scene column (col 8) is notes 19, 29 .. 89,
// top row (row 8) is CC 91-98.

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
