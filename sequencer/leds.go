package sequencer

import (
	"sync"

	"go-seqomd/debug"
	"go-seqomd/midi"
)

// Grid layout on an 8x8 controller:
// rows 4-7 show 32 steps of the selected track (the page under the playhead),
// the bottom-left 4x4 selects tracks, the bottom-right 4x4 is the transpose
// lane, and the top row holds transport buttons.
const (
	StepsPerPage = 32

	PadPlay = 0 // top row column
	PadMute = 1
	PadPrev = 2
	PadNext = 3
)

var (
	colorStep       = [3]uint8{234, 73, 116}  // pink
	colorStepEmpty  = [3]uint8{80, 30, 50}    // dim pink, in bounds
	colorSounding   = [3]uint8{253, 157, 110} // orange
	colorPlayhead   = [3]uint8{255, 255, 255} // white
	colorTrack      = [3]uint8{148, 18, 126}  // purple, has notes
	colorTrackEmpty = [3]uint8{40, 10, 30}
	colorMuted      = [3]uint8{180, 60, 60}
	colorTranspose  = [3]uint8{71, 13, 121}
	colorPlaying    = [3]uint8{0, 255, 0}
	colorOff        = [3]uint8{0, 0, 0}
)

// StepPad returns the pad showing a step on a page, ok false when off page
func StepPad(step, page int) (row, col int, ok bool) {
	i := step - page*StepsPerPage
	if i < 0 || i >= StepsPerPage {
		return 0, 0, false
	}
	return 7 - i/8, i % 8, true
}

// PadStep is the inverse of StepPad, -1 for pads outside the step area
func PadStep(row, col, page int) int {
	if row < 4 || row > 7 || col < 0 || col > 7 {
		return -1
	}
	return page*StepsPerPage + (7-row)*8 + col
}

// PadTrack returns the track selected by a bottom-left pad, or -1
func PadTrack(row, col int) int {
	if row < 0 || row > 3 || col < 0 || col > 3 {
		return -1
	}
	return (3-row)*4 + col
}

// PadTranspose returns the transpose slot of a bottom-right pad, or -1
func PadTranspose(row, col int) int {
	if row < 0 || row > 3 || col < 4 || col > 7 {
		return -1
	}
	return (3-row)*4 + col - 4
}

// RenderLEDs draws a frame of the session onto the grid
func RenderLEDs(s *Session, f Frame, page int) []midi.LEDUpdate {
	var leds []midi.LEDUpdate
	add := func(row, col int, color [3]uint8, channel uint8) {
		leds = append(leds, midi.LEDUpdate{Row: row, Col: col, Color: color, Channel: channel})
	}

	track := s.ActiveTrack()
	pat := track.ActivePattern()
	for i := range StepsPerPage {
		step := page*StepsPerPage + i
		row, col, _ := StepPad(step, page)
		switch {
		case step >= track.Length:
			add(row, col, colorOff, midi.ChannelStatic)
		case step == f.Step:
			add(row, col, colorPlayhead, midi.ChannelPulse)
		case len(pat.Steps[step].Notes) > 0 && f.Step >= step && f.Step < step+pat.Steps[step].Length:
			add(row, col, colorSounding, midi.ChannelStatic)
		case len(pat.Steps[step].Notes) > 0:
			add(row, col, colorStep, midi.ChannelStatic)
		default:
			add(row, col, colorStepEmpty, midi.ChannelStatic)
		}
	}

	for t := range NumTracks {
		row, col := 3-t/4, t%4
		switch {
		case t == s.SelectedTrack:
			add(row, col, colorPlayhead, midi.ChannelStatic)
		case s.Tracks[t].Muted:
			add(row, col, colorMuted, midi.ChannelStatic)
		case s.Tracks[t].ActivePattern().HasData():
			add(row, col, colorTrack, midi.ChannelStatic)
		default:
			add(row, col, colorTrackEmpty, midi.ChannelStatic)
		}
	}

	for i := range MaxTransposeSteps {
		row, col := 3-i/4, 4+i%4
		switch {
		case i == f.TransposeStep:
			add(row, col, colorPlayhead, midi.ChannelPulse)
		case s.Transpose.Step(i) != nil:
			add(row, col, colorTranspose, midi.ChannelStatic)
		}
	}

	if f.Playing {
		add(8, PadPlay, colorPlaying, midi.ChannelStatic)
	}
	if track.Muted {
		add(8, PadMute, colorMuted, midi.ChannelStatic)
	}
	if page > 0 {
		add(8, PadPrev, colorTrack, midi.ChannelStatic)
	}
	if (page+1)*StepsPerPage < track.Length {
		add(8, PadNext, colorTrack, midi.ChannelStatic)
	}
	return leds
}

// LEDSink renders frames to a grid controller, sending only pads that changed
type LEDSink struct {
	session *Session

	mu         sync.Mutex
	controller midi.Controller
	prev       map[[2]int]midi.LEDUpdate
	page       int
	follow     bool
}

// NewLEDSink draws s on controller (which may be set later)
func NewLEDSink(s *Session, controller midi.Controller) *LEDSink {
	return &LEDSink{
		session:    s,
		controller: controller,
		prev:       make(map[[2]int]midi.LEDUpdate),
		follow:     true,
	}
}

// SetController swaps the controller and forgets what was lit
func (l *LEDSink) SetController(c midi.Controller) {
	l.mu.Lock()
	defer l.mu.Unlock()
	debug.Log("ctrl", "LED sink controller set, resetting diff state")
	l.controller = c
	l.prev = make(map[[2]int]midi.LEDUpdate)
}

// Page returns the step page on display
func (l *LEDSink) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// SetPage pins the display to a page; a negative page follows the playhead
func (l *LEDSink) SetPage(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.follow = page < 0
	if page >= 0 {
		l.page = min(page, NumSteps/StepsPerPage-1)
	}
}

// Render implements FeedbackSink
func (l *LEDSink) Render(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.follow && f.Step >= 0 {
		l.page = f.Step / StepsPerPage
	}
	if l.controller == nil {
		return
	}

	next := make(map[[2]int]midi.LEDUpdate)
	var updates []midi.LEDUpdate
	for _, led := range RenderLEDs(l.session, f, l.page) {
		key := [2]int{led.Row, led.Col}
		next[key] = led
		if prev, ok := l.prev[key]; !ok || prev != led {
			updates = append(updates, led)
		}
	}
	for key := range l.prev {
		if _, ok := next[key]; !ok {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1], Color: colorOff})
		}
	}

	if len(updates) > 0 {
		debug.LogEvery(50, "led", "flush: batch=%d prev=%d", len(updates), len(l.prev))
		if err := l.controller.SetLEDBatch(updates); err != nil {
			debug.Log("led", "flush: %v", err)
			return
		}
	}
	l.prev = next
}
