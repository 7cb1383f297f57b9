package sequencer

import (
	"context"
	"slices"
	"sync"
	"time"

	"go-seqomd/debug"
	"go-seqomd/engine"
	"go-seqomd/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Options tune a Manager; zero values take defaults
type Options struct {
	ChunkBytes int
	LEDDivisor int
	Debounce   time.Duration
	TickRate   time.Duration
	OutputPort string // MIDI out for notes played by the simulator
}

// DefaultTickRate is the observer poll period
const DefaultTickRate = 10 * time.Millisecond

// Manager runs a session against an engine. One goroutine ticks the
// observer; when the engine is the local simulator another drives it and
// its notes go out over MIDI. Pad, keyboard and TUI input edit the session
// under the same lock.
type Manager struct {
	mu       sync.Mutex
	session  *Session
	syncer   *Syncer
	sim      *engine.Sim
	observer *Observer
	leds     *LEDSink
	frame    Frame
	tickRate time.Duration

	entryNote  int   // note placed by step pads, follows the keyboard
	entryChord []int // held keyboard chord, replaces entryNote when set

	// note output
	outPort   string
	senders   map[string]func(gomidi.Message) error
	sendersMu sync.RWMutex
	offMu     sync.Mutex
	noteOffs  []midi.Event

	controller midi.Controller

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager attaches s to ch and performs the initial full sync
func NewManager(s *Session, ch engine.Channel, opts Options) *Manager {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	m := &Manager{
		session:    s,
		syncer:     NewSyncer(ch, opts.ChunkBytes),
		leds:       NewLEDSink(s, nil),
		tickRate:   opts.TickRate,
		entryNote:  60,
		outPort:    opts.OutputPort,
		senders:    make(map[string]func(gomidi.Message) error),
		UpdateChan: make(chan struct{}, 1),
	}
	if sim, ok := ch.(*engine.Sim); ok {
		m.sim = sim
		sim.OnNote = m.playNote
	}
	s.SetDebounce(opts.Debounce)
	m.observer = NewObserver(s, m.syncer.Channel(), m, opts.LEDDivisor)
	s.AttachEngine(m.syncer)
	m.frame = m.observer.Frame()
	return m
}

// Run ticks the observer (and the simulator, if any) until ctx is done
func (m *Manager) Run(ctx context.Context) {
	if m.sim != nil {
		go m.sim.Run(ctx, m.tickRate)
	}

	ticker := time.NewTicker(m.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			if err := m.session.Stop(); err != nil {
				debug.Log("persist", "save on exit: %v", err)
			}
			if err := m.session.FlushDirty(); err != nil {
				debug.Log("persist", "save on exit: %v", err)
			}
			m.mu.Unlock()
			m.flushNoteOffs(time.Time{})
			return
		case now := <-ticker.C:
			m.Tick()
			m.flushNoteOffs(now)
		}
	}
}

// Tick runs one observer poll
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer.Tick()
}

// Render implements FeedbackSink; called by the observer with mu held
func (m *Manager) Render(f Frame) {
	m.frame = f
	m.leds.Render(f)
	m.notifyUpdate()
}

// Frame returns the last rendered frame
func (m *Manager) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// Snapshot runs fn with the session locked, for readers such as the TUI
func (m *Manager) Snapshot(fn func(s *Session, f Frame)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.session, m.frame)
}

// Edit runs fn with the session locked and refreshes feedback afterwards
func (m *Manager) Edit(fn func(s *Session)) {
	m.mu.Lock()
	fn(m.session)
	m.observer.Invalidate()
	m.mu.Unlock()
	m.notifyUpdate()
}

// Syncer returns the engine syncer
func (m *Manager) Syncer() *Syncer {
	return m.syncer
}

// Play starts the transport
func (m *Manager) Play() {
	m.Edit(func(s *Session) { s.Play() })
}

// Stop halts the transport, saves pending edits and silences held notes
func (m *Manager) Stop() {
	m.Edit(func(s *Session) {
		if err := s.Stop(); err != nil {
			debug.Log("persist", "save on stop: %v", err)
		}
	})
	m.flushNoteOffs(time.Time{})
}

// TogglePlay starts or stops the transport
func (m *Manager) TogglePlay() {
	m.mu.Lock()
	playing := m.session.Playing
	m.mu.Unlock()
	if playing {
		m.Stop()
	} else {
		m.Play()
	}
}

// SetTempo sets the BPM
func (m *Manager) SetTempo(bpm int) {
	m.Edit(func(s *Session) { s.SetBPM(bpm) })
}

// LoadSet switches to another set
func (m *Manager) LoadSet(idx int) error {
	var err error
	m.Edit(func(s *Session) { err = s.LoadSet(idx) })
	return err
}

// SetController sets the grid controller for LED feedback and pad input
func (m *Manager) SetController(c midi.Controller) {
	m.mu.Lock()
	m.controller = c
	m.leds.SetController(c)
	m.observer.Invalidate()
	m.mu.Unlock()

	if c == nil {
		return
	}
	go func() {
		for evt := range c.PadEvents() {
			m.HandlePad(evt.Row, evt.Col)
		}
	}()
	go func() {
		for evt := range c.NoteEvents() {
			m.HandleNote(evt)
		}
	}()
}

// HandlePad applies a grid press
func (m *Manager) HandlePad(row, col int) {
	if row == 8 {
		switch col {
		case PadPlay:
			m.TogglePlay()
		case PadMute:
			m.Edit(func(s *Session) { s.ToggleMute(s.SelectedTrack) })
		case PadPrev:
			m.leds.SetPage(max(m.leds.Page()-1, 0))
			m.Edit(func(*Session) {})
		case PadNext:
			m.leds.SetPage(m.leds.Page() + 1)
			m.Edit(func(*Session) {})
		}
		return
	}

	m.Edit(func(s *Session) {
		if step := PadStep(row, col, m.leds.Page()); step >= 0 {
			note, chord := m.entryNote, m.entryChord
			s.EditStep(s.SelectedTrack, step, func(st *Step) {
				if len(chord) > 1 {
					toggleChord(st, chord)
					return
				}
				st.ToggleNote(note, DefaultVelocity)
			})
			return
		}
		if t := PadTrack(row, col); t >= 0 {
			s.SelectTrack(t)
			return
		}
		if i := PadTranspose(row, col); i >= 0 {
			s.EditTranspose(func(ts *TransposeSequence) {
				if ts.Step(i) == nil {
					ts.Set(i, 0, None())
				} else {
					ts.Remove(i)
				}
			})
		}
	})
}

// toggleChord places a chord on a step, or clears the step if it already
// holds exactly that chord
func toggleChord(st *Step, chord []int) {
	if slices.Equal(st.Notes, chord) {
		st.SetNotes(nil, nil)
		return
	}
	st.SetNotes(chord, nil)
}

// HandleNote sets the note (or held chord) entered by step pads and echoes
// the note to the output
func (m *Manager) HandleNote(evt midi.NoteEvent) {
	note, velocity := evt.Note, evt.Velocity
	var chord []int
	if len(evt.Chord) > 1 {
		chord = make([]int, len(evt.Chord))
		for i, n := range evt.Chord {
			chord[i] = int(n)
		}
	}

	m.mu.Lock()
	m.entryNote = int(note)
	m.entryChord = chord
	ch := uint8(m.session.ActiveTrack().Channel)
	m.mu.Unlock()

	if send := m.getSender(m.outPort); send != nil {
		send(gomidi.NoteOn(ch, note, velocity))
		m.scheduleOff(midi.Event{Type: midi.NoteOff, Channel: ch, Note: note, Due: time.Now().Add(100 * time.Millisecond)})
	}
	m.notifyUpdate()
}

// SetEntryNote sets the note step pads place without sounding it
func (m *Manager) SetEntryNote(note int) {
	m.mu.Lock()
	m.entryNote = min(max(note, 0), 127)
	m.entryChord = nil
	m.mu.Unlock()
	m.notifyUpdate()
}

// EntryNote returns the note step pads place
func (m *Manager) EntryNote() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryNote
}

// playNote receives simulator notes
func (m *Manager) playNote(n engine.Note) {
	m.mu.Lock()
	bpm := m.session.BPM
	m.mu.Unlock()

	debug.LogEvery(16, "engine", "note t=%d n=%d v=%d", n.Track, n.Note, n.Velocity)
	send := m.getSender(m.outPort)
	if send == nil {
		return
	}
	on := midi.Event{Type: midi.NoteOn, Channel: uint8(n.Channel), Note: uint8(n.Note), Velocity: uint8(n.Velocity)}
	if err := send(on.Message()); err != nil {
		debug.Log("engine", "note out: %v", err)
		return
	}
	stepDur := time.Minute / time.Duration(bpm*engine.StepsPerBeat)
	off := on
	off.Type = midi.NoteOff
	off.Due = time.Now().Add(time.Duration(max(n.Steps, 1)) * stepDur)
	m.scheduleOff(off)
}

func (m *Manager) scheduleOff(e midi.Event) {
	m.offMu.Lock()
	m.noteOffs = append(m.noteOffs, e)
	m.offMu.Unlock()
}

// flushNoteOffs sends note-offs due by now; a zero time sends them all
func (m *Manager) flushNoteOffs(now time.Time) {
	m.offMu.Lock()
	var due []midi.Event
	kept := m.noteOffs[:0]
	for _, e := range m.noteOffs {
		if now.IsZero() || !e.Due.After(now) {
			due = append(due, e)
		} else {
			kept = append(kept, e)
		}
	}
	m.noteOffs = kept
	m.offMu.Unlock()

	if len(due) == 0 {
		return
	}
	send := m.getSender(m.outPort)
	if send == nil {
		return
	}
	for _, e := range due {
		send(e.Message())
	}
}

// getSender returns a sender for the given port name, lazily opening it
func (m *Manager) getSender(portName string) func(gomidi.Message) error {
	if portName == "" {
		return nil
	}

	m.sendersMu.RLock()
	if sender, ok := m.senders[portName]; ok {
		m.sendersMu.RUnlock()
		return sender
	}
	m.sendersMu.RUnlock()

	m.sendersMu.Lock()
	defer m.sendersMu.Unlock()

	// Double-check after acquiring write lock
	if sender, ok := m.senders[portName]; ok {
		return sender
	}

	out, err := gomidi.FindOutPort(portName)
	if err != nil {
		debug.Log("engine", "output port %q: %v", portName, err)
		m.senders[portName] = nil
		return nil
	}
	sender, err := gomidi.SendTo(out)
	if err != nil {
		debug.Log("engine", "open %q: %v", portName, err)
		m.senders[portName] = nil
		return nil
	}
	m.senders[portName] = sender
	return sender
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
