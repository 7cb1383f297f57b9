package engine

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-seqomd/debug"
)

// Simulator capacities
const (
	MaxTracks           = 16
	MaxSteps            = 64
	MaxTransposeEntries = 16
	StepsPerBeat        = 4
)

// Note is a note the simulator decided to play
type Note struct {
	Track    int
	Channel  int
	Note     int
	Velocity int
	Steps    int // length in engine steps
}

type simStep struct {
	notes []int
	vels  []int

	probability int
	length      int
	jump        int

	condN, condM int
	condNot      bool
	compN, compM int
	compNot      bool
}

func newSimStep() simStep {
	return simStep{probability: 100, length: 1, jump: -1}
}

type simTrack struct {
	steps [MaxSteps]simStep

	channel     int
	muted       bool
	speed       float64
	length      int
	reset       int
	chordFollow bool

	current    int
	loops      int
	sinceReset int
	phase      float64
	realigned  bool
}

func (t *simTrack) init(idx int) {
	for i := range t.steps {
		t.steps[i] = newSimStep()
	}
	t.channel = idx
	t.speed = 1
	t.length = 16
	t.rewind()
}

func (t *simTrack) rewind() {
	t.current = 0
	t.loops = 0
	t.sinceReset = 0
	t.phase = 0
	t.realigned = false
}

// realign makes step 0 the next step the track plays. The loop count is kept.
func (t *simTrack) realign() {
	t.current = 0
	t.sinceReset = 0
	t.realigned = true
}

// next moves to the following step, taking the current step's jump when
// its composite condition passes
func (t *simTrack) next() {
	if t.realigned {
		t.realigned = false
		return
	}
	st := &t.steps[t.current]
	n := t.current + 1
	if st.jump >= 0 && st.jump < t.length && ConditionPasses(st.compN, st.compM, st.compNot, t.loops) {
		n = st.jump
	}
	if n >= t.length {
		n = 0
		t.loops++
	}
	t.sinceReset++
	if t.reset > 0 && t.sinceReset >= t.reset {
		n = 0
		t.sinceReset = 0
	}
	t.current = n
}

// Sim is an in-process engine. It consumes the same parameter stream as
// the hardware engine, advances every track and the transpose lane at the
// synced tempo and answers position reads. Ratchets, arpeggios and swing
// are not rendered.
type Sim struct {
	mu sync.Mutex

	params map[string]string
	tracks [MaxTracks]simTrack

	staged      []TransposeEntry
	playhead    Playhead
	bpm         int
	masterReset int

	playing bool
	step    int
	acc     float64
	pending []Note

	rng *rand.Rand

	// OnNote receives triggered notes outside the simulator lock
	OnNote func(Note)
}

// NewSim returns a stopped simulator at 120 BPM
func NewSim(seed uint64) *Sim {
	s := &Sim{
		params: make(map[string]string),
		bpm:    120,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i := range s.tracks {
		s.tracks[i].init(i)
	}
	s.clearTranspose()
	return s
}

// SetParam applies a write, expanding bulk payloads
func (s *Sim) SetParam(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == BulkKey {
		for _, kv := range SplitBulk(value) {
			s.apply(kv[0], kv[1])
		}
		return
	}
	s.apply(key, value)
}

// GetParam answers position reads and echoes other written values
func (s *Sim) GetParam(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case KeyCurrentTransposeStep:
		return strconv.Itoa(s.playhead.Index()), true
	case KeyCurrentTranspose:
		return strconv.Itoa(s.playhead.Transpose()), true
	case KeyPlaying:
		return Bool(s.playing), true
	case "transpose_step_count":
		return strconv.Itoa(s.playhead.Len()), true
	case "transpose_total_steps":
		return strconv.Itoa(s.playhead.TotalSteps()), true
	}
	if rest, ok := strings.CutPrefix(key, "track_"); ok {
		idx, field, _ := strings.Cut(rest, "_")
		t, err := strconv.Atoi(idx)
		if err == nil && t >= 0 && t < MaxTracks && field == "current_step" {
			return strconv.Itoa(s.tracks[t].current), true
		}
	}
	v, ok := s.params[key]
	return v, ok
}

// Playing reports whether the transport runs
func (s *Sim) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Step returns the global engine step
func (s *Sim) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Advance moves the transport by n engine steps regardless of tempo
func (s *Sim) Advance(n int) {
	s.mu.Lock()
	notes := s.takePending()
	if s.playing {
		for range n {
			notes = append(notes, s.advance()...)
		}
	}
	s.mu.Unlock()
	s.emit(notes)
}

// Elapse moves the transport by wall-clock time at the current tempo
func (s *Sim) Elapse(dt time.Duration) {
	s.mu.Lock()
	notes := s.takePending()
	if s.playing {
		s.acc += dt.Seconds() * float64(s.bpm) * StepsPerBeat / 60
		for s.acc >= 1 {
			s.acc--
			notes = append(notes, s.advance()...)
		}
	}
	s.mu.Unlock()
	s.emit(notes)
}

// Run drives Elapse from a ticker until ctx is done
func (s *Sim) Run(ctx context.Context, resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Elapse(now.Sub(last))
			last = now
		}
	}
}

func (s *Sim) emit(notes []Note) {
	if s.OnNote == nil {
		return
	}
	for _, n := range notes {
		s.OnNote(n)
	}
}

func (s *Sim) takePending() []Note {
	p := s.pending
	s.pending = nil
	return p
}

func (s *Sim) start() {
	s.playing = true
	s.step = 0
	s.acc = 0
	for i := range s.tracks {
		s.tracks[i].rewind()
	}
	s.playhead.Reset()
	s.playhead.Update(0)
	for i := range s.tracks {
		s.pending = append(s.pending, s.trigger(i)...)
	}
	debug.Log("engine", "sim: start at %d bpm", s.bpm)
}

func (s *Sim) advance() []Note {
	s.step++
	s.playhead.Update(s.step)
	if s.masterReset > 0 && s.step%s.masterReset == 0 {
		for i := range s.tracks {
			s.tracks[i].realign()
		}
	}

	var notes []Note
	for i := range s.tracks {
		t := &s.tracks[i]
		t.phase += t.speed
		for t.phase >= 1 {
			t.phase--
			t.next()
			notes = append(notes, s.trigger(i)...)
		}
	}
	return notes
}

func (s *Sim) trigger(idx int) []Note {
	t := &s.tracks[idx]
	st := &t.steps[t.current]
	if t.muted || len(st.notes) == 0 {
		return nil
	}
	if !ConditionPasses(st.condN, st.condM, st.condNot, t.loops) {
		return nil
	}
	if st.probability < 100 && s.rng.IntN(100) >= st.probability {
		return nil
	}

	transpose := 0
	if t.chordFollow {
		transpose = s.playhead.Transpose()
	}
	notes := make([]Note, 0, len(st.notes))
	for i, n := range st.notes {
		notes = append(notes, Note{
			Track:    idx,
			Channel:  t.channel,
			Note:     min(max(n+transpose, 0), 127),
			Velocity: st.vels[i],
			Steps:    st.length,
		})
	}
	return notes
}

// apply interprets one logical write; caller holds mu
func (s *Sim) apply(key, value string) {
	s.params[key] = value
	n, _ := strconv.Atoi(value)

	switch key {
	case "bpm":
		s.bpm = min(max(n, 20), 300)
		return
	case KeyPlaying:
		if value == "1" && !s.playing {
			s.start()
		} else if value == "0" {
			s.playing = false
		}
		return
	case "master_reset":
		s.masterReset = max(n, 0)
		return
	case "transpose_clear":
		s.clearTranspose()
		return
	case "transpose_step_count":
		n = min(max(n, 0), MaxTransposeEntries)
		s.playhead.Load(s.staged[:n])
		return
	}

	if rest, ok := strings.CutPrefix(key, "transpose_step_"); ok {
		s.applyTranspose(rest, n, value)
		return
	}
	if rest, ok := strings.CutPrefix(key, "track_"); ok {
		idx, field, _ := strings.Cut(rest, "_")
		t, err := strconv.Atoi(idx)
		if err != nil || t < 0 || t >= MaxTracks {
			return
		}
		s.applyTrack(&s.tracks[t], field, n, value)
	}
}

func (s *Sim) clearTranspose() {
	s.staged = make([]TransposeEntry, MaxTransposeEntries)
	for i := range s.staged {
		s.staged[i].Jump = -1
	}
	s.playhead.Load(nil)
}

func (s *Sim) applyTranspose(rest string, n int, value string) {
	idx, field, _ := strings.Cut(rest, "_")
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= MaxTransposeEntries {
		return
	}
	e := &s.staged[i]
	switch field {
	case "transpose":
		e.Transpose = n
	case "duration":
		e.Duration = max(n, 1)
	case "jump":
		e.Jump = n
	case "condition_n":
		e.CondN = n
	case "condition_m":
		e.CondM = n
	case "condition_not":
		e.CondNot = value == "1"
	}
}

func (s *Sim) applyTrack(t *simTrack, field string, n int, value string) {
	if rest, ok := strings.CutPrefix(field, "step_"); ok {
		idx, sf, _ := strings.Cut(rest, "_")
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= MaxSteps {
			return
		}
		applyStep(&t.steps[i], sf, n, value)
		return
	}

	switch field {
	case "channel":
		t.channel = min(max(n, 0), 15)
	case "mute":
		t.muted = value == "1"
	case "speed":
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			t.speed = f
		}
	case "length":
		t.length = min(max(n, 1), MaxSteps)
		if t.current >= t.length {
			t.current = 0
		}
	case "reset":
		t.reset = max(n, 0)
	case "chord_follow":
		t.chordFollow = value == "1"
	case "pattern":
		// the engine holds only the active pattern; a new one arrives as step writes
	}
}

func applyStep(st *simStep, field string, n int, value string) {
	switch field {
	case "clear":
		*st = newSimStep()
	case "add_note":
		note, vel := n, 100
		if a, b, ok := strings.Cut(value, ","); ok {
			note, _ = strconv.Atoi(a)
			vel, _ = strconv.Atoi(b)
		}
		if note < 1 || note > 127 {
			return
		}
		vel = min(max(vel, 1), 127)
		for i, existing := range st.notes {
			if existing == note {
				st.vels[i] = vel
				return
			}
		}
		if len(st.notes) < 8 {
			st.notes = append(st.notes, note)
			st.vels = append(st.vels, vel)
		}
	case "probability":
		st.probability = min(max(n, 1), 100)
	case "length":
		st.length = max(n, 1)
	case "jump":
		st.jump = n
	case "condition_n":
		st.condN = n
	case "condition_m":
		st.condM = n
	case "condition_not":
		st.condNot = value == "1"
	case "comp_spark_n":
		st.compN = n
	case "comp_spark_m":
		st.compM = n
	case "comp_spark_not":
		st.compNot = value == "1"
	}
}
