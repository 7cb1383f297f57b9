package sequencer

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"slices"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Export resolution
const (
	TicksPerBeat  = 960
	ticksPerStep  = TicksPerBeat / StepsPerBeat
	offsetPerStep = 48 // micro-timing units in one step
)

// CCNumber returns the controller a track's CC lock is sent on (which is 1 or 2)
func CCNumber(track, which int) uint8 {
	return uint8(20 + track*2 + which - 1)
}

// ExportOptions controls ExportSMF
type ExportOptions struct {
	Loops int    // passes over the longest track, at least 1
	Seed  uint64 // for probability rolls
}

type timedMsg struct {
	tick  int
	order int // note-offs sort before note-ons at the same tick
	msg   gomidi.Message
}

// ExportSMF renders the active pattern of every track into a format 1 MIDI
// file: a tempo track plus one track per non-empty voice. Conditions,
// probability, ratchets, offsets, gate, CC locks and the transpose lane are
// applied; steps play in order without jumps.
func ExportSMF(s *Session, w io.Writer, opts ExportOptions) error {
	loops := max(opts.Loops, 1)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed+1))

	longest := 0
	for _, t := range s.Tracks {
		if t.ActivePattern().HasData() {
			longest = max(longest, int(math.Ceil(float64(t.Length*ticksPerStep)/t.Speed())))
		}
	}
	if longest == 0 {
		return fmt.Errorf("export: no steps to render")
	}
	end := longest * loops

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerBeat)

	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(float64(s.BPM)))
	track0.Close(uint32(end))
	if err := sm.Add(track0); err != nil {
		return fmt.Errorf("export: tempo track: %w", err)
	}

	for i, t := range s.Tracks {
		if t.Muted || !t.ActivePattern().HasData() {
			continue
		}
		msgs := renderTrack(s, i, end, rng)
		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(fmt.Sprintf("Track %d", i+1)))
		last := 0
		for _, m := range msgs {
			track.Add(uint32(m.tick-last), m.msg)
			last = m.tick
		}
		track.Close(uint32(max(end-last, 0)))
		if err := sm.Add(track); err != nil {
			return fmt.Errorf("export: track %d: %w", i+1, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// ExportSMFFile writes ExportSMF output to path
func ExportSMFFile(s *Session, path string, opts ExportOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := ExportSMF(s, f, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// renderTrack lays a track's steps out in absolute ticks up to end
func renderTrack(s *Session, idx, end int, rng Roller) []timedMsg {
	t := s.Tracks[idx]
	pat := t.ActivePattern()
	ch := uint8(t.Channel)
	stepTicks := float64(ticksPerStep) / t.Speed()

	var msgs []timedMsg
	for k := 0; ; k++ {
		start := int(float64(k) * stepTicks)
		if start >= end {
			break
		}
		loop := k / t.Length
		st := &pat.Steps[k%t.Length]

		if SparkPasses(st.ParamSpark, loop) {
			if v, ok := st.CC1.Unpack(); ok {
				msgs = append(msgs, timedMsg{start, 1, gomidi.ControlChange(ch, CCNumber(idx, 1), uint8(v))})
			}
			if v, ok := st.CC2.Unpack(); ok {
				msgs = append(msgs, timedMsg{start, 1, gomidi.ControlChange(ch, CCNumber(idx, 2), uint8(v))})
			}
		}
		if !ShouldTrigger(st, loop, rng) {
			continue
		}

		transpose := 0
		if s.ChordFollow[idx] {
			transpose = s.Transpose.TransposeAt(start / TicksPerBeat)
		}
		on := start + int(float64(st.Offset)*stepTicks/offsetPerStep)
		span := stepTicks * float64(max(st.Length, 1))
		gate := float64(t.StepGate(st)) / 100

		hits := func(vel int) []int { return []int{vel} }
		if SparkPasses(st.CompSpark, loop) {
			hits = func(vel int) []int { return Hits(st, vel) }
		}
		for n, note := range st.Notes {
			key := uint8(min(max(note+transpose, 0), 127))
			vels := hits(st.VelocityAt(n))
			hitTicks := span / float64(len(vels))
			for h, vel := range vels {
				hitOn := max(on+int(float64(h)*hitTicks), 0)
				if hitOn >= end {
					continue
				}
				hitOff := hitOn + max(int(hitTicks*gate), 1)
				msgs = append(msgs,
					timedMsg{hitOn, 2, gomidi.NoteOn(ch, key, uint8(vel))},
					timedMsg{min(hitOff, end), 0, gomidi.NoteOff(ch, key)},
				)
			}
		}
	}

	slices.SortStableFunc(msgs, func(a, b timedMsg) int {
		if a.tick != b.tick {
			return a.tick - b.tick
		}
		return a.order - b.order
	})
	return msgs
}
