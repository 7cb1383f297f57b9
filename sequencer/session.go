package sequencer

import (
	"errors"
	"time"

	"go-seqomd/debug"
	"go-seqomd/engine"
)

// DefaultDebounce is the idle time before a dirty set is written
const DefaultDebounce = 500 * time.Millisecond

// Session is the editing context: the loaded set, the cursor and the
// collaborators that persist it and mirror it into the engine. Edits go
// through its methods so that saving and syncing follow every change.
type Session struct {
	Tracks      *Tracks
	Transpose   *TransposeSequence
	BPM         int
	ChordFollow [NumTracks]bool
	MasterReset int

	SelectedTrack int
	CurrentSet    int // -1 until a set is loaded
	Playing       bool
	NewSetBPM     int // tempo for sets never saved, 0 for DefaultBPM

	Scale   Scale
	ScaleOK bool

	store    *SetStore
	sync     *Syncer
	debounce time.Duration
	dirty    bool
	dirtyAt  time.Time
	now      func() time.Time
}

// NewSession returns an empty session. store may be nil for a session that
// is never written to disk.
func NewSession(store *SetStore) *Session {
	s := &Session{
		CurrentSet: -1,
		store:      store,
		debounce:   DefaultDebounce,
		now:        time.Now,
	}
	s.apply(NewDocument())
	return s
}

// SetDebounce changes the idle time before a dirty set is written
func (s *Session) SetDebounce(d time.Duration) {
	if d > 0 {
		s.debounce = d
	}
}

// Store returns the set store, or nil
func (s *Session) Store() *SetStore {
	return s.store
}

// AttachEngine mirrors the session into the engine from now on, starting
// with a full sync
func (s *Session) AttachEngine(sy *Syncer) {
	s.sync = sy
	if sy != nil {
		sy.SyncAll(s)
	}
}

// Engine returns the attached syncer, or nil
func (s *Session) Engine() *Syncer {
	return s.sync
}

// Document returns the session's set data. It shares state with the session.
func (s *Session) Document() *Document {
	return &Document{
		Tracks:      s.Tracks,
		BPM:         s.BPM,
		Transpose:   s.Transpose,
		ChordFollow: s.ChordFollow,
		MasterReset: s.MasterReset,
	}
}

func (s *Session) apply(doc *Document) {
	s.Tracks = doc.Tracks
	s.BPM = clamp(doc.BPM, MinBPM, MaxBPM)
	s.Transpose = doc.Transpose
	s.ChordFollow = doc.ChordFollow
	s.MasterReset = doc.MasterReset
	s.DetectScale()
}

// LoadSet replaces the session with a stored set, writing pending changes
// of the current set first. A set that was never saved loads empty.
func (s *Session) LoadSet(idx int) error {
	if err := checkSet(idx); err != nil {
		return err
	}
	if err := s.FlushDirty(); err != nil {
		return err
	}

	doc := NewDocument()
	if s.store == nil {
		s.startNew(doc)
	} else {
		loaded, err := s.store.Load(idx)
		switch {
		case err == nil:
			doc = loaded
		case errors.Is(err, ErrNoSet):
			s.startNew(doc)
		default:
			return err
		}
	}

	s.apply(doc)
	s.CurrentSet = idx
	s.dirty = false
	debug.Log("persist", "loaded set %d (bpm %d)", idx, s.BPM)
	if s.sync != nil {
		s.sync.SyncAll(s)
	}
	return nil
}

func (s *Session) startNew(doc *Document) {
	if s.NewSetBPM > 0 {
		doc.BPM = s.NewSetBPM
	}
}

// canSave reports whether there is a set on disk to write to
func (s *Session) canSave() bool {
	return s.store != nil && s.CurrentSet >= 0
}

// SaveSet writes the current set now. Without a store or a loaded set it
// does nothing.
func (s *Session) SaveSet() error {
	if !s.canSave() {
		return nil
	}
	return s.store.Save(s.CurrentSet, s.Document())
}

// MarkDirty schedules a save once edits pause
func (s *Session) MarkDirty() {
	s.dirty = true
	s.dirtyAt = s.now()
}

// Dirty reports whether there are unsaved changes
func (s *Session) Dirty() bool {
	return s.dirty
}

// TickDirty saves when changes are pending, the debounce time has passed
// and the transport is stopped. Reports whether it wrote.
func (s *Session) TickDirty() (bool, error) {
	if !s.dirty || s.Playing || !s.canSave() {
		return false, nil
	}
	if s.now().Sub(s.dirtyAt) < s.debounce {
		return false, nil
	}
	return true, s.FlushDirty()
}

// FlushDirty saves pending changes immediately. Changes stay pending when
// there is nowhere to write them.
func (s *Session) FlushDirty() error {
	if !s.dirty || !s.canSave() {
		return nil
	}
	if err := s.SaveSet(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Play starts the transport
func (s *Session) Play() {
	if s.Playing {
		return
	}
	s.Playing = true
	if s.sync != nil {
		s.sync.SetPlaying(true)
	}
}

// Stop halts the transport and saves changes made while playing
func (s *Session) Stop() error {
	if !s.Playing {
		return nil
	}
	s.Playing = false
	if s.sync != nil {
		s.sync.SetPlaying(false)
	}
	return s.FlushDirty()
}

// SetBPM clamps and applies the tempo
func (s *Session) SetBPM(bpm int) {
	s.BPM = clamp(bpm, MinBPM, MaxBPM)
	s.MarkDirty()
	if s.sync != nil {
		s.sync.setInt("bpm", s.BPM)
	}
}

// SetMasterReset sets the global realignment length in steps, 0 for never
func (s *Session) SetMasterReset(steps int) {
	s.MasterReset = max(steps, 0)
	s.MarkDirty()
	if s.sync != nil {
		s.sync.setInt("master_reset", s.MasterReset)
	}
}

// SelectTrack moves the cursor
func (s *Session) SelectTrack(t int) {
	if t >= 0 && t < NumTracks {
		s.SelectedTrack = t
	}
}

// ActiveTrack returns the selected track
func (s *Session) ActiveTrack() *Track {
	return s.Tracks[s.SelectedTrack]
}

// Track returns a track, or nil for an invalid index
func (s *Session) Track(t int) *Track {
	if t < 0 || t >= NumTracks {
		return nil
	}
	return s.Tracks[t]
}

// EditTrack applies fn to a track, then saves and syncs it
func (s *Session) EditTrack(t int, fn func(*Track)) {
	track := s.Track(t)
	if track == nil {
		return
	}
	fn(track)
	s.MarkDirty()
	if s.ChordFollow[t] {
		s.DetectScale()
	}
	if s.sync != nil {
		s.sync.SyncTrack(s, t)
	}
}

// EditStep applies fn to a step of a track's active pattern, then saves
// and syncs that step
func (s *Session) EditStep(t, step int, fn func(*Step)) {
	track := s.Track(t)
	if track == nil || step < 0 || step >= NumSteps {
		return
	}
	fn(&track.ActivePattern().Steps[step])
	s.MarkDirty()
	if s.ChordFollow[t] {
		s.DetectScale()
	}
	if s.sync != nil {
		s.sync.SyncStep(s, t, step)
	}
}

// ToggleMute flips a track's mute
func (s *Session) ToggleMute(t int) {
	track := s.Track(t)
	if track == nil {
		return
	}
	track.Muted = !track.Muted
	s.MarkDirty()
	if s.sync != nil {
		s.sync.set(engine.TrackKey(t, "mute"), engine.Bool(track.Muted))
	}
}

// SetChordFollow marks whether a track follows transpose and feeds scale detection
func (s *Session) SetChordFollow(t int, on bool) {
	if t < 0 || t >= NumTracks {
		return
	}
	s.ChordFollow[t] = on
	s.MarkDirty()
	s.DetectScale()
	if s.sync != nil {
		s.sync.set(engine.TrackKey(t, "chord_follow"), engine.Bool(on))
	}
}

// EditTranspose applies fn to the transpose lane, then saves and resyncs it
func (s *Session) EditTranspose(fn func(*TransposeSequence)) {
	fn(s.Transpose)
	s.MarkDirty()
	if s.sync != nil {
		s.sync.SyncTranspose(s.Transpose)
	}
}

// DetectScale recomputes the scale from the chord-follow tracks
func (s *Session) DetectScale() (Scale, bool) {
	s.Scale, s.ScaleOK = DetectScale(CollectPitchClasses(s.Tracks, s.ChordFollow[:]))
	return s.Scale, s.ScaleOK
}
