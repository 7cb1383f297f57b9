package sequencer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go-seqomd/debug"
)

var (
	ErrNoSet      = errors.New("set not found")
	ErrInvalidSet = errors.New("invalid set index")
)

// Document is everything stored for one set
type Document struct {
	Tracks      *Tracks
	BPM         int
	Transpose   *TransposeSequence
	ChordFollow [NumTracks]bool
	MasterReset int
}

// NewDocument returns an empty set
func NewDocument() *Document {
	return &Document{
		Tracks:      NewTracks(),
		BPM:         DefaultBPM,
		Transpose:   NewTransposeSequence(),
		ChordFollow: DefaultChordFollow(),
	}
}

// DefaultChordFollow marks the upper four tracks of each bank of eight
func DefaultChordFollow() [NumTracks]bool {
	var cf [NumTracks]bool
	for i := range cf {
		cf[i] = i%8 >= 4
	}
	return cf
}

// HasContent reports whether any step holds notes or CC locks
func (d *Document) HasContent() bool {
	return d != nil && d.Tracks != nil && d.Tracks.HasContent()
}

// MarshalJSON writes the sparse document form
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"tracks":            EncodeTracks(d.Tracks),
		"bpm":               d.BPM,
		"transposeSequence": encodeTranspose(d.Transpose),
		"chordFollow":       d.ChordFollow[:],
		"masterReset":       d.MasterReset,
	})
}

func encodeTranspose(ts *TransposeSequence) []any {
	if ts == nil {
		return []any{}
	}
	out := make([]any, ts.Len())
	for i := range out {
		s := ts.Step(i)
		if s == nil {
			continue
		}
		out[i] = map[string]any{
			"transpose": s.Transpose,
			"duration":  s.Duration,
			"jump":      s.Jump,
			"condition": s.Condition,
		}
	}
	return out
}

// DecodeDocument reads a set in any stored layout: a bare legacy tracks
// list, or an object with tracks and set-level fields. Only malformed JSON
// is an error; everything else falls back to defaults.
func DecodeDocument(raw []byte) (*Document, error) {
	doc := NewDocument()
	if len(raw) == 0 {
		return doc, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode set: %w", err)
	}

	switch shapeOf(v) {
	case shapeDense:
		doc.Tracks = DecodeTracksValue(v)
	case shapeSparse:
		m := v.(map[string]any)
		if tracks, ok := m["tracks"]; ok {
			doc.Tracks = DecodeTracksValue(tracks)
		} else if isIndexKeyed(m) {
			doc.Tracks = DecodeTracksValue(m)
		}
		f := fields(m)
		if bpm := f.intOr(0, "bpm"); bpm > 0 {
			doc.BPM = clamp(bpm, MinBPM, MaxBPM)
		}
		doc.Transpose = decodeTranspose(m["transposeSequence"])
		doc.ChordFollow = decodeChordFollow(m["chordFollow"])
		doc.MasterReset = max(f.intOr(0, "masterReset"), 0)
	}
	return doc, nil
}

func isIndexKeyed(m map[string]any) bool {
	for k := range m {
		if _, err := strconv.Atoi(k); err == nil {
			return true
		}
	}
	return false
}

// decodeTranspose fills missing jump and condition fields with defaults and
// keeps empty slots in place
func decodeTranspose(v any) *TransposeSequence {
	ts := NewTransposeSequence()
	list, _ := v.([]any)
	for i, e := range list {
		if i >= MaxTransposeSteps {
			break
		}
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		f := fields(m)
		ts.Set(i, f.intOr(0, "transpose"), Some(f.intOr(DefaultDuration, "duration")))
		ts.SetJump(i, f.intOr(NoJump, "jump"))
		ts.SetCondition(i, f.intOr(0, "condition"))
	}
	ts.Compact()
	return ts
}

// decodeChordFollow expands eight-track sets by repeating the first bank
func decodeChordFollow(v any) [NumTracks]bool {
	list, _ := v.([]any)
	if len(list) < 8 {
		return DefaultChordFollow()
	}
	flags := make([]bool, 0, NumTracks)
	for _, e := range list {
		b, _ := e.(bool)
		flags = append(flags, b)
	}
	for len(flags) < NumTracks {
		flags = append(flags, flags[len(flags)-8])
	}
	var cf [NumTracks]bool
	copy(cf[:], flags)
	return cf
}

// SetStore keeps one JSON file per set under Dir
type SetStore struct {
	Dir string
}

// NewSetStore returns a store rooted at dir
func NewSetStore(dir string) *SetStore {
	return &SetStore{Dir: dir}
}

func checkSet(idx int) error {
	if idx < 0 || idx >= NumSets {
		return fmt.Errorf("%w: %d", ErrInvalidSet, idx)
	}
	return nil
}

// Path returns the file holding a set
func (st *SetStore) Path(idx int) string {
	return filepath.Join(st.Dir, strconv.Itoa(idx)+".json")
}

// Exists reports whether a set has a file
func (st *SetStore) Exists(idx int) bool {
	if checkSet(idx) != nil {
		return false
	}
	info, err := os.Stat(st.Path(idx))
	return err == nil && !info.IsDir()
}

// List returns the indices of sets stored on disk, ascending
func (st *SetStore) List() []int {
	var out []int
	for i := range NumSets {
		if st.Exists(i) {
			out = append(out, i)
		}
	}
	return out
}

// Load reads a set. A set without a file returns ErrNoSet.
func (st *SetStore) Load(idx int) (*Document, error) {
	if err := checkSet(idx); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(st.Path(idx))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("set %d: %w", idx, ErrNoSet)
		}
		return nil, fmt.Errorf("set %d: %w", idx, err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("set %d: %w", idx, err)
	}
	return doc, nil
}

// Save writes a set through a temporary file so a failed write never
// replaces the previous one
func (st *SetStore) Save(idx int, doc *Document) error {
	if err := checkSet(idx); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("set %d: %w", idx, err)
	}
	return st.writeAtomic(st.Path(idx), data)
}

func (st *SetStore) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(st.Dir, 0755); err != nil {
		return fmt.Errorf("sets dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	debug.Log("persist", "wrote %s (%d bytes)", path, len(data))
	return nil
}

// Delete removes a set's file. Deleting a missing set is not an error.
func (st *SetStore) Delete(idx int) error {
	if err := checkSet(idx); err != nil {
		return err
	}
	if err := os.Remove(st.Path(idx)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("set %d: %w", idx, err)
	}
	return nil
}

// HasContent reports whether a set is stored, or failing that whether the
// in-memory copy holds notes or CC locks
func (st *SetStore) HasContent(idx int, mem *Document) bool {
	return st.Exists(idx) || mem.HasContent()
}

// MigrateLegacy splits a single-file array of sets into one file per set
// and renames the old file to .backup. It does nothing when the legacy file
// is missing or sets are already stored individually. Returns the number of
// sets written.
func (st *SetStore) MigrateLegacy(legacyPath string) (int, error) {
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("legacy sets: %w", err)
	}
	if len(st.List()) > 0 {
		debug.Log("persist", "legacy migration skipped, %s already has sets", st.Dir)
		return 0, nil
	}

	var sets []json.RawMessage
	if err := json.Unmarshal(data, &sets); err != nil {
		return 0, fmt.Errorf("legacy sets: %w", err)
	}

	migrated := 0
	for i, raw := range sets {
		if i >= NumSets {
			break
		}
		doc, err := DecodeDocument(raw)
		if err != nil {
			debug.Log("persist", "legacy set %d unreadable: %v", i, err)
			continue
		}
		if !doc.HasContent() {
			continue
		}
		if err := st.Save(i, doc); err != nil {
			return migrated, err
		}
		migrated++
	}

	if err := os.Rename(legacyPath, legacyPath+".backup"); err != nil {
		return migrated, fmt.Errorf("legacy sets: %w", err)
	}
	debug.Log("persist", "migrated %d legacy sets", migrated)
	return migrated, nil
}
