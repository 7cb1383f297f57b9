package sequencer

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDocumentRoundTrip(t *testing.T) {
	store := NewSetStore(t.TempDir())
	doc := NewDocument()
	doc.BPM = 97
	doc.MasterReset = 32
	doc.ChordFollow[0] = true
	doc.Tracks[1].Patterns[0].Steps[0].SetNotes([]int{40}, []int{20})
	doc.Transpose.Set(2, -5, Some(12))
	doc.Transpose.SetJump(2, 0)

	if err := store.Save(4, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(4)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BPM != 97 || got.MasterReset != 32 || got.ChordFollow != doc.ChordFollow {
		t.Errorf("set fields = %d %d %v", got.BPM, got.MasterReset, got.ChordFollow)
	}
	if got.Transpose.Len() != 3 || got.Transpose.Step(0) != nil {
		t.Errorf("transpose slots = %d, want 3 with leading gaps", got.Transpose.Len())
	}
	if st := got.Transpose.Step(2); st == nil || *st != (TransposeStep{Transpose: -5, Duration: 12, Jump: 0}) {
		t.Errorf("transpose step = %+v", st)
	}
	if v := got.Tracks[1].Patterns[0].Steps[0].Velocities; !slices.Equal(v, []int{20}) {
		t.Errorf("velocities = %v, want [20]", v)
	}
	if _, err := os.Stat(store.Path(4) + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("temporary file left behind")
	}
}

func TestLoadMissingSet(t *testing.T) {
	store := NewSetStore(t.TempDir())
	if _, err := store.Load(3); !errors.Is(err, ErrNoSet) {
		t.Errorf("Load() error = %v, want ErrNoSet", err)
	}
	if _, err := store.Load(-1); !errors.Is(err, ErrInvalidSet) {
		t.Errorf("Load(-1) error = %v, want ErrInvalidSet", err)
	}
}

func TestLoadCorruptSet(t *testing.T) {
	store := NewSetStore(t.TempDir())
	if err := os.WriteFile(store.Path(0), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(0); err == nil || errors.Is(err, ErrNoSet) {
		t.Errorf("Load() error = %v, want a decode error", err)
	}
}

func TestListAndDelete(t *testing.T) {
	store := NewSetStore(t.TempDir())
	for _, i := range []int{7, 2, 30} {
		if err := store.Save(i, NewDocument()); err != nil {
			t.Fatal(err)
		}
	}
	if got := store.List(); !slices.Equal(got, []int{2, 7, 30}) {
		t.Errorf("List() = %v, want [2 7 30]", got)
	}
	if err := store.Delete(7); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(7); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if got := store.List(); !slices.Equal(got, []int{2, 30}) {
		t.Errorf("List() = %v, want [2 30]", got)
	}
}

func TestHasContent(t *testing.T) {
	store := NewSetStore(t.TempDir())
	mem := NewDocument()
	if store.HasContent(0, mem) {
		t.Error("empty set reported content")
	}
	mem.Tracks[3].Patterns[9].Steps[1].SetCC(2, 10)
	if !store.HasContent(0, mem) {
		t.Error("a CC lock is content")
	}
	if err := store.Save(1, NewDocument()); err != nil {
		t.Fatal(err)
	}
	if !store.HasContent(1, NewDocument()) {
		t.Error("a stored set is content")
	}
}

func TestDecodeDocumentChordFollow(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want [NumTracks]bool
	}{
		{"missing", `{}`, DefaultChordFollow()},
		{"short list", `{"chordFollow": [true, true]}`, DefaultChordFollow()},
		{"eight", `{"chordFollow": [true, false, false, false, false, false, false, true]}`,
			[NumTracks]bool{0: true, 7: true, 8: true, 15: true}},
		{"sixteen", `{"chordFollow": [false, false, false, false, false, false, false, false,
			true, false, false, false, false, false, false, false]}`,
			[NumTracks]bool{8: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument([]byte(tt.raw))
			if err != nil {
				t.Fatal(err)
			}
			if doc.ChordFollow != tt.want {
				t.Errorf("ChordFollow = %v, want %v", doc.ChordFollow, tt.want)
			}
		})
	}
}

func TestDecodeDocumentShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare legacy list", `[{"patterns": [{"steps": [{"notes": [50]}]}]}]`},
		{"bare sparse tracks", `{"0": {"p": {"0": {"s": {"0": {"n": [50]}}}}}}`},
		{"document", `{"tracks": {"0": {"p": {"0": {"s": {"0": {"n": [50]}}}}}}, "bpm": 1000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument([]byte(tt.raw))
			if err != nil {
				t.Fatal(err)
			}
			if notes := doc.Tracks[0].Patterns[0].Steps[0].Notes; !slices.Equal(notes, []int{50}) {
				t.Errorf("notes = %v, want [50]", notes)
			}
			if doc.BPM != DefaultBPM && doc.BPM != MaxBPM {
				t.Errorf("BPM = %d", doc.BPM)
			}
		})
	}
}

func TestMigrateLegacy(t *testing.T) {
	dir := t.TempDir()
	store := NewSetStore(filepath.Join(dir, "sets"))
	legacy := filepath.Join(dir, "sets.json")
	data := `[
		{"tracks": [{"patterns": [{"steps": [{"notes": [60], "velocity": 80}]}]}], "bpm": 90},
		{"tracks": []},
		[{"patterns": [{"steps": [null, {"notes": [62]}]}]}]
	]`
	if err := os.WriteFile(legacy, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := store.MigrateLegacy(legacy)
	if err != nil {
		t.Fatalf("MigrateLegacy() error = %v", err)
	}
	if n != 2 {
		t.Errorf("migrated %d sets, want 2", n)
	}
	if got := store.List(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("List() = %v, want [0 2]", got)
	}
	doc, err := store.Load(0)
	if err != nil {
		t.Fatal(err)
	}
	if doc.BPM != 90 {
		t.Errorf("BPM = %d, want 90", doc.BPM)
	}
	if v := doc.Tracks[0].Patterns[0].Steps[0].Velocities; !slices.Equal(v, []int{80}) {
		t.Errorf("velocities = %v, want [80]", v)
	}
	if _, err := os.Stat(legacy + ".backup"); err != nil {
		t.Errorf("legacy file not backed up: %v", err)
	}

	n, err = store.MigrateLegacy(legacy)
	if n != 0 || err != nil {
		t.Errorf("second MigrateLegacy() = %d, %v, want a no-op", n, err)
	}
}
