package sequencer

import (
	"fmt"
	"math/bits"
)

// NoteNames are pitch class names
var NoteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ScaleTemplate is a named set of intervals from the root
type ScaleTemplate struct {
	Name      string
	Intervals []int
}

// ScaleTemplates in preference order: simpler scales win ties
var ScaleTemplates = []ScaleTemplate{
	{"Minor Penta", []int{0, 3, 5, 7, 10}},
	{"Major Penta", []int{0, 2, 4, 7, 9}},
	{"Blues", []int{0, 3, 5, 6, 7, 10}},
	{"Whole Tone", []int{0, 2, 4, 6, 8, 10}},
	{"Major", []int{0, 2, 4, 5, 7, 9, 11}},
	{"Natural Minor", []int{0, 2, 3, 5, 7, 8, 10}},
	{"Dorian", []int{0, 2, 3, 5, 7, 9, 10}},
	{"Mixolydian", []int{0, 2, 4, 5, 7, 9, 10}},
	{"Phrygian", []int{0, 1, 3, 5, 7, 8, 10}},
	{"Lydian", []int{0, 2, 4, 6, 7, 9, 11}},
	{"Locrian", []int{0, 1, 3, 5, 6, 8, 10}},
	{"Harmonic Minor", []int{0, 2, 3, 5, 7, 8, 11}},
	{"Melodic Minor", []int{0, 2, 3, 5, 7, 9, 11}},
	{"Diminished HW", []int{0, 1, 3, 4, 6, 7, 9, 10}},
	{"Diminished WH", []int{0, 2, 3, 5, 6, 8, 9, 11}},
}

// PitchSet is a set of pitch classes, bit n for pitch class n
type PitchSet uint16

// PitchSetOf builds a set from MIDI notes or pitch classes
func PitchSetOf(notes ...int) PitchSet {
	var ps PitchSet
	for _, n := range notes {
		ps = ps.Add(n)
	}
	return ps
}

func (ps PitchSet) Add(note int) PitchSet {
	return ps | 1<<pitchClass(note)
}

func (ps PitchSet) Has(note int) bool {
	return ps&(1<<pitchClass(note)) != 0
}

func (ps PitchSet) Len() int {
	return bits.OnesCount16(uint16(ps))
}

func (ps PitchSet) Classes() []int {
	var out []int
	for pc := range 12 {
		if ps.Has(pc) {
			out = append(out, pc)
		}
	}
	return out
}

func pitchClass(note int) int {
	return ((note % 12) + 12) % 12
}

// Scale is a detected root and template
type Scale struct {
	Root     int
	Template int // index into ScaleTemplates
	Notes    PitchSet
}

// Name returns e.g. "C Major Penta"
func (s Scale) Name() string {
	return NoteNames[s.Root] + " " + ScaleTemplates[s.Template].Name
}

// IsRoot reports whether a note is the scale root
func (s Scale) IsRoot(note int) bool {
	return pitchClass(note) == s.Root
}

// InScale reports whether a note belongs to the scale
func (s Scale) InScale(note int) bool {
	return s.Notes.Has(note)
}

func transposeTemplate(t ScaleTemplate, root int) PitchSet {
	var ps PitchSet
	for _, iv := range t.Intervals {
		ps = ps.Add(iv + root)
	}
	return ps
}

// CollectPitchClasses gathers pitch classes from every pattern of the
// tracks marked in chordFollow
func CollectPitchClasses(tracks *Tracks, chordFollow []bool) PitchSet {
	var ps PitchSet
	for i, t := range tracks {
		if t == nil || i >= len(chordFollow) || !chordFollow[i] {
			continue
		}
		for p := range t.Patterns {
			for s := range t.Patterns[p].Steps {
				for _, n := range t.Patterns[p].Steps[s].Notes {
					ps = ps.Add(n)
				}
			}
		}
	}
	return ps
}

// DetectScale picks the best fitting root and template. The score is the
// share of pitch classes inside the scale plus a small bonus for smaller
// scales; the first candidate wins ties, roots ascending and templates in
// preference order. An empty set detects nothing.
func DetectScale(ps PitchSet) (Scale, bool) {
	if ps.Len() == 0 {
		return Scale{}, false
	}

	best := -1.0
	var result Scale
	for root := range 12 {
		for i, t := range ScaleTemplates {
			notes := transposeTemplate(t, root)
			fit := float64((ps & notes).Len()) / float64(ps.Len())
			score := fit + 0.1/float64(len(t.Intervals))
			if score > best {
				best = score
				result = Scale{Root: root, Template: i, Notes: notes}
			}
		}
	}
	return result, true
}

// NoteName returns e.g. "C4" for MIDI note 60, "---" for 0 or below
func NoteName(note int) string {
	if note <= 0 {
		return "---"
	}
	return fmt.Sprintf("%s%d", NoteNames[note%12], note/12-1)
}
