package widgets

import (
	"strings"
	"testing"

	"go-seqomd/midi"
)

func TestGridFromLEDs(t *testing.T) {
	red := [3]uint8{255, 0, 0}
	g := GridFromLEDs([]midi.LEDUpdate{
		{Row: 0, Col: 0, Color: red},
		{Row: 8, Col: 7, Color: red},
		{Row: 9, Col: 0, Color: red},
		{Row: 0, Col: -1, Color: red},
	})
	if g[0][0] != red || g[8][7] != red {
		t.Error("in-range LEDs not placed")
	}
	lit := 0
	for _, row := range g {
		for _, c := range row {
			if c != ([3]uint8{}) {
				lit++
			}
		}
	}
	if lit != 2 {
		t.Errorf("lit pads = %d, want 2", lit)
	}
}

func TestRenderGrid(t *testing.T) {
	lines := strings.Split(RenderGrid(Grid{}), "\n")
	// top row, a spacer, then eight grid rows
	if len(lines) != 10 {
		t.Errorf("RenderGrid() has %d lines, want 10", len(lines))
	}
	if lines[1] != "" {
		t.Errorf("spacer line = %q", lines[1])
	}
}
