package midi

import "testing"

func TestNoteLayoutRoundTrip(t *testing.T) {
	for row := range 8 {
		for col := range 9 {
			r, c := noteToRowCol(rowColToNote(row, col))
			if r != row || c != col {
				t.Errorf("noteToRowCol(rowColToNote(%d, %d)) = %d, %d", row, col, r, c)
			}
		}
	}
	if r, c := noteToRowCol(rowColToNote(8, 3)); r != 8 || c != 3 {
		t.Errorf("top row round trip = %d, %d, want 8, 3", r, c)
	}
	if r, _ := noteToRowCol(5); r != -1 {
		t.Errorf("noteToRowCol(5) row = %d, want -1", r)
	}
}

func TestModelFromName(t *testing.T) {
	tests := []struct {
		name string
		want LaunchpadModel
	}{
		{"Launchpad X LPX MIDI", LaunchpadX},
		{"Launchpad Mini MK3 LPMiniMK3 MIDI", LaunchpadMini},
		{"Launchpad Pro MK3 LPProMK3 MIDI", LaunchpadPro},
		{"something else", LaunchpadX},
	}
	for _, tt := range tests {
		if got := ModelFromName(tt.name); got != tt.want {
			t.Errorf("ModelFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPaletteIndex(t *testing.T) {
	tests := []struct {
		rgb  [3]uint8
		want uint8
	}{
		{[3]uint8{0, 0, 0}, 0},
		{[3]uint8{255, 255, 255}, 119},
		{[3]uint8{0, 250, 5}, 21},
		{[3]uint8{250, 0, 0}, 5},
	}
	for _, tt := range tests {
		if got := PaletteIndex(tt.rgb); got != tt.want {
			t.Errorf("PaletteIndex(%v) = %d, want %d", tt.rgb, got, tt.want)
		}
	}
}
