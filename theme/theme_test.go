package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStyleRoles(t *testing.T) {
	th := New(&Palette{Colors: []RGB{{0, 0, 0}, {255, 255, 255}}})

	tests := []struct {
		name  string
		style lipgloss.Style
		want  lipgloss.Color
	}{
		{"Header", th.Header(), th.Accent()},
		{"Dim", th.Dim(), th.Muted()},
		{"Body", th.Body(), th.FG()},
		{"Playing", th.Playing(), th.Active()},
		{"Alert", th.Alert(), th.Warning()},
		{"Highlight", th.Highlight(), th.Success()},
	}
	for _, tt := range tests {
		if got := tt.style.GetForeground(); got != tt.want {
			t.Errorf("%s() foreground = %v, want %v", tt.name, got, tt.want)
		}
	}

	if th.Warning() == th.FG() {
		t.Errorf("Warning() = FG() = %v, want distinct roles", th.FG())
	}
}

func TestNewDefaultsPalette(t *testing.T) {
	th := New(nil)
	if th.Palette == nil || len(th.Palette.Colors) == 0 {
		t.Fatal("New(nil) has no palette")
	}
	if got, want := th.Color(0), rgbToLipgloss(th.Palette.Colors[0]); got != want {
		t.Errorf("Color(0) = %v, want %v", got, want)
	}
}
