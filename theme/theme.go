package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

// Symbols are the glyphs of the step grid and transpose lane
type Symbols struct {
	StepEmpty    rune // · no notes
	StepActive   rune // ● has notes
	StepSounding rune // ◆ notes held at the playhead
	StepPlayhead rune // ▶ current position
	StepBeyond   rune // - past track length

	SlotEmpty  rune // □ empty transpose slot
	SlotFilled rune // ■ transpose entry
	SlotActive rune // ▣ entry under the transpose playhead
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepSounding: '◆',
			StepPlayhead: '▶',
			StepBeyond:   '-',

			SlotEmpty:  '□',
			SlotFilled: '■',
			SlotActive: '▣',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleFG      = 0.5
	RoleAccent  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Header styles titles and the status line
func (t *Theme) Header() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent()).Bold(true)
}

// Dim styles secondary text
func (t *Theme) Dim() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Muted())
}

// Body styles plain detail text
func (t *Theme) Body() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.FG())
}

// Playing styles steps whose notes are sounding
func (t *Theme) Playing() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Active())
}

// Alert styles errors and muted tracks
func (t *Theme) Alert() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning()).Bold(true)
}

// Highlight styles the element under the playhead
func (t *Theme) Highlight() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success()).Bold(true)
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// RGB returns raw RGB for any normalized value (for LEDs)
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
