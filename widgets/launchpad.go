package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-seqomd/midi"
)

// RenderPad renders a single colored pad; unlit pads render as a dim outline
func RenderPad(color [3]uint8) string {
	if color == [3]uint8{} {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#303030")).Render("□")
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderPadRow renders a row of colored pads with spacing
func RenderPadRow(colors [][3]uint8) string {
	var out strings.Builder
	for i, c := range colors {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(c))
	}
	return out.String()
}

// Grid is the lit state of a 9x9 controller surface: rows 0-7 of the grid
// (row 0 at the bottom), row 8 the top buttons, col 8 the scene column
type Grid [9][9][3]uint8

// GridFromLEDs collects LED updates into a grid
func GridFromLEDs(leds []midi.LEDUpdate) Grid {
	var g Grid
	for _, l := range leds {
		if l.Row >= 0 && l.Row < 9 && l.Col >= 0 && l.Col < 9 {
			g[l.Row][l.Col] = l.Color
		}
	}
	return g
}

// RenderGrid renders the surface top row first, like the hardware
func RenderGrid(g Grid) string {
	lines := make([]string, 0, 9)
	for row := 8; row >= 0; row-- {
		cols := g[row][:8]
		if row < 8 {
			cols = g[row][:]
		}
		lines = append(lines, RenderPadRow(cols))
		if row == 8 {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
