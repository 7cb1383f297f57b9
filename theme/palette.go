package theme

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type RGB [3]uint8

// Palette is an ordered color ramp, usually read from a GIMP .gpl file
type Palette struct {
	Name   string
	Colors []RGB
}

// Default is the built-in palette, a plasma-like ramp from deep purple to yellow
func Default() *Palette {
	return &Palette{
		Name: "plasma",
		Colors: []RGB{
			{13, 8, 135},
			{75, 3, 161},
			{125, 3, 168},
			{168, 34, 150},
			{203, 70, 121},
			{229, 107, 93},
			{248, 148, 65},
			{253, 195, 40},
			{240, 249, 33},
		},
	}
}

// Load reads a GPL palette, or returns Default for an empty path
func Load(path string) (*Palette, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadGPL(path)
}

// LoadGPL reads a palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads the GIMP palette format: a "GIMP Palette" header, optional
// Name and Columns lines, # comments, then one "R G B [label]" per line.
// Lines that are not colors are skipped; channels above 255 are an error.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "", text[0] == '#', strings.HasPrefix(text, "GIMP"), strings.HasPrefix(text, "Columns:"):
			continue
		case strings.HasPrefix(text, "Name:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(text, "Name:"))
			continue
		}

		c, ok, err := parseColor(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			p.Colors = append(p.Colors, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found")
	}
	return p, nil
}

func parseColor(fields []string) (RGB, bool, error) {
	if len(fields) < 3 {
		return RGB{}, false, nil
	}
	var c RGB
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return RGB{}, false, nil
		}
		if v < 0 || v > 255 {
			return RGB{}, false, fmt.Errorf("channel value %d out of range", v)
		}
		c[i] = uint8(v)
	}
	return c, true, nil
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	switch {
	case norm <= 0 || last == 0:
		return p.Colors[0]
	case norm >= 1:
		return p.Colors[last]
	}

	pos := norm * float64(last)
	i := int(pos)
	frac := pos - float64(i)
	c0, c1 := p.Colors[i], p.Colors[i+1]
	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Index returns the color at i, clamped to the palette
func (p *Palette) Index(i int) RGB {
	return p.Colors[min(max(i, 0), len(p.Colors)-1)]
}
