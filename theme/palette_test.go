package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	data := "GIMP Palette\nName: Test\nColumns: 2\n# comment\n0 0 0\tblack\n255 255 255\twhite\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadGPL(path)
	if err != nil {
		t.Fatalf("LoadGPL() error = %v", err)
	}
	if p.Name != "Test" || len(p.Colors) != 2 {
		t.Fatalf("palette = %q with %d colors", p.Name, len(p.Colors))
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 255, 255}) {
		t.Errorf("Lookup(2) = %v", got)
	}
}

func TestLoadGPLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGPL(path); err == nil {
		t.Error("LoadGPL() of a palette without colors should fail")
	}
}

func TestLoadDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "plasma" {
		t.Errorf("Load(\"\") = %q, want the built-in palette", p.Name)
	}
	if got := p.Index(-1); got != p.Colors[0] {
		t.Errorf("Index(-1) = %v", got)
	}
}

func TestParseGPLRange(t *testing.T) {
	_, err := ParseGPL(strings.NewReader("GIMP Palette\n0 0 0\n300 0 0 too bright\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("ParseGPL() error = %v, want a line 3 range error", err)
	}
}

func TestLookupSingleColor(t *testing.T) {
	p := &Palette{Colors: []RGB{{1, 2, 3}}}
	if got := p.Lookup(0.5); got != (RGB{1, 2, 3}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
}
