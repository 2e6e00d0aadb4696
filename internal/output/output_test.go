package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Success("Wrote %s", "out.png")
	p.Warn("placeholder %q rendered empty", "label")
	p.KeyValue("Backend", "raster")

	want := "Wrote out.png\nWarning: placeholder \"label\" rendered empty\nBackend: raster\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Table([]string{"BACKEND", "FORMATS"}, [][]string{
		{"inkscape", "png, pdf"},
		{"raster", "png"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if strings.TrimRight(lines[0], " ") != "BACKEND   FORMATS" {
		t.Errorf("header = %q", lines[0])
	}
	if strings.TrimRight(lines[2], " ") != "raster    png" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("buffer is not a TTY")
	}
}
