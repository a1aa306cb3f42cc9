package measure

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"captionkit/caption"
)

func TestFontMeasure(t *testing.T) {
	m := NewFont()
	defer m.Close()
	style := caption.DefaultStyle(caption.Frame{Width: 1280, Height: 720})

	short, h1, err := m.Measure("hi", style)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	long, h2, err := m.Measure("hello there", style)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if short <= 0 || long <= short {
		t.Errorf("Expected wider text to measure wider, got %v and %v", short, long)
	}
	if h1 != h2 || h1 < float64(style.FontSize) {
		t.Errorf("Expected one line height of at least the font size, got %v and %v", h1, h2)
	}

	space, _, err := m.Measure(" ", style)
	if err != nil || space <= 0 {
		t.Errorf("Expected a positive space width, got %v (%v)", space, err)
	}
}

func TestFontScalesWithSize(t *testing.T) {
	m := NewFont()
	defer m.Close()
	small := caption.Style{Font: "Go", FontSize: 20}
	big := caption.Style{Font: "Go", FontSize: 40}

	ws, _, _ := m.Measure("caption", small)
	wb, _, _ := m.Measure("caption", big)
	if wb <= ws {
		t.Errorf("Expected larger font to measure wider, got %v vs %v", ws, wb)
	}
}

func TestFontErrors(t *testing.T) {
	m := NewFont()
	defer m.Close()

	if _, _, err := m.Measure("x", caption.Style{Font: "Go", FontSize: 0}); err == nil {
		t.Error("Expected error for zero font size")
	}
	missing := filepath.Join(t.TempDir(), "missing.ttf")
	if _, _, err := m.Measure("x", caption.Style{Font: missing, FontSize: 12}); err == nil {
		t.Error("Expected error for missing font file")
	}
	for _, text := range []string{"\U0001F600", "\u5b57\u5e55"} {
		_, _, err := m.Measure(text, caption.Style{Font: "Go", FontSize: 12})
		if !errors.Is(err, caption.ErrMissingGlyph) {
			t.Errorf("Expected ErrMissingGlyph for %q, got %v", text, err)
		}
	}
}

func TestFontConcurrent(t *testing.T) {
	m := NewFont()
	defer m.Close()
	style := caption.Style{Font: "Go Bold", FontSize: 30}
	want, _, err := m.Measure("concurrent", style)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := m.Measure("concurrent", style)
			if err != nil || got != want {
				t.Errorf("Expected %v, got %v (%v)", want, got, err)
			}
		}()
	}
	wg.Wait()
}

func TestResolveFallbackIsMeasuredFace(t *testing.T) {
	m := NewFont()
	defer m.Close()
	m.Dir = t.TempDir()

	res, err := m.Resolve("Helvetica")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Path != filepath.Join(m.Dir, "goregular.ttf") {
		t.Errorf("Expected the embedded Go Regular file, got %s", res.Path)
	}
	if res.Family != "Go" || res.Face != "Regular" {
		t.Errorf("Expected Go Regular, got %q %q", res.Family, res.Face)
	}
	bits, err := os.ReadFile(res.Path)
	if err != nil || !bytes.Equal(bits, goregular.TTF) {
		t.Fatalf("Expected %s to hold Go Regular (%v)", res.Path, err)
	}

	// Drawing from the written file measures the same as the name.
	style := caption.Style{Font: "Helvetica", FontSize: 40}
	want, _, _ := m.Measure("measured", style)
	style.Font = res.Path
	got, _, err := m.Measure("measured", style)
	if err != nil || got != want {
		t.Errorf("Expected %v from the resolved file, got %v (%v)", want, got, err)
	}

	again, err := m.Resolve("go regular")
	if err != nil || again.Path != res.Path {
		t.Errorf("Expected the same file on a second Resolve, got %+v (%v)", again, err)
	}
}

func TestResolveBuiltinAndFile(t *testing.T) {
	m := NewFont()
	defer m.Close()
	m.Dir = t.TempDir()

	res, err := m.Resolve("Go Bold")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Base(res.Path) != "gobold.ttf" || res.Face != "Bold" {
		t.Errorf("Expected gobold.ttf in Bold, got %+v", res)
	}

	path := filepath.Join(t.TempDir(), "Custom.ttf")
	if err := os.WriteFile(path, gobold.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	res, err = m.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Path != path || res.Family != "Go" {
		t.Errorf("Expected the font file itself, got %+v", res)
	}
}
