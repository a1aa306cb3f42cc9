package browser

import (
	"os"
	"testing"
	"time"

	"captionkit/caption"
)

func TestCSSFont(t *testing.T) {
	tests := []struct {
		style caption.Style
		want  string
	}{
		{caption.Style{Font: "Helvetica", FontSize: 54}, `54px "Helvetica", sans-serif`},
		{caption.Style{FontSize: 20}, `20px "sans-serif", sans-serif`},
		{caption.Style{Font: `Odd"Name`, FontSize: 10}, `10px "Odd\"Name", sans-serif`},
	}
	for _, tt := range tests {
		if got := cssFont(tt.style); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

func TestMeasureRejectsBadSize(t *testing.T) {
	m := &CanvasMeasurer{}
	if _, _, err := m.Measure("hi", caption.Style{Font: "Helvetica"}); err == nil {
		t.Error("Expected error for zero font size")
	}
	if _, _, err := m.Measure("hi", caption.Style{FontSize: 12}); err == nil {
		t.Error("Expected error from closed measurer")
	}
}

// Launching Chrome is slow and needs a browser binary.
func TestCanvasMeasurer(t *testing.T) {
	if os.Getenv("CAPTIONKIT_BROWSER_TEST") == "" {
		t.Skip("set CAPTIONKIT_BROWSER_TEST=1 to run")
	}
	m, err := NewCanvasMeasurer()
	if err != nil {
		t.Fatalf("NewCanvasMeasurer: %v", err)
	}
	defer m.Close()

	style := caption.Style{Font: "sans-serif", FontSize: 40}
	short, h, err := m.Measure("hi", style)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	long, _, err := m.Measure("hello there", style)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if short <= 0 || h <= 0 || long <= short {
		t.Errorf("Unexpected sizes: short %v, long %v, height %v", short, long, h)
	}
}

// A long run must keep measuring well past one call's deadline.
func TestCanvasMeasurerOutlivesTimeout(t *testing.T) {
	if os.Getenv("CAPTIONKIT_BROWSER_TEST") == "" {
		t.Skip("set CAPTIONKIT_BROWSER_TEST=1 to run")
	}
	m, err := NewCanvasMeasurer()
	if err != nil {
		t.Fatalf("NewCanvasMeasurer: %v", err)
	}
	defer m.Close()
	m.timeout = 2 * time.Second

	style := caption.Style{Font: "sans-serif", FontSize: 40}
	if _, _, err := m.Measure("before", style); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	time.Sleep(3 * time.Second)
	for i := 0; i < 3; i++ {
		if _, _, err := m.Measure("after", style); err != nil {
			t.Fatalf("Measure %d after the timeout elapsed: %v", i, err)
		}
	}
}

func TestNewSessionPageHasNoDeadline(t *testing.T) {
	if os.Getenv("CAPTIONKIT_BROWSER_TEST") == "" {
		t.Skip("set CAPTIONKIT_BROWSER_TEST=1 to run")
	}
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()
	if _, ok := s.Page.GetContext().Deadline(); ok {
		t.Error("Expected the session page to carry no deadline")
	}
}
