package browser

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"captionkit/caption"
)

const measureJS = `(text, font) => {
	const ctx = (window.__captionCanvas ||= document.createElement("canvas")).getContext("2d");
	ctx.font = font;
	const m = ctx.measureText(text);
	return {
		width: m.width,
		height: m.fontBoundingBoxAscent + m.fontBoundingBoxDescent,
		missing: !document.fonts.check(font, text),
	};
}`

// EvalTimeout bounds a single measurement.
const EvalTimeout = 30 * time.Second

// CanvasMeasurer measures text with CanvasRenderingContext2D.measureText.
// It implements caption.Measurer and is safe for concurrent use.
type CanvasMeasurer struct {
	mu      sync.Mutex
	session *Session
	timeout time.Duration
}

// NewCanvasMeasurer launches a browser for measuring.
func NewCanvasMeasurer() (*CanvasMeasurer, error) {
	s, err := NewSession()
	if err != nil {
		return nil, err
	}
	return &CanvasMeasurer{session: s, timeout: EvalTimeout}, nil
}

// Measure returns the rounded-up advance width and line height of text.
func (m *CanvasMeasurer) Measure(text string, style caption.Style) (float64, float64, error) {
	if style.FontSize <= 0 {
		return 0, 0, fmt.Errorf("invalid font size %d", style.FontSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0, 0, errors.New("measurer is closed")
	}

	page := m.session.Page.Timeout(m.timeout)
	defer page.CancelTimeout()
	res, err := page.Eval(measureJS, text, cssFont(style))
	if err != nil {
		return 0, 0, fmt.Errorf("measuring %q: %w", text, err)
	}
	if res.Value.Get("missing").Bool() {
		return 0, 0, fmt.Errorf("font %q is not available", style.Font)
	}
	w := res.Value.Get("width").Num()
	h := res.Value.Get("height").Num()
	return math.Ceil(w), math.Ceil(h), nil
}

// Close shuts the browser down. Later calls to Measure fail.
func (m *CanvasMeasurer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}

// cssFont builds a CSS font shorthand for style.
func cssFont(style caption.Style) string {
	family := style.Font
	if family == "" {
		family = "sans-serif"
	}
	family = `"` + strings.ReplaceAll(family, `"`, `\"`) + `", sans-serif`
	return fmt.Sprintf("%dpx %s", style.FontSize, family)
}
