// Package caption lays timed words out as wrapped caption lines over a
// video frame and produces the text fragments a renderer draws: the full
// sentence in the base color plus a highlight that follows each word.
package caption

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// A Word is one timed word of a transcript. Times are in seconds.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration reports End-Start, never negative.
func (w Word) Duration() float64 {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start
}

// A Sentence is one subtitle cue split into words. Start and End come from
// the cue and may differ slightly from the word timings.
type Sentence struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"textcontents"`
}

// Duration reports End-Start, never negative.
func (s Sentence) Duration() float64 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Text joins the words with single spaces.
func (s Sentence) Text() string {
	words := make([]string, len(s.Words))
	for i, w := range s.Words {
		words[i] = w.Text
	}
	return strings.Join(words, " ")
}

// Frame is the pixel size of the video the captions are drawn over.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Margin is the horizontal space kept free on each side of a line.
func (f Frame) Margin() float64 {
	return float64(f.Width) / 10
}

// MaxLineWidth is the widest a caption line may grow before wrapping.
func (f Frame) MaxLineWidth() float64 {
	return float64(f.Width) - 2*f.Margin()
}

// Style controls how words are drawn and measured.
type Style struct {
	Font           string  `yaml:"font" json:"font"`
	FontSize       int     `yaml:"font_size" json:"font_size"`
	Color          string  `yaml:"color" json:"color"`
	HighlightColor string  `yaml:"highlight_color" json:"highlight_color"`
	StrokeColor    string  `yaml:"stroke_color" json:"stroke_color"`
	StrokeWidth    float64 `yaml:"stroke_width" json:"stroke_width"`
}

// FontScale is the font size as a fraction of the frame height.
const FontScale = 0.075

// DefaultStyle returns white Helvetica with a yellow highlight and a thin
// black stroke, sized for the frame.
func DefaultStyle(frame Frame) Style {
	return Style{
		Font:           "Helvetica",
		FontSize:       FontSizeFor(frame),
		Color:          "white",
		HighlightColor: "yellow",
		StrokeColor:    "black",
		StrokeWidth:    1.5,
	}
}

// FontSizeFor returns the font size used for frame.
func FontSizeFor(frame Frame) int {
	return int(float64(frame.Height) * FontScale)
}

// A Box is where a single word landed.
type Box struct {
	X        float64 `json:"x_pos"`
	Y        float64 `json:"y_pos"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Text     string  `json:"word"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Right is the x coordinate of the box's right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom is the y coordinate of the box's bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// FragmentKind tells a renderer which pass produced a fragment.
type FragmentKind int

const (
	BaseFragment FragmentKind = iota
	SpaceFragment
	HighlightFragment
)

func (k FragmentKind) String() string {
	switch k {
	case BaseFragment:
		return "base"
	case SpaceFragment:
		return "space"
	case HighlightFragment:
		return "highlight"
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k FragmentKind) MarshalText() ([]byte, error) {
	if k < BaseFragment || k > HighlightFragment {
		return nil, fmt.Errorf("unknown fragment kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *FragmentKind) UnmarshalText(text []byte) error {
	for _, kind := range []FragmentKind{BaseFragment, SpaceFragment, HighlightFragment} {
		if string(text) == kind.String() {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown fragment kind %q", text)
}

// A Fragment is one piece of text to draw for a span of time. X and Y are
// relative to the caption's top-left corner.
type Fragment struct {
	Kind        FragmentKind `json:"kind"`
	Text        string       `json:"text"`
	X           float64      `json:"x_pos"`
	Y           float64      `json:"y_pos"`
	Start       float64      `json:"start"`
	Duration    float64      `json:"duration"`
	Color       string       `json:"color"`
	StrokeColor string       `json:"stroke_color,omitempty"`
	StrokeWidth float64      `json:"stroke_width,omitempty"`
}

// End is Start+Duration.
func (f Fragment) End() float64 { return f.Start + f.Duration }

// IsBlank reports whether the fragment draws nothing visible.
func (f Fragment) IsBlank() bool { return strings.TrimSpace(f.Text) == "" }

// ParseColor accepts an SVG color name ("white"), #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
