package caption

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// Background panel drawn behind every caption.
var (
	BackgroundColor   = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	BackgroundOpacity = 0.6
)

// backgroundPadding grows the panel past the text extent.
const backgroundPadding = 1.1

// An Overlay is the translucent panel a caption sits on, in frame
// coordinates.
type Overlay struct {
	X        int        `json:"x_pos"`
	Y        int        `json:"y_pos"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Start    float64    `json:"start"`
	Duration float64    `json:"duration"`
	Color    color.RGBA `json:"color"`
	Opacity  float64    `json:"opacity"`
}

type overlayJSON Overlay

// MarshalJSON writes Color as #rrggbb.
func (o Overlay) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		overlayJSON
		Color string `json:"color"`
	}{overlayJSON(o), fmt.Sprintf("#%02x%02x%02x", o.Color.R, o.Color.G, o.Color.B)})
}

func (o *Overlay) UnmarshalJSON(data []byte) error {
	var v struct {
		*overlayJSON
		Color string `json:"color"`
	}
	v.overlayJSON = (*overlayJSON)(o)
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Color == "" {
		return nil
	}
	c, err := ParseColor(v.Color)
	if err != nil {
		return err
	}
	o.Color = c
	return nil
}

// A Caption is one laid-out sentence ready for a renderer. Fragment and box
// coordinates are relative to Overlay.X, Overlay.Y.
type Caption struct {
	Sentence  Sentence   `json:"sentence"`
	Overlay   Overlay    `json:"overlay"`
	Boxes     []Box      `json:"boxes"`
	Fragments []Fragment `json:"fragments"`
}

// Bounds returns the extent of the boxes measured from the origin.
func Bounds(boxes []Box) (width, height float64) {
	for _, b := range boxes {
		if r := b.Right(); r > width {
			width = r
		}
		if h := b.Bottom(); h > height {
			height = h
		}
	}
	return width, height
}

// Place sizes the background panel around the boxes and anchors it
// horizontally centered at the bottom of the frame.
func Place(s Sentence, boxes []Box, frame Frame) Overlay {
	w, h := Bounds(boxes)
	o := Overlay{
		Width:    int(w * backgroundPadding),
		Height:   int(h * backgroundPadding),
		Start:    s.Start,
		Duration: s.Duration(),
		Color:    BackgroundColor,
		Opacity:  BackgroundOpacity,
	}
	o.X = (frame.Width - o.Width) / 2
	o.Y = frame.Height - o.Height
	return o
}

// Build lays out s and places it on the frame.
func Build(s Sentence, frame Frame, style Style, m Measurer) (Caption, error) {
	fragments, boxes, err := Layout(s, frame, style, m)
	if err != nil {
		return Caption{Sentence: s}, err
	}
	return Caption{
		Sentence:  s,
		Overlay:   Place(s, boxes, frame),
		Boxes:     boxes,
		Fragments: fragments,
	}, nil
}
