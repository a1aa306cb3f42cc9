package caption

// LineGap is the vertical space in pixels between wrapped lines.
const LineGap = 10

// A Measurer reports the rendered size of text in a style. Implementations
// must be safe for concurrent use if sentences are laid out in parallel.
type Measurer interface {
	Measure(text string, style Style) (width, height float64, err error)
}

// MeasureFunc adapts a function to the Measurer interface.
type MeasureFunc func(text string, style Style) (float64, float64, error)

func (f MeasureFunc) Measure(text string, style Style) (float64, float64, error) {
	return f(text, style)
}

// Layout wraps the sentence's words into lines no wider than the frame's
// MaxLineWidth and returns the fragments to draw along with one box per
// word, both in input order.
//
// Fragments come in two passes. The first holds, for every word, the word
// in the base color followed by its trailing space, both visible for the
// whole sentence. The second holds one highlight per word, visible only
// while that word is spoken. A word wider than a whole line is placed on
// its own line and allowed to overflow.
func Layout(s Sentence, frame Frame, style Style, m Measurer) ([]Fragment, []Box, error) {
	if len(s.Words) == 0 {
		return []Fragment{}, []Box{}, ErrEmptyInput
	}

	spaceWidth, _, err := m.Measure(" ", style)
	if err != nil {
		return nil, nil, &MeasurementError{Text: " ", Err: err}
	}

	maxLineWidth := frame.MaxLineWidth()
	fullDuration := s.Duration()

	boxes := make([]Box, 0, len(s.Words))
	fragments := make([]Fragment, 0, 3*len(s.Words))

	var x, y, lineWidth, prevHeight float64
	for _, w := range s.Words {
		width, height, err := m.Measure(w.Text, style)
		if err != nil {
			return nil, nil, &MeasurementError{Text: w.Text, Err: err}
		}

		if lineWidth > 0 && lineWidth+width+spaceWidth > maxLineWidth {
			x = 0
			y += prevHeight + LineGap
			lineWidth = 0
		}

		boxes = append(boxes, Box{
			X:        x,
			Y:        y,
			Width:    width,
			Height:   height,
			Text:     w.Text,
			Start:    w.Start,
			End:      w.End,
			Duration: w.Duration(),
		})
		fragments = append(fragments,
			Fragment{
				Kind:        BaseFragment,
				Text:        w.Text,
				X:           x,
				Y:           y,
				Start:       s.Start,
				Duration:    fullDuration,
				Color:       style.Color,
				StrokeColor: style.StrokeColor,
				StrokeWidth: style.StrokeWidth,
			},
			Fragment{
				Kind:     SpaceFragment,
				Text:     " ",
				X:        x + width,
				Y:        y,
				Start:    s.Start,
				Duration: fullDuration,
				Color:    style.Color,
			},
		)

		x += width + spaceWidth
		lineWidth += width + spaceWidth
		prevHeight = height
	}

	for _, b := range boxes {
		fragments = append(fragments, Fragment{
			Kind:        HighlightFragment,
			Text:        b.Text,
			X:           b.X,
			Y:           b.Y,
			Start:       b.Start,
			Duration:    b.Duration,
			Color:       style.HighlightColor,
			StrokeColor: style.StrokeColor,
			StrokeWidth: style.StrokeWidth,
		})
	}

	return fragments, boxes, nil
}
