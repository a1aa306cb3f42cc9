package caption

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned for a sentence without words. Callers skip the
// cue rather than failing the job.
var ErrEmptyInput = errors.New("caption: sentence has no words")

// ErrMissingGlyph is wrapped by measurers when the font cannot draw a
// character of the text. Callers may skip the cue instead of failing.
var ErrMissingGlyph = errors.New("caption: font has no glyph")

// A MeasurementError reports a word the measurer could not size. It is
// fatal for the sentence being laid out.
type MeasurementError struct {
	Text string
	Err  error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("caption: measuring %q: %v", e.Text, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }
