package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"captionkit/caption"
	"captionkit/subtitle"
)

// Sentences is an in-memory transcript.
type Sentences []caption.Sentence

func (s Sentences) Sentences(context.Context) ([]caption.Sentence, error) {
	return s, nil
}

// JSONTranscript reads the word-timed JSON form.
type JSONTranscript struct {
	Path string
}

func (t JSONTranscript) Sentences(context.Context) ([]caption.Sentence, error) {
	return subtitle.ReadJSON(t.Path)
}

// SubtitleTranscript reads an .srt or .vtt file and spreads each cue's
// time evenly over its words.
type SubtitleTranscript struct {
	Path string

	// Collapse drops scrolling repeats from auto-generated captions.
	Collapse bool

	// From and To, when To is non-zero, keep only cues inside the window
	// and rebase them so From becomes zero.
	From, To time.Duration

	// Warn receives blocks that failed to parse; nil ignores them.
	Warn func(error)
}

func (t SubtitleTranscript) Sentences(context.Context) ([]caption.Sentence, error) {
	cues, errs, err := subtitle.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}
	if t.Warn != nil {
		for _, e := range errs {
			t.Warn(e)
		}
	}
	if t.Collapse {
		cues = subtitle.Collapse(cues)
	}
	if t.To > 0 {
		cues = subtitle.Shift(subtitle.Trim(cues, t.From, t.To), -t.From)
	}
	return subtitle.ToSentences(cues), nil
}

// OpenTranscript picks a transcript source from the file extension.
func OpenTranscript(path string) (TranscriptSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONTranscript{Path: path}, nil
	case ".srt", ".vtt":
		return SubtitleTranscript{Path: path}, nil
	}
	return nil, fmt.Errorf("unsupported transcript %s (want .json, .srt or .vtt)", path)
}

// FixedFrame is a video source whose size is already known.
type FixedFrame struct {
	File string
	Size caption.Frame
}

func (f FixedFrame) Path() string { return f.File }

func (f FixedFrame) Frame(context.Context) (caption.Frame, error) { return f.Size, nil }
