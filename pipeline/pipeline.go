// Package pipeline connects a video, a transcript and a renderer through
// the caption layout engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"captionkit/caption"
)

// A VideoSource supplies the video being captioned.
type VideoSource interface {
	Path() string
	Frame(ctx context.Context) (caption.Frame, error)
}

// A TranscriptSource supplies word-timed sentences.
type TranscriptSource interface {
	Sentences(ctx context.Context) ([]caption.Sentence, error)
}

// A Renderer produces the captioned output.
type Renderer interface {
	Render(ctx context.Context, job Job) error
}

// Job is everything a renderer needs.
type Job struct {
	Video    string // input video path
	Audio    string // optional replacement audio track
	Frame    caption.Frame
	Style    caption.Style
	Captions []caption.Caption
	Output   string
}

// Config wires one captioning run.
type Config struct {
	Video      VideoSource
	Transcript TranscriptSource
	Renderer   Renderer
	Measurer   caption.Measurer

	// Style is used as given except that a zero FontSize is derived from
	// the frame height.
	Style  caption.Style
	Audio  string
	Output string

	// Workers bounds parallel layout; values below 1 mean one.
	Workers int
	Log     *log.Logger
}

// Run lays out every sentence and hands the result to the renderer.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Video == nil || cfg.Transcript == nil || cfg.Renderer == nil || cfg.Measurer == nil {
		return errors.New("pipeline: video, transcript, renderer and measurer are required")
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	frame, err := cfg.Video.Frame(ctx)
	if err != nil {
		return fmt.Errorf("reading frame size of %s: %w", cfg.Video.Path(), err)
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("invalid frame size %v for %s", frame, cfg.Video.Path())
	}
	logger.Printf("Frame size %v", frame)

	sentences, err := cfg.Transcript.Sentences(ctx)
	if err != nil {
		return fmt.Errorf("loading transcript: %w", err)
	}
	logger.Printf("Loaded %d sentences", len(sentences))

	style := cfg.Style
	if style.FontSize == 0 {
		style.FontSize = caption.FontSizeFor(frame)
	}

	captions, err := Layout(ctx, sentences, frame, style, cfg.Measurer, cfg.Workers, logger)
	if err != nil {
		return err
	}

	return cfg.Renderer.Render(ctx, Job{
		Video:    cfg.Video.Path(),
		Audio:    cfg.Audio,
		Frame:    frame,
		Style:    style,
		Captions: captions,
		Output:   cfg.Output,
	})
}

// Layout builds a caption per sentence, in sentence order, using up to
// workers goroutines. Sentences without words, or with characters the font
// cannot draw, are logged and left out. Any other measurement error stops
// the run.
func Layout(ctx context.Context, sentences []caption.Sentence, frame caption.Frame, style caption.Style, m caption.Measurer, workers int, logger *log.Logger) ([]caption.Caption, error) {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	built := make([]caption.Caption, len(sentences))
	skip := make([]bool, len(sentences))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range sentences {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := caption.Build(s, frame, style, m)
			switch {
			case errors.Is(err, caption.ErrEmptyInput):
				logger.Printf("Skipping empty cue %d at %.3fs", i+1, s.Start)
				skip[i] = true
				return nil
			case errors.Is(err, caption.ErrMissingGlyph):
				logger.Printf("Skipping cue %d at %.3fs: %v", i+1, s.Start, err)
				skip[i] = true
				return nil
			case err != nil:
				return fmt.Errorf("cue %d at %.3fs: %w", i+1, s.Start, err)
			}
			built[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	captions := make([]caption.Caption, 0, len(built))
	for i, c := range built {
		if !skip[i] {
			captions = append(captions, c)
		}
	}
	return captions, nil
}
