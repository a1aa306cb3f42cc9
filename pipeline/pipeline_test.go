package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"captionkit/caption"
)

var charMeasurer = caption.MeasureFunc(func(text string, style caption.Style) (float64, float64, error) {
	return float64(10 * len(text)), 20, nil
})

type recordingRenderer struct {
	jobs []Job
}

func (r *recordingRenderer) Render(_ context.Context, job Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

func words(start float64, texts ...string) caption.Sentence {
	s := caption.Sentence{Start: start, End: start + float64(len(texts))}
	for i, w := range texts {
		s.Words = append(s.Words, caption.Word{Text: w, Start: start + float64(i), End: start + float64(i+1)})
	}
	return s
}

func TestRun(t *testing.T) {
	r := &recordingRenderer{}
	cfg := Config{
		Video:      FixedFrame{File: "in.mp4", Size: caption.Frame{Width: 800, Height: 600}},
		Transcript: Sentences{words(0, "hello", "world"), {Start: 2, End: 3}, words(3, "again")},
		Renderer:   r,
		Measurer:   charMeasurer,
		Style:      caption.Style{Color: "white", HighlightColor: "yellow"},
		Audio:      "in.mp3",
		Output:     "out.mp4",
		Workers:    4,
	}

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(r.jobs) != 1 {
		t.Fatalf("Expected 1 render, got %d", len(r.jobs))
	}
	job := r.jobs[0]
	if job.Video != "in.mp4" || job.Audio != "in.mp3" || job.Output != "out.mp4" {
		t.Errorf("Unexpected job paths %+v", job)
	}
	if job.Style.FontSize != 45 {
		t.Errorf("Expected font size derived from frame (45), got %d", job.Style.FontSize)
	}
	if len(job.Captions) != 2 {
		t.Fatalf("Expected empty cue to be skipped, got %d captions", len(job.Captions))
	}
	if job.Captions[0].Sentence.Text() != "hello world" || job.Captions[1].Sentence.Text() != "again" {
		t.Errorf("Captions out of order: %q, %q", job.Captions[0].Sentence.Text(), job.Captions[1].Sentence.Text())
	}
	if len(job.Captions[0].Fragments) != 6 {
		t.Errorf("Expected 6 fragments, got %d", len(job.Captions[0].Fragments))
	}
}

func TestRunMeasurementError(t *testing.T) {
	boom := errors.New("no glyph")
	m := caption.MeasureFunc(func(text string, style caption.Style) (float64, float64, error) {
		if text == "☃" {
			return 0, 0, boom
		}
		return charMeasurer(text, style)
	})
	r := &recordingRenderer{}
	err := Run(context.Background(), Config{
		Video:      FixedFrame{Size: caption.Frame{Width: 800, Height: 600}},
		Transcript: Sentences{words(0, "fine"), words(1, "☃")},
		Renderer:   r,
		Measurer:   m,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected measurement error, got %v", err)
	}
	var merr *caption.MeasurementError
	if !errors.As(err, &merr) {
		t.Errorf("Expected MeasurementError in chain, got %T", err)
	}
	if len(r.jobs) != 0 {
		t.Errorf("Expected no render after failure")
	}
}

func TestRunSkipsCueWithMissingGlyph(t *testing.T) {
	m := caption.MeasureFunc(func(text string, style caption.Style) (float64, float64, error) {
		if text == "字幕" {
			return 0, 0, fmt.Errorf("%w %q", caption.ErrMissingGlyph, '字')
		}
		return charMeasurer(text, style)
	})
	r := &recordingRenderer{}
	err := Run(context.Background(), Config{
		Video:      FixedFrame{Size: caption.Frame{Width: 800, Height: 600}},
		Transcript: Sentences{words(0, "before"), words(1, "字幕"), words(2, "after")},
		Renderer:   r,
		Measurer:   m,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(r.jobs) != 1 || len(r.jobs[0].Captions) != 2 {
		t.Fatalf("Expected the undrawable cue to be skipped, got %+v", r.jobs)
	}
	if got := r.jobs[0].Captions[1].Sentence.Text(); got != "after" {
		t.Errorf("Expected %q after the skipped cue, got %q", "after", got)
	}
}

func TestRunRequiresCollaborators(t *testing.T) {
	if err := Run(context.Background(), Config{}); err == nil {
		t.Error("Expected error for missing collaborators")
	}
}

func TestRunInvalidFrame(t *testing.T) {
	err := Run(context.Background(), Config{
		Video:      FixedFrame{File: "x.mp4"},
		Transcript: Sentences{},
		Renderer:   &recordingRenderer{},
		Measurer:   charMeasurer,
	})
	if err == nil {
		t.Error("Expected error for zero frame")
	}
}

func TestLayoutOrderUnderConcurrency(t *testing.T) {
	var sentences []caption.Sentence
	for i := 0; i < 100; i++ {
		sentences = append(sentences, words(float64(i), fmt.Sprintf("w%d", i)))
	}
	frame := caption.Frame{Width: 640, Height: 480}
	captions, err := Layout(context.Background(), sentences, frame, caption.DefaultStyle(frame), charMeasurer, 8, nil)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	for i, c := range captions {
		if want := fmt.Sprintf("w%d", i); c.Boxes[0].Text != want {
			t.Fatalf("Caption %d holds %q, expected %q", i, c.Boxes[0].Text, want)
		}
	}
}

func TestSubtitleTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.srt")
	srt := "1\n00:00:10,000 --> 00:00:12,000\nbefore the cut\n\n" +
		"2\n00:00:12,000 --> 00:00:14,000\ninside the window\n\n" +
		"3\nbroken\n"
	if err := os.WriteFile(path, []byte(srt), 0644); err != nil {
		t.Fatal(err)
	}

	var warnings []error
	src := SubtitleTranscript{Path: path, From: 12 * time.Second, To: 24 * time.Second, Warn: func(err error) { warnings = append(warnings, err) }}
	sentences, err := src.Sentences(context.Background())
	if err != nil {
		t.Fatalf("Sentences failed: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", warnings)
	}
	if len(sentences) != 1 {
		t.Fatalf("Expected 1 sentence in window, got %d", len(sentences))
	}
	if sentences[0].Start != 0 || sentences[0].End != 2 {
		t.Errorf("Expected sentence rebased to 0-2s, got %v-%v", sentences[0].Start, sentences[0].End)
	}
}

func TestOpenTranscript(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "t.json")
	os.WriteFile(jsonPath, []byte(`[{"start":0,"end":1,"textcontents":[{"word":"hi","start":0,"end":1}]}]`), 0644)

	src, err := OpenTranscript(jsonPath)
	if err != nil {
		t.Fatalf("OpenTranscript failed: %v", err)
	}
	sentences, err := src.Sentences(context.Background())
	if err != nil || len(sentences) != 1 || sentences[0].Words[0].Text != "hi" {
		t.Errorf("Unexpected sentences %+v (%v)", sentences, err)
	}

	txt := filepath.Join(dir, "t.txt")
	os.WriteFile(txt, nil, 0644)
	if _, err := OpenTranscript(txt); err == nil {
		t.Error("Expected error for .txt transcript")
	}
}
