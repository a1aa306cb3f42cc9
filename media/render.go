package media

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"captionkit/caption"
	"captionkit/pipeline"
)

// Renderer burns captions into the video with drawbox and drawtext
// filters. It implements pipeline.Renderer.
type Renderer struct {
	// Preset is the libx264 preset; empty uses "medium".
	Preset string

	// FontFile, when set, replaces the style's font so drawtext loads the
	// face the captions were measured with.
	FontFile string
}

// Render writes job.Output. When job.Audio is set it replaces the video's
// own audio track.
func (r Renderer) Render(ctx context.Context, job pipeline.Job) error {
	if job.Output == "" {
		return fmt.Errorf("no output path")
	}
	info, err := Probe(ctx, job.Video)
	if err != nil {
		return err
	}
	stream := r.build(job, info.HasAudio)

	fmt.Printf("Rendering %d captions into %s...\n", len(job.Captions), job.Output)
	if err := run(ctx, stream); err != nil {
		return fmt.Errorf("rendering %s: %w", job.Output, err)
	}
	fmt.Printf("Saved %s\n", job.Output)
	return nil
}

func (r Renderer) build(job pipeline.Job, videoHasAudio bool) *ffmpeg.Stream {
	style := job.Style
	if r.FontFile != "" {
		style.Font = r.FontFile
	}
	in := ffmpeg.Input(job.Video)
	video := DrawCaptions(in.Video(), job.Captions, style)

	streams := []*ffmpeg.Stream{video}
	switch {
	case job.Audio != "":
		streams = append(streams, ffmpeg.Input(job.Audio).Audio())
	case videoHasAudio:
		streams = append(streams, in.Audio())
	}

	preset := r.Preset
	if preset == "" {
		preset = "medium"
	}
	kw := ffmpeg.KwArgs{"c:v": "libx264", "preset": preset, "pix_fmt": "yuv420p"}
	if len(streams) > 1 {
		kw["c:a"] = "aac"
	}
	return ffmpeg.Output(streams, job.Output, kw).OverWriteOutput()
}

// DrawCaptions chains one drawbox per caption background and one drawtext
// per visible fragment, in fragment order so highlights land on top.
// Whitespace fragments draw nothing and are skipped.
func DrawCaptions(video *ffmpeg.Stream, captions []caption.Caption, style caption.Style) *ffmpeg.Stream {
	for _, c := range captions {
		o := c.Overlay
		video = video.Filter("drawbox", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x":      o.X,
			"y":      o.Y,
			"w":      o.Width,
			"h":      o.Height,
			"color":  fmt.Sprintf("0x%02x%02x%02x@%.2f", o.Color.R, o.Color.G, o.Color.B, o.Opacity),
			"t":      "fill",
			"enable": between(o.Start, o.Start+o.Duration),
		})
		for _, f := range c.Fragments {
			if f.IsBlank() {
				continue
			}
			video = video.Filter("drawtext", ffmpeg.Args{}, drawtextArgs(f, o, style))
		}
	}
	return video
}

func drawtextArgs(f caption.Fragment, o caption.Overlay, style caption.Style) ffmpeg.KwArgs {
	kw := ffmpeg.KwArgs{
		"text":      f.Text,
		"expansion": "none",
		"x":         o.X + int(math.Round(f.X)),
		"y":         o.Y + int(math.Round(f.Y)),
		"fontsize":  style.FontSize,
		"fontcolor": f.Color,
		"enable":    between(f.Start, f.End()),
	}
	if isFontFile(style.Font) {
		kw["fontfile"] = style.Font
	} else if style.Font != "" {
		kw["font"] = style.Font
	}
	if f.StrokeWidth > 0 && f.StrokeColor != "" {
		kw["bordercolor"] = f.StrokeColor
		kw["borderw"] = int(math.Ceil(f.StrokeWidth))
	}
	return kw
}

func between(from, to float64) string {
	return fmt.Sprintf("between(t,%.3f,%.3f)", from, to)
}

func isFontFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".ttf" || ext == ".otf"
}
