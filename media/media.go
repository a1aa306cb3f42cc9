// Package media runs ffmpeg: probing frame sizes, burning captions into
// video, trimming and building vertical shorts.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"captionkit/caption"
)

// Binary is the ffmpeg executable used for rendering.
var Binary = "ffmpeg"

// Info is what ffprobe reports about a media file.
type Info struct {
	Frame    caption.Frame
	Duration float64 // seconds
	HasAudio bool
}

// File is a video on disk. It implements pipeline.VideoSource.
type File struct {
	Name string
}

func (f File) Path() string { return f.Name }

// Frame probes the first video stream's size.
func (f File) Frame(ctx context.Context) (caption.Frame, error) {
	info, err := Probe(ctx, f.Name)
	if err != nil {
		return caption.Frame{}, err
	}
	return info.Frame, nil
}

// Probe runs ffprobe on path.
func Probe(ctx context.Context, path string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return Info{}, err
	}
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return Info{}, fmt.Errorf("probing %s: %w", path, err)
	}
	return parseProbe(out)
}

type probeOutput struct {
	Streams []struct {
		CodecType string            `json:"codec_type"`
		Width     int               `json:"width"`
		Height    int               `json:"height"`
		Tags      map[string]string `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(raw string) (Info, error) {
	var p probeOutput
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Info{}, fmt.Errorf("decoding ffprobe output: %w", err)
	}

	var info Info
	found := false
	for _, s := range p.Streams {
		switch s.CodecType {
		case "video":
			if found {
				continue
			}
			found = true
			info.Frame = caption.Frame{Width: s.Width, Height: s.Height}
			// Phone footage is often stored landscape with a rotate tag.
			if r := s.Tags["rotate"]; r == "90" || r == "270" || r == "-90" {
				info.Frame.Width, info.Frame.Height = s.Height, s.Width
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if !found {
		return Info{}, fmt.Errorf("no video stream")
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(p.Format.Duration), 64); err == nil {
		info.Duration = d
	}
	return info, nil
}

// run executes a compiled ffmpeg stream under ctx.
func run(ctx context.Context, s *ffmpeg.Stream) error {
	args := s.GetArgs()
	cmd := exec.CommandContext(ctx, Binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, tail(out, 2000))
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
