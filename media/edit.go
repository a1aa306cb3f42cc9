package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// Trim copies [from, to) of in to out, re-encoding so the cut is frame
// accurate.
func Trim(ctx context.Context, in, out string, from, to time.Duration) error {
	if to <= from {
		return fmt.Errorf("trim end %v must be after start %v", to, from)
	}
	fmt.Printf("Trimming %s to %v-%v...\n", in, from, to)
	s := trimStream(in, out, from, to)
	if err := run(ctx, s); err != nil {
		return fmt.Errorf("trimming %s: %w", in, err)
	}
	fmt.Printf("Trimmed video saved to: %s\n", out)
	return nil
}

func trimStream(in, out string, from, to time.Duration) *ffmpeg.Stream {
	return ffmpeg.Input(in, ffmpeg.KwArgs{"ss": seconds(from), "to": seconds(to)}).
		Output(out, ffmpeg.KwArgs{"c:v": "libx264", "c:a": "aac"}).
		OverWriteOutput()
}

// Shorts cuts [from, to) out of in, rotates it a quarter turn
// counter-clockwise and appends it to the intro clip. Both parts are
// scaled and padded to the intro's frame so they can be joined.
func Shorts(ctx context.Context, in, intro, out string, from, to time.Duration) error {
	if to <= from {
		return fmt.Errorf("cut end %v must be after start %v", to, from)
	}
	introInfo, err := Probe(ctx, intro)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "captionkit-shorts")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	w, h := introInfo.Frame.Width, introInfo.Frame.Height
	introPart := filepath.Join(dir, "0-intro.mp4")
	cutPart := filepath.Join(dir, "1-cut.mp4")

	fmt.Printf("Preparing intro %s...\n", intro)
	if err := run(ctx, normalizeStream(ffmpeg.Input(intro), introPart, w, h, false)); err != nil {
		return fmt.Errorf("preparing intro: %w", err)
	}

	fmt.Printf("Cutting and rotating %s...\n", in)
	cut := ffmpeg.Input(in, ffmpeg.KwArgs{"ss": seconds(from), "to": seconds(to)})
	if err := run(ctx, normalizeStream(cut, cutPart, w, h, true)); err != nil {
		return fmt.Errorf("cutting %s: %w", in, err)
	}

	list := filepath.Join(dir, "parts.txt")
	if err := os.WriteFile(list, []byte(concatList(introPart, cutPart)), 0644); err != nil {
		return err
	}
	joined := ffmpeg.Input(list, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(out, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput()
	if err := run(ctx, joined); err != nil {
		return fmt.Errorf("joining shorts: %w", err)
	}

	fmt.Printf("Successfully converted and saved as %s\n", out)
	return nil
}

// normalizeStream re-encodes in to a w×h, 30fps, 48kHz stereo file so
// parts can be joined without re-encoding.
func normalizeStream(in *ffmpeg.Stream, out string, w, h int, rotate bool) *ffmpeg.Stream {
	v := in.Video()
	if rotate {
		v = v.Filter("transpose", ffmpeg.Args{}, ffmpeg.KwArgs{"dir": "cclock"})
	}
	v = v.Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{"w": w, "h": h, "force_original_aspect_ratio": "decrease"}).
		Filter("pad", ffmpeg.Args{}, ffmpeg.KwArgs{"w": w, "h": h, "x": "(ow-iw)/2", "y": "(oh-ih)/2"}).
		Filter("fps", ffmpeg.Args{}, ffmpeg.KwArgs{"fps": 30}).
		Filter("setsar", ffmpeg.Args{}, ffmpeg.KwArgs{"sar": 1})
	return ffmpeg.Output([]*ffmpeg.Stream{v, in.Audio()}, out, ffmpeg.KwArgs{
		"c:v": "libx264", "pix_fmt": "yuv420p",
		"c:a": "aac", "ar": 48000, "ac": 2,
	}).OverWriteOutput()
}

func concatList(paths ...string) string {
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}
