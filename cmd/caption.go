package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
	"github.com/spf13/cobra"

	"captionkit/browser"
	"captionkit/caption"
	"captionkit/config"
	"captionkit/fcp"
	"captionkit/measure"
	"captionkit/media"
	"captionkit/pipeline"
	"captionkit/timecode"
)

var captionCmd = &cobra.Command{
	Use:   "caption",
	Short: "Lay out and render word-highlighted captions",
	Long: `Commands that lay out a transcript over a video frame and render it.
A transcript is a JSON file written by "convert srt2json" or an SRT/VTT
file, in which case each cue's time is spread evenly over its words.`,
}

var captionLayoutCmd = &cobra.Command{
	Use:   "layout <transcript>",
	Short: "Print the caption layout as JSON",
	Long: `Lay out every sentence of the transcript and write the overlays, word
boxes and text fragments as JSON. The frame comes from --video or from
--width and --height.`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptionLayout,
}

var captionBurnCmd = &cobra.Command{
	Use:   "burn <video> <transcript>",
	Short: "Burn captions into a video with ffmpeg",
	Args:  cobra.ExactArgs(2),
	RunE:  runCaptionBurn,
}

var captionFCPXMLCmd = &cobra.Command{
	Use:   "fcpxml <video> <transcript>",
	Short: "Write captions as a Final Cut Pro project",
	Long: `Write an FCPXML project with the video on the timeline and every caption
fragment as a connected Text title.`,
	Args: cobra.ExactArgs(2),
	RunE: runCaptionFCPXML,
}

var (
	layoutOutput    string
	layoutVideo     string
	layoutWidth     int
	layoutHeight    int
	burnOutput      string
	fcpOutput       string
	fcpWidth        int
	fcpHeight       int
	captionAudio    string
	captionFrom     string
	captionTo       string
	captionCollapse bool
	captionShow     bool

	styleFont      string
	styleFontSize  int
	styleColor     string
	styleHighlight string
	styleStroke    string
	styleStrokeW   float64
	workers        int
	measurer       string
)

func init() {
	captionCmd.AddCommand(captionLayoutCmd)
	captionCmd.AddCommand(captionBurnCmd)
	captionCmd.AddCommand(captionFCPXMLCmd)

	pf := captionCmd.PersistentFlags()
	pf.StringVar(&styleFont, "font", "", "Font name or .ttf/.otf file")
	pf.IntVar(&styleFontSize, "font-size", 0, "Font size in pixels (default 7.5% of the frame height)")
	pf.StringVar(&styleColor, "color", "", "Text color")
	pf.StringVar(&styleHighlight, "highlight-color", "", "Color of the word being spoken")
	pf.StringVar(&styleStroke, "stroke-color", "", "Outline color")
	pf.Float64Var(&styleStrokeW, "stroke-width", 0, "Outline width")
	pf.IntVar(&workers, "workers", 0, "Sentences laid out in parallel")
	pf.StringVar(&measurer, "measurer", "", `Text measurer: "font" or "browser"`)
	pf.StringVar(&captionFrom, "from", "", "Keep cues from this point (MM:SS) and shift them to zero")
	pf.StringVar(&captionTo, "to", "", "Keep cues ending before this point (MM:SS)")
	pf.BoolVar(&captionCollapse, "collapse", false, "Drop repeated lines from auto-generated subtitles")

	captionLayoutCmd.Flags().StringVarP(&layoutOutput, "output", "o", "-", "Output JSON file, - for stdout")
	captionLayoutCmd.Flags().StringVar(&layoutVideo, "video", "", "Read the frame size from this video")
	captionLayoutCmd.Flags().IntVar(&layoutWidth, "width", 1920, "Frame width")
	captionLayoutCmd.Flags().IntVar(&layoutHeight, "height", 1080, "Frame height")

	captionBurnCmd.Flags().StringVarP(&burnOutput, "output", "o", "", "Output video (default <video>_captioned.mp4)")
	captionBurnCmd.Flags().StringVar(&captionAudio, "audio", "", "Replace the video's audio with this file")

	captionFCPXMLCmd.Flags().StringVarP(&fcpOutput, "output", "o", "", "Output file (default <video>.fcpxml)")
	captionFCPXMLCmd.Flags().StringVar(&captionAudio, "audio", "", "Connect this audio file under the video")
	captionFCPXMLCmd.Flags().IntVar(&fcpWidth, "width", 0, "Frame width; skips probing the video when set with --height")
	captionFCPXMLCmd.Flags().IntVar(&fcpHeight, "height", 0, "Frame height")
	captionFCPXMLCmd.Flags().BoolVar(&captionShow, "show", false, "Print a summary of the written project")
}

// applyStyleFlags overlays flags the user set on the loaded config.
func applyStyleFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("font") {
		cfg.Style.Font = styleFont
	}
	if f.Changed("font-size") {
		cfg.Style.FontSize = styleFontSize
	}
	if f.Changed("color") {
		cfg.Style.Color = styleColor
	}
	if f.Changed("highlight-color") {
		cfg.Style.HighlightColor = styleHighlight
	}
	if f.Changed("stroke-color") {
		cfg.Style.StrokeColor = styleStroke
	}
	if f.Changed("stroke-width") {
		cfg.Style.StrokeWidth = styleStrokeW
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("measurer") {
		cfg.Measurer = measurer
	}
	return cfg.Validate()
}

// newMeasurer returns the configured measurer and a function releasing it.
func newMeasurer() (caption.Measurer, func(), error) {
	switch cfg.Measurer {
	case config.MeasureBrowser:
		m, err := browser.NewCanvasMeasurer()
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		m := measure.NewFont()
		return m, func() { m.Close() }, nil
	}
}

// measuredFont returns the font file the font measurer sizes words with,
// so renderers draw the same face.
func measuredFont() (measure.Resolved, error) {
	m := measure.NewFont()
	defer m.Close()
	res, err := m.Resolve(cfg.Style.Font)
	if err != nil {
		return measure.Resolved{}, err
	}
	if res.Path != cfg.Style.Font {
		logger().Printf("Font %q is measured and drawn as %s %s (%s)", cfg.Style.Font, res.Family, res.Face, res.Path)
	}
	return res, nil
}

// openTranscript applies the --from, --to and --collapse flags.
func openTranscript(path string) (pipeline.TranscriptSource, error) {
	src, err := pipeline.OpenTranscript(path)
	if err != nil {
		return nil, err
	}
	st, ok := src.(pipeline.SubtitleTranscript)
	if !ok {
		if captionFrom != "" || captionTo != "" || captionCollapse {
			return nil, fmt.Errorf("--from, --to and --collapse need an .srt or .vtt transcript")
		}
		return src, nil
	}
	st.Collapse = captionCollapse
	st.Warn = warn
	if captionTo != "" {
		if st.To, err = timecode.ParseClock(captionTo); err != nil {
			return nil, err
		}
		if captionFrom != "" {
			if st.From, err = timecode.ParseClock(captionFrom); err != nil {
				return nil, err
			}
		}
		if st.To <= st.From {
			return nil, fmt.Errorf("--to %s must be after --from %s", captionTo, captionFrom)
		}
	} else if captionFrom != "" {
		return nil, fmt.Errorf("--from needs --to")
	}
	return st, nil
}

// run wires the pipeline for one captioning command.
func run(ctx context.Context, video pipeline.VideoSource, transcript string, r pipeline.Renderer, output string) error {
	src, err := openTranscript(transcript)
	if err != nil {
		return err
	}
	m, release, err := newMeasurer()
	if err != nil {
		return err
	}
	defer release()

	return pipeline.Run(ctx, pipeline.Config{
		Video:      video,
		Transcript: src,
		Renderer:   r,
		Measurer:   m,
		Style:      cfg.Style,
		Audio:      captionAudio,
		Output:     output,
		Workers:    cfg.Workers,
		Log:        logger(),
	})
}

func runCaptionLayout(cmd *cobra.Command, args []string) error {
	if err := applyStyleFlags(cmd); err != nil {
		return err
	}
	var video pipeline.VideoSource = pipeline.FixedFrame{
		File: layoutVideo,
		Size: caption.Frame{Width: layoutWidth, Height: layoutHeight},
	}
	if layoutVideo != "" {
		video = media.File{Name: layoutVideo}
	}
	return run(cmd.Context(), video, args[0], jsonRenderer{}, layoutOutput)
}

func runCaptionBurn(cmd *cobra.Command, args []string) error {
	if err := applyStyleFlags(cmd); err != nil {
		return err
	}
	out := burnOutput
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_captioned.mp4"
	}
	r := media.Renderer{Preset: cfg.Preset}
	if cfg.Measurer != config.MeasureBrowser {
		res, err := measuredFont()
		if err != nil {
			return err
		}
		r.FontFile = res.Path
	}
	return run(cmd.Context(), media.File{Name: args[0]}, args[1], r, out)
}

func runCaptionFCPXML(cmd *cobra.Command, args []string) error {
	if err := applyStyleFlags(cmd); err != nil {
		return err
	}
	out := fcpOutput
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".fcpxml"
	}
	if !strings.HasSuffix(strings.ToLower(out), ".fcpxml") {
		out += ".fcpxml"
	}

	var video pipeline.VideoSource
	var r fcp.Renderer
	if cfg.Measurer != config.MeasureBrowser {
		res, err := measuredFont()
		if err != nil {
			return err
		}
		r.Font, r.FontFace = res.Family, res.Face
	}
	if fcpWidth > 0 && fcpHeight > 0 {
		video = pipeline.FixedFrame{File: args[0], Size: caption.Frame{Width: fcpWidth, Height: fcpHeight}}
	} else {
		info, err := media.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		r.VideoDuration = time.Duration(math.Ceil(info.Duration * float64(time.Second)))
		video = pipeline.FixedFrame{File: args[0], Size: info.Frame}
	}

	if err := run(cmd.Context(), video, args[1], r, out); err != nil {
		return err
	}
	if captionShow {
		doc, err := fcp.ParseFCPXML(out)
		if err != nil {
			return err
		}
		fcp.DisplayFCPXML(doc)
	}
	return nil
}

// jsonRenderer writes the laid-out captions instead of rendering them.
type jsonRenderer struct{}

func (jsonRenderer) Render(ctx context.Context, job pipeline.Job) error {
	bits, err := json.MarshalIndent(struct {
		Frame    caption.Frame     `json:"frame"`
		Style    caption.Style     `json:"style"`
		Captions []caption.Caption `json:"captions"`
	}{job.Frame, job.Style, job.Captions}, "", "    ")
	if err != nil {
		return err
	}
	bits = append(bits, '\n')

	if job.Output == "" || job.Output == "-" {
		_, err := os.Stdout.Write(bits)
		return err
	}
	out, err := atomicfile.New(job.Output, 0644)
	if err != nil {
		return err
	}
	defer out.Cancel()
	if _, err := out.Write(bits); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved %d captions to %s\n", len(job.Captions), job.Output)
	return nil
}
