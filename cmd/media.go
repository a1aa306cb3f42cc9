package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captionkit/caption"
	"captionkit/media"
	"captionkit/timecode"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Video cutting and inspection",
	Long:  "Commands that cut clips and shorts out of videos with ffmpeg.",
}

var trimCmd = &cobra.Command{
	Use:   "trim <video> <from> <to>",
	Short: "Cut a clip between two MM:SS points",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := clockRange(args[1], args[2])
		if err != nil {
			return err
		}
		out := mediaOutput
		if out == "" {
			out = suffixed(args[0], "_trimmed")
		}
		return media.Trim(cmd.Context(), args[0], out, from, to)
	},
}

var shortsCmd = &cobra.Command{
	Use:   "shorts <video> <intro> <from> <to>",
	Short: "Cut, rotate and prepend an intro for a vertical short",
	Long: `Cut the clip between two MM:SS points, rotate it a quarter turn
counter-clockwise and join it after the intro video. The result takes the
intro's frame size.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := clockRange(args[2], args[3])
		if err != nil {
			return err
		}
		out := mediaOutput
		if out == "" {
			out = suffixed(args[0], "_short")
		}
		return media.Shorts(cmd.Context(), args[0], args[1], out, from, to)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <video>",
	Short: "Show frame size, duration and the caption font size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := media.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Frame:     %dx%d\n", info.Frame.Width, info.Frame.Height)
		fmt.Printf("Duration:  %.3fs\n", info.Duration)
		fmt.Printf("Audio:     %v\n", info.HasAudio)
		size := cfg.Style.FontSize
		if size == 0 {
			size = caption.FontSizeFor(info.Frame)
		}
		fmt.Printf("Font size: %d\n", size)
		return nil
	},
}

var mediaOutput string

func init() {
	trimCmd.Flags().StringVarP(&mediaOutput, "output", "o", "", "Output file (default <video>_trimmed.mp4)")
	shortsCmd.Flags().StringVarP(&mediaOutput, "output", "o", "", "Output file (default <video>_short.mp4)")

	mediaCmd.AddCommand(trimCmd)
	mediaCmd.AddCommand(shortsCmd)
	mediaCmd.AddCommand(probeCmd)
}

func clockRange(from, to string) (start, end time.Duration, err error) {
	if start, err = timecode.ParseClock(from); err != nil {
		return 0, 0, err
	}
	if end, err = timecode.ParseClock(to); err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("end %s must be after start %s", to, from)
	}
	return start, end, nil
}

func suffixed(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix + ".mp4"
}
