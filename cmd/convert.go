package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"captionkit/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Subtitle format conversion",
	Long:  "Convert subtitle files into the word-timed JSON transcript or into WebVTT.",
}

var srt2jsonCmd = &cobra.Command{
	Use:   "srt2json <file.srt> [file.json]",
	Short: "Convert SRT to a word-timed JSON transcript",
	Long: `Convert an SRT file into the JSON transcript used for captioning.
Each cue becomes a sentence and its time is spread evenly over its words.
Malformed cues are reported and skipped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := outputPath(args, ".json")
		warnings, err := subtitle.SRTToJSON(args[0], out)
		for _, w := range warnings {
			warn(w)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Saved transcript to %s\n", out)
		return nil
	},
}

var srt2vttCmd = &cobra.Command{
	Use:   "srt2vtt <file.srt> [file.vtt]",
	Short: "Convert SRT to WebVTT",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := outputPath(args, ".vtt")
		if err := subtitle.SRTToVTT(args[0], out); err != nil {
			return err
		}
		fmt.Printf("Saved subtitles to %s\n", out)
		return nil
	},
}

var trimSubsCmd = &cobra.Command{
	Use:   "trim <file.srt|file.vtt> <from> <to> [out.srt]",
	Short: "Keep the cues between two MM:SS points",
	Long: `Keep only the cues that lie entirely between two MM:SS points and shift
them so the first point becomes zero, matching a clip cut with "media trim".
The result is written as SRT.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := clockRange(args[1], args[2])
		if err != nil {
			return err
		}
		cues, errs, err := subtitle.ReadFile(args[0])
		if err != nil {
			return err
		}
		for _, e := range errs {
			warn(e)
		}

		kept := subtitle.Shift(subtitle.Trim(cues, from, to), -from)
		out := strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_trimmed.srt"
		if len(args) > 3 {
			out = args[3]
		}
		if err := subtitle.WriteSRTFile(out, kept); err != nil {
			return err
		}
		fmt.Printf("Kept %d of %d cues in %s\n", len(kept), len(cues), out)
		return nil
	},
}

func init() {
	convertCmd.AddCommand(srt2jsonCmd)
	convertCmd.AddCommand(srt2vttCmd)
	convertCmd.AddCommand(trimSubsCmd)
}

// outputPath returns args[1] when given, else args[0] with its extension
// replaced by ext.
func outputPath(args []string, ext string) string {
	if len(args) > 1 {
		return args[1]
	}
	return strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ext
}
