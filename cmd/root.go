package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"captionkit/config"
)

var (
	configFile string
	envFile    string
	verbose    bool

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "captionkit",
	Short: "Word-highlighted captions for video",
	Long: `Captionkit turns subtitles into word-by-word highlighted captions.
It converts SRT and VTT files into a word-timed JSON transcript, lays out
each sentence over the video frame, and renders the result with ffmpeg or
as a Final Cut Pro project. Helpers download source material from YouTube
and cut clips and vertical shorts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile, envFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		return nil
	},
}

// Execute runs the command tree and exits non-zero on error. Interrupts
// cancel the running command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML settings file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before CAPTIONKIT_* variables are read")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every skipped caption and worker step")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(captionCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(mediaCmd)
}

// logger returns the pipeline logger for the current settings.
func logger() *log.Logger {
	var w io.Writer = io.Discard
	if cfg.Verbose {
		w = os.Stderr
	}
	return log.New(w, "captionkit: ", log.Ltime)
}

// warn prints a non-fatal problem the way every command reports them.
func warn(err error) {
	fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
}
