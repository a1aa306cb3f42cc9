package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"captionkit/youtube"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download content from YouTube",
	Long:  "Commands for fetching videos, audio and subtitles with yt-dlp.",
}

var youtubeCmd = &cobra.Command{
	Use:   "youtube <video-id|url>",
	Short: "Download a YouTube video and its subtitles",
	Long: `Download a YouTube video by ID or URL. Subtitles are fetched in the
configured language and retried with backoff when YouTube rate limits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := youtube.VideoID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		lang := downloadLanguage(cmd)

		if downloadAudio {
			path, err := youtube.DownloadAudio(ctx, id, downloadDir)
			if err != nil {
				return err
			}
			fmt.Printf("Audio saved to %s\n", path)
		} else {
			path, err := youtube.DownloadVideo(ctx, id, downloadDir)
			if err != nil {
				return err
			}
			fmt.Printf("Video saved to %s\n", path)
		}

		if downloadNoSubs {
			return nil
		}
		path, err := youtube.DownloadSubtitles(ctx, id, downloadDir, lang)
		if err != nil {
			warn(fmt.Errorf("could not download subtitles: %w", err))
			return nil
		}
		fmt.Printf("Subtitles saved to %s\n", path)
		return nil
	},
}

var bulkCmd = &cobra.Command{
	Use:   "bulk <ids-file>",
	Short: "Download every video listed in a file",
	Long: `Download the videos listed one ID per line in a file. Blank lines and
lines starting with # are ignored, as are repeated IDs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return youtube.DownloadAll(cmd.Context(), args[0], downloadDir, downloadLanguage(cmd))
	},
}

var (
	downloadDir    string
	downloadLang   string
	downloadAudio  bool
	downloadNoSubs bool
)

func init() {
	downloadCmd.PersistentFlags().StringVarP(&downloadDir, "dir", "d", ".", "Directory to save into")
	downloadCmd.PersistentFlags().StringVar(&downloadLang, "lang", "", "Subtitle language (default from config)")
	youtubeCmd.Flags().BoolVar(&downloadAudio, "audio", false, "Download audio only as mp3")
	youtubeCmd.Flags().BoolVar(&downloadNoSubs, "no-subs", false, "Skip subtitles")

	downloadCmd.AddCommand(youtubeCmd)
	downloadCmd.AddCommand(bulkCmd)
}

func downloadLanguage(cmd *cobra.Command) string {
	if cmd.Flags().Changed("lang") {
		return downloadLang
	}
	return cfg.Language
}
