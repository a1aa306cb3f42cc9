// Package youtube downloads video, audio and subtitles with yt-dlp.
package youtube

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/creachadair/stringset"
)

// Command is the yt-dlp executable.
var Command = "yt-dlp"

// MaxAttempts bounds subtitle download retries.
var MaxAttempts = 8

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func IsYouTubeID(input string) bool {
	return idPattern.MatchString(input)
}

// VideoID extracts the video ID from a watch, shorts or youtu.be URL, or
// returns input unchanged if it already is an ID.
func VideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if IsYouTubeID(input) {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid YouTube URL %q: %w", input, err)
	}

	var id string
	switch host := strings.TrimPrefix(u.Host, "www."); {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			id = v
		} else if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			id = strings.Trim(rest, "/")
		}
	}
	if !IsYouTubeID(id) {
		return "", fmt.Errorf("no YouTube video ID in %q", input)
	}
	return id, nil
}

// WatchURL returns the watch page URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, Command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// DownloadVideo saves the best mp4 stream up to 720p as dir/<id>.mp4.
func DownloadVideo(ctx context.Context, id, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	fmt.Printf("Downloading video %s...\n", id)
	out := filepath.Join(dir, id+".mp4")
	err := run(ctx,
		"-f", "bv*[height<=720][ext=mp4]+ba[ext=m4a]/b[height<=720][ext=mp4]/b",
		"--merge-output-format", "mp4",
		"-o", filepath.Join(dir, id+".%(ext)s"),
		WatchURL(id))
	if err != nil {
		return "", fmt.Errorf("downloading video %s: %w", id, err)
	}
	return out, nil
}

// DownloadAudio saves the audio track as 128k mp3 in dir/<id>.mp3.
func DownloadAudio(ctx context.Context, id, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	fmt.Printf("Downloading audio %s...\n", id)
	out := filepath.Join(dir, id+".mp3")
	err := run(ctx,
		"-x", "--audio-format", "mp3", "--audio-quality", "128K",
		"-o", filepath.Join(dir, id+".%(ext)s"),
		WatchURL(id))
	if err != nil {
		return "", fmt.Errorf("downloading audio %s: %w", id, err)
	}
	return out, nil
}

// DownloadSubtitles fetches subtitles (uploaded or automatic) in lang as
// dir/<id>.<lang>.srt. An existing file is reused. Failures are retried
// with exponential backoff.
func DownloadSubtitles(ctx context.Context, id, dir, lang string) (string, error) {
	srtFile := filepath.Join(dir, id+"."+lang+".srt")
	if _, err := os.Stat(srtFile); err == nil {
		fmt.Printf("Subtitles file %s already exists, skipping download\n", srtFile)
		return srtFile, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	fmt.Printf("Downloading subtitles...\n")
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		lastErr = run(ctx,
			"--skip-download", "--write-sub", "--write-auto-sub",
			"--sub-lang", lang, "--convert-subs", "srt",
			"-o", filepath.Join(dir, id),
			WatchURL(id))
		if lastErr == nil {
			if _, err := os.Stat(srtFile); err != nil {
				return "", fmt.Errorf("no %s subtitles for %s", lang, id)
			}
			return srtFile, nil
		}
		if attempt == MaxAttempts {
			break
		}

		delay := Backoff(attempt)
		fmt.Printf("Subtitle download failed (attempt %d/%d), retrying in %v...\n", attempt, MaxAttempts, delay)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("could not download subtitles after %d attempts: %w", MaxAttempts, lastErr)
}

// Backoff is the wait before retry attempt+1: 2^(attempt-1) seconds,
// capped at one minute.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 7 {
		return time.Minute
	}
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}

// ReadIDs reads one video ID or URL per line. Blank lines and lines
// starting with # are ignored, as are duplicates. Lines that hold no ID are
// reported on stderr and skipped.
func ReadIDs(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ids []string
	seen := stringset.New()
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := VideoID(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Invalid YouTube ID on line %d: %s\n", lineNum, line)
			continue
		}
		if seen.Contains(id) {
			continue
		}
		seen.Add(id)
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// DownloadAll fetches video and subtitles for every ID in filename. A
// failure for one video is reported and the rest continue; the returned
// error lists how many failed.
func DownloadAll(ctx context.Context, filename, dir, lang string) error {
	ids, err := ReadIDs(filename)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d video IDs\n", len(ids))

	failed := 0
	for i, id := range ids {
		fmt.Printf("[%d/%d] %s\n", i+1, len(ids), id)
		if _, err := DownloadVideo(ctx, id, dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed++
			continue
		}
		if _, err := DownloadSubtitles(ctx, id, dir, lang); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not download subtitles: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}
