package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/creachadair/atomicfile"
)

// ReadFile parses an .srt or .vtt file, picking the format from the
// extension.
func ReadFile(path string) ([]Cue, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		cues, errs := ParseSRT(f)
		return cues, errs, nil
	case ".vtt":
		cues, errs := ParseVTT(f)
		return cues, errs, nil
	}
	return nil, nil, fmt.Errorf("unsupported subtitle format: %s", path)
}

// SRTToVTT rewrites an SRT file as WebVTT.
func SRTToVTT(srtPath, vttPath string) error {
	in, err := os.Open(srtPath)
	if err != nil {
		return err
	}
	defer in.Close()

	subs, err := astisub.ReadFromSRT(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srtPath, err)
	}

	out, err := atomicfile.New(vttPath, 0644)
	if err != nil {
		return err
	}
	defer out.Cancel()
	if err := subs.WriteToWebVTT(out); err != nil {
		return fmt.Errorf("writing %s: %w", vttPath, err)
	}
	return out.Close()
}

// WriteSRTFile writes cues to path atomically.
func WriteSRTFile(path string, cues []Cue) error {
	out, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	defer out.Cancel()
	if err := WriteSRT(out, cues); err != nil {
		return err
	}
	return out.Close()
}
