package fcp

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
)

// Version is the FCPXML document version written.
const Version = "1.11"

// FrameDuration is the sequence frame duration: 29.97 fps.
const FrameDuration = "1001/30000s"

// FormatDuration converts d to a frame-aligned FCP time.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	frames := int64(math.Round(d.Seconds() * 30000 / 1001))
	return fmt.Sprintf("%d/30000s", frames*1001)
}

// FormatSeconds is FormatDuration for float seconds.
func FormatSeconds(s float64) string {
	return FormatDuration(time.Duration(math.Round(s * float64(time.Second))))
}

// ParseDuration parses an FCP time: "0s", "12s" or "1001/30000s".
func ParseDuration(s string) (time.Duration, error) {
	if !strings.HasSuffix(s, "s") {
		return 0, fmt.Errorf("invalid FCP time %q", s)
	}
	body := strings.TrimSuffix(s, "s")
	num, den := body, "1"
	if i := strings.IndexByte(body, '/'); i >= 0 {
		num, den = body[:i], body[i+1:]
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid FCP time %q", s)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid FCP time %q", s)
	}
	return time.Duration(float64(n) / float64(d) * float64(time.Second)), nil
}

// ParseFCPXML reads a document from disk.
func ParseFCPXML(filePath string) (*FCPXML, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var doc FCPXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return &doc, nil
}

// Marshal renders doc with the XML header and DOCTYPE FCP expects.
func Marshal(doc *FCPXML) ([]byte, error) {
	output, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + "<!DOCTYPE fcpxml>\n\n" + string(output) + "\n"), nil
}

// WriteToFile marshals doc and replaces path atomically.
func WriteToFile(doc *FCPXML, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling FCPXML: %w", err)
	}
	out, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	defer out.Cancel()
	if _, err := out.Write(data); err != nil {
		return err
	}
	return out.Close()
}

// DisplayFCPXML prints a short summary of doc.
func DisplayFCPXML(doc *FCPXML) {
	fmt.Printf("=== FCPXML File Analysis ===\n")
	fmt.Printf("Version: %s\n\n", doc.Version)

	fmt.Printf("Resources: %d formats, %d assets, %d effects\n",
		len(doc.Resources.Formats), len(doc.Resources.Assets), len(doc.Resources.Effects))
	for _, f := range doc.Resources.Formats {
		fmt.Printf("  Format %s: %sx%s (%s)\n", f.ID, f.Width, f.Height, f.FrameDuration)
	}
	for _, a := range doc.Resources.Assets {
		fmt.Printf("  Asset %s: %s (%s)\n", a.ID, a.Name, a.Duration)
	}

	for _, event := range doc.Library.Events {
		fmt.Printf("\nEvent: %s\n", event.Name)
		for _, project := range event.Projects {
			fmt.Printf("  Project: %s\n", project.Name)
			for _, seq := range project.Sequences {
				titles := len(seq.Spine.Titles)
				for _, clip := range seq.Spine.AssetClips {
					titles += len(clip.Titles)
				}
				fmt.Printf("    Sequence: %s, %d clips, %d titles\n",
					seq.Duration, len(seq.Spine.AssetClips), titles)
			}
		}
	}
}
