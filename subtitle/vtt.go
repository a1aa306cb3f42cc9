package subtitle

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

var (
	vttTiming = regexp.MustCompile(`^(\d{2,}:)?\d{2}:\d{2}\.\d{3}\s+-->\s+(\d{2,}:)?\d{2}:\d{2}\.\d{3}`)
	vttTags   = regexp.MustCompile(`<[^>]*>`)
)

// ParseVTT reads WebVTT cues. Inline timestamps and styling tags are
// removed; cues whose text is empty after cleaning are dropped. Cue timing
// lines that do not parse are reported and skipped.
func ParseVTT(r io.Reader) (cues []Cue, errs []error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if !vttTiming.MatchString(line) {
			continue
		}

		start, end, err := parseTiming(line)
		if err != nil {
			errs = append(errs, &ParseError{Line: lineNum, Text: line, Err: err})
			continue
		}

		var text []string
		for sc.Scan() {
			lineNum++
			textLine := strings.TrimSpace(sc.Text())
			if textLine == "" {
				break
			}
			if clean := strings.TrimSpace(vttTags.ReplaceAllString(textLine, "")); clean != "" {
				text = append(text, clean)
			}
		}
		if len(text) > 0 {
			cues = append(cues, Cue{
				Index: len(cues) + 1,
				Start: start,
				End:   end,
				Text:  strings.Join(text, " "),
			})
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return cues, errs
}
