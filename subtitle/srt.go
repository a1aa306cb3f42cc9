// Package subtitle reads SRT and WebVTT files, turns cues into word-timed
// sentences and writes the JSON and VTT forms the rest of the tool uses.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"captionkit/timecode"
)

// A Cue is one subtitle block.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration reports End-Start.
func (c Cue) Duration() time.Duration { return c.End - c.Start }

// Words splits the cue text on whitespace.
func (c Cue) Words() []string { return strings.Fields(c.Text) }

// A ParseError describes a subtitle block that was skipped.
type ParseError struct {
	Line int    // line where the block starts
	Text string // offending line
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseSRT reads blocks of the form
//
//	<index>
//	<start> --> <end>
//	<text, one or more lines>
//
// separated by blank lines. Malformed blocks are reported in errs and
// skipped; the returned cues hold every block that parsed. Multi-line text
// is joined with single spaces.
func ParseSRT(r io.Reader) (cues []Cue, errs []error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var block []string
	start, lineNum := 0, 0
	flush := func() {
		if len(block) == 0 {
			return
		}
		cue, err := parseSRTBlock(block)
		if err != nil {
			errs = append(errs, &ParseError{Line: start, Text: block[0], Err: err})
		} else {
			cues = append(cues, cue)
		}
		block = block[:0]
	}

	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if len(block) == 0 {
			start = lineNum
		}
		block = append(block, line)
	}
	flush()
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return cues, errs
}

func parseSRTBlock(lines []string) (Cue, error) {
	if len(lines) < 2 {
		return Cue{}, fmt.Errorf("incomplete block")
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Cue{}, fmt.Errorf("invalid cue index")
	}
	start, end, err := parseTiming(lines[1])
	if err != nil {
		return Cue{}, err
	}
	text := make([]string, 0, len(lines)-2)
	for _, l := range lines[2:] {
		text = append(text, strings.TrimSpace(l))
	}
	return Cue{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.TrimSpace(strings.Join(text, " ")),
	}, nil
}

// parseTiming parses "<start> --> <end>", ignoring any cue settings after
// the end time.
func parseTiming(line string) (start, end time.Duration, err error) {
	from, to, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, fmt.Errorf("missing -->")
	}
	if f := strings.Fields(to); len(f) > 0 {
		to = f[0]
	}
	if start, err = timecode.Parse(from); err != nil {
		return 0, 0, err
	}
	if end, err = timecode.Parse(to); err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("cue ends before it starts")
	}
	return start, end, nil
}

// WriteSRT writes cues in SRT form, renumbering them from 1.
func WriteSRT(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, c := range cues {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n", i+1, timecode.FormatSRT(c.Start), timecode.FormatSRT(c.End), c.Text)
	}
	return bw.Flush()
}
