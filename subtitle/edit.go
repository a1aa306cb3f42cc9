package subtitle

import (
	"strings"
	"time"

	"bitbucket.org/creachadair/stringset"
)

// Trim keeps the cues that lie entirely inside [from, to].
func Trim(cues []Cue, from, to time.Duration) []Cue {
	var out []Cue
	for _, c := range cues {
		if c.Start >= from && c.End <= to {
			out = append(out, c)
		}
	}
	return out
}

// Shift moves every cue by offset, dropping cues that would end before
// zero and clamping starts at zero. Use a negative offset to rebase cues
// onto a clip cut at -offset.
func Shift(cues []Cue, offset time.Duration) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, c := range cues {
		c.Start += offset
		c.End += offset
		if c.End <= 0 {
			continue
		}
		if c.Start < 0 {
			c.Start = 0
		}
		out = append(out, c)
	}
	return out
}

// Collapse removes cues repeated by the cue that follows them, which is how
// auto-generated captions scroll: a short cue whose text is contained in
// the next one, or one whose words are at least 80% present in a longer
// next cue, is dropped. The last cue is always kept.
func Collapse(cues []Cue) []Cue {
	if len(cues) < 2 {
		return cues
	}
	var out []Cue
	for i, c := range cues {
		if i < len(cues)-1 && repeatedBy(c, cues[i+1]) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func repeatedBy(cur, next Cue) bool {
	a := strings.ToLower(strings.TrimSpace(cur.Text))
	b := strings.ToLower(strings.TrimSpace(next.Text))
	if len(a) < 60 && strings.Contains(b, a) {
		return true
	}

	aw, bw := strings.Fields(a), strings.Fields(b)
	if len(aw) == 0 || len(bw) <= len(aw) {
		return false
	}
	kept := stringset.New(bw...).Intersect(stringset.New(aw...)).Len()
	return kept*5 >= stringset.New(aw...).Len()*4
}
