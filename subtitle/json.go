package subtitle

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"

	"captionkit/caption"
	"captionkit/timecode"
)

// ToSentence spreads the cue's duration evenly over its words. A cue with
// no words yields a sentence with an empty word list.
func ToSentence(c Cue) caption.Sentence {
	start, end := timecode.Seconds(c.Start), timecode.Seconds(c.End)
	words := c.Words()
	s := caption.Sentence{Start: start, End: end, Words: make([]caption.Word, 0, len(words))}
	if len(words) == 0 {
		return s
	}

	step := (end - start) / float64(len(words))
	current := start
	for _, w := range words {
		s.Words = append(s.Words, caption.Word{Text: w, Start: current, End: current + step})
		current += step
	}
	return s
}

// ToSentences converts every cue, keeping order.
func ToSentences(cues []Cue) []caption.Sentence {
	out := make([]caption.Sentence, len(cues))
	for i, c := range cues {
		out[i] = ToSentence(c)
	}
	return out
}

// WriteJSON stores sentences as
//
//	[{"start": s, "end": e, "textcontents": [{"word": w, "start": s, "end": e}, ...]}, ...]
//
// indented by four spaces. The file is replaced atomically.
func WriteJSON(path string, sentences []caption.Sentence) error {
	if sentences == nil {
		sentences = []caption.Sentence{}
	}
	bits, err := json.MarshalIndent(sentences, "", "    ")
	if err != nil {
		return err
	}

	out, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	defer out.Cancel()
	if _, err := out.Write(bits); err != nil {
		return err
	}
	return out.Close()
}

// ReadJSON loads sentences written by WriteJSON.
func ReadJSON(path string) ([]caption.Sentence, error) {
	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sentences []caption.Sentence
	if err := json.Unmarshal(bits, &sentences); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return sentences, nil
}

// SRTToJSON converts an SRT file to the word-timed JSON form. Blocks that
// fail to parse are skipped and returned as warnings.
func SRTToJSON(srtPath, jsonPath string) (warnings []error, err error) {
	f, err := os.Open(srtPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cues, warnings := ParseSRT(f)
	return warnings, WriteJSON(jsonPath, ToSentences(cues))
}
