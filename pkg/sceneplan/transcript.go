package sceneplan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// overlapTolerance absorbs rounding noise from speech aligners.
const overlapTolerance = 0.001

// Word is a single transcribed word with its spoken time range in seconds.
type Word struct {
	Word    string  `json:"word"`
	Start   float64 `json:"start" jsonschema:"minimum=0"`
	End     float64 `json:"end" jsonschema:"minimum=0"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is an ordered word-level transcript.
type Transcript []Word

// End returns the authoritative end of speech: the maximum word end.
func (t Transcript) End() float64 {
	end := 0.0
	for _, w := range t {
		if w.End > end {
			end = w.End
		}
	}
	return end
}

// LoadTranscript reads a transcript document. Both a bare array of words and
// an object with a "words" array are accepted. Words with empty text are
// dropped. Ordering problems are returned as ValidationErrors together with
// the parsed transcript.
func LoadTranscript(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("transcript file is empty")
	}

	var words []Word
	if data[0] == '{' {
		var wrapped struct {
			Words []Word `json:"words"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse transcript: %w", err)
		}
		words = wrapped.Words
	} else if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	out := make(Transcript, 0, len(words))
	for _, w := range words {
		w.Word = strings.TrimSpace(w.Word)
		if w.Word == "" {
			continue
		}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, errors.New("transcript contains no words")
	}

	if errs := out.Validate(); len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// Validate checks that words are ordered and non-overlapping.
func (t Transcript) Validate() ValidationErrors {
	var errs ValidationErrors
	for i, w := range t {
		label := wordLabel(i + 1)
		if w.Start < 0 {
			errs = append(errs, ValidationError{Item: label, Field: "start", Message: "must be >= 0"})
		}
		if w.End < w.Start {
			errs = append(errs, ValidationError{Item: label, Field: "end", Message: "must not precede start"})
		}
		if i > 0 && w.Start+overlapTolerance < t[i-1].End {
			errs = append(errs, ValidationError{
				Item:    label,
				Field:   "start",
				Message: fmt.Sprintf("overlaps previous word (%.3f < %.3f)", w.Start, t[i-1].End),
			})
		}
	}
	return errs
}
