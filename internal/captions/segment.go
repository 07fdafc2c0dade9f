package captions

import (
	"strings"

	"reelsmith/pkg/sceneplan"
)

// Line is a width-bounded group of consecutive transcript words shown
// together. Spans holds the byte range of each word within Text. Overflow
// marks a single word that is wider than the limit on its own.
type Line struct {
	Text     string
	Start    float64
	End      float64
	Words    []sceneplan.Word
	Spans    []Span
	Overflow bool
}

// Span is a byte range [Start, End) of a line's text.
type Span struct {
	Start int
	End   int
}

// WordSpan returns the text range of word i, or NoHighlight when the line
// has no such word.
func (l Line) WordSpan(i int) Span {
	if i < 0 || i >= len(l.Spans) {
		return NoHighlight
	}
	return l.Spans[i]
}

// FitFunc reports whether text fits the available width.
type FitFunc func(text string) bool

// SegmentOptions tunes line breaking.
type SegmentOptions struct {
	// AllowPartialSentences lets a line run on past the end of a sentence.
	AllowPartialSentences bool
}

// Segment breaks words into lines greedily. A word joins the current line
// when the joined text still fits and the join does not carry a finished
// sentence into the next one; otherwise the line is closed and the word
// starts a new one. A word that does not fit alone still gets its own line.
func Segment(words []sceneplan.Word, fits FitFunc, opts SegmentOptions) []Line {
	var (
		lines  []Line
		cur    Line
		tokens []string
	)
	flush := func() {
		if len(cur.Words) > 0 {
			cur.Text = strings.Join(tokens, " ")
			offset := 0
			for _, tok := range tokens {
				cur.Spans = append(cur.Spans, Span{Start: offset, End: offset + len(tok)})
				offset += len(tok) + 1
			}
			lines = append(lines, cur)
		}
		cur = Line{}
		tokens = nil
	}
	start := func(w sceneplan.Word, text string) {
		cur = Line{Start: w.Start, End: w.End, Words: []sceneplan.Word{w}}
		tokens = []string{text}
		if !fits(text) {
			cur.Overflow = true
		}
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		if len(cur.Words) == 0 {
			start(w, text)
			continue
		}
		candidate := append(append([]string(nil), tokens...), text)
		if !cur.Overflow && fits(strings.Join(candidate, " ")) &&
			(opts.AllowPartialSentences || !HasPartialSentence(candidate)) {
			cur.Words = append(cur.Words, w)
			tokens = candidate
			if w.End > cur.End {
				cur.End = w.End
			}
			continue
		}
		flush()
		start(w, text)
	}
	flush()
	return lines
}

// HasPartialSentence reports whether the second-to-last token already ends
// a sentence, meaning the last token opens a new one.
func HasPartialSentence(tokens []string) bool {
	if len(tokens) < 2 {
		return false
	}
	prev := strings.TrimRight(tokens[len(tokens)-2], "\"')]}»”’")
	if prev == "" {
		return false
	}
	switch prev[len(prev)-1] {
	case '.', '!', '?':
		return true
	}
	return strings.HasSuffix(prev, "…")
}

// WrapText breaks free text into lines that fit, keeping whole words.
func WrapText(text string, fits FitFunc) []string {
	fields := strings.Fields(text)
	words := make([]sceneplan.Word, len(fields))
	for i, f := range fields {
		words[i] = sceneplan.Word{Word: f}
	}
	lines := Segment(words, fits, SegmentOptions{AllowPartialSentences: true})
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.Text
	}
	return out
}
