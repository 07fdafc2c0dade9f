package captions

// Variant is one word-highlight rendering of a line: the full line text
// with only Word recolored, shown over [Start, End).
type Variant struct {
	Text  string
	Word  int
	Start float64
	End   float64
}

// ExplodeHighlights returns one variant per word of line. Each variant runs
// from its word's start to the next word's start, the last one to the end of
// the line, so together they cover the line's time range exactly once.
func ExplodeHighlights(line Line) []Variant {
	n := len(line.Words)
	if n == 0 {
		return nil
	}
	out := make([]Variant, 0, n)
	cursor := line.Start
	for i := range line.Words {
		end := line.End
		if i < n-1 {
			end = line.Words[i+1].Start
		}
		if end < cursor {
			end = cursor
		}
		if end > line.End {
			end = line.End
		}
		out = append(out, Variant{Text: line.Text, Word: i, Start: cursor, End: end})
		cursor = end
	}
	return out
}
