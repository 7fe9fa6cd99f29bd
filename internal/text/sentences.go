package text

import "strings"

// Sentence is one piece of SplitSentences output. Start and End are byte
// offsets of Text within the input.
type Sentence struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SplitSentences splits s after every sentence terminator, keeping the
// terminator attached to its sentence. Pieces are trimmed and empty pieces
// are dropped.
func SplitSentences(s string) []Sentence {
	var sentences []Sentence
	start := 0

	for i := 0; i < len(s); i++ {
		if isTerminator(s[i]) {
			sentences = appendTrimmed(sentences, s, start, i+1)
			start = i + 1
		}
	}

	// Trailing text after the last terminator (if any).
	if start < len(s) {
		sentences = appendTrimmed(sentences, s, start, len(s))
	}

	return sentences
}

func appendTrimmed(dst []Sentence, s string, start, end int) []Sentence {
	piece := s[start:end]
	left := strings.TrimLeftFunc(piece, isSpace)
	trimmed := strings.TrimRightFunc(left, isSpace)
	if trimmed == "" {
		return dst
	}
	from := start + len(piece) - len(left)
	return append(dst, Sentence{Text: trimmed, Start: from, End: from + len(trimmed)})
}
