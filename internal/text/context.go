package text

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIndexOutOfRange is returned when a sentence is requested for a segment
// that does not exist.
var ErrIndexOutOfRange = errors.New("segment index out of range")

// terminators is the complete set of sentence boundaries. Abbreviations and
// decimal points are not special-cased: "Dr. Smith" and "3.14" both split.
const terminators = ".!?"

func isTerminator(b byte) bool {
	return strings.IndexByte(terminators, b) >= 0
}

// SentenceContext returns the sentence enclosing segments[index] in the text
// formed by joining segments in order.
//
// The sentence starts after the nearest terminator left of the segment (or at
// the start of the text) and runs through the nearest terminator at or after
// the segment's end (or to the end of the text). The result is trimmed.
func SentenceContext(segments []string, index int) (string, error) {
	if index < 0 || index >= len(segments) {
		return "", fmt.Errorf("%w: index %d, %d segments", ErrIndexOutOfRange, index, len(segments))
	}

	var b strings.Builder
	var start, end int
	for i, seg := range segments {
		if i == index {
			start = b.Len()
			end = start + len(seg)
		}
		b.WriteString(seg)
	}

	return sentenceAround(b.String(), start, end), nil
}

// SentenceContextOf is SentenceContext over tokenizer output, where index is
// the target token's SegmentIndex.
//
// The target range is the token's full source text, glued punctuation
// included, so the result always contains the token. A terminator inside the
// token ("world!", "3.14") therefore never ends its sentence.
func SentenceContextOf(tokens []Token, index int) (string, error) {
	if index < 0 || index >= len(tokens) {
		return "", fmt.Errorf("%w: index %d, %d tokens", ErrIndexOutOfRange, index, len(tokens))
	}

	var b strings.Builder
	var start, end int
	for i, tok := range tokens {
		if i == index {
			start = b.Len()
			end = start + len(tok.Source())
		}
		b.WriteString(tok.Source())
	}

	return sentenceAround(b.String(), start, end), nil
}

func sentenceAround(s string, start, end int) string {
	from := strings.LastIndexAny(s[:start], terminators) + 1

	to := len(s)
	if i := strings.IndexAny(s[end:], terminators); i >= 0 {
		to = end + i + 1
	}

	return strings.TrimFunc(s[from:to], isSpace)
}
