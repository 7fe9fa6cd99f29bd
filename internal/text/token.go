// Package text turns free-form reading text into addressable tokens and
// recovers the sentence surrounding any one of them.
//
// Both entry points, Tokenize and SentenceContextOf, are pure functions of
// their arguments and are safe for concurrent use.
//
// Segment indices are dense: a token's SegmentIndex is its position in the
// Tokenize result, whitespace tokens included, starting at 0 even when the
// text opens with whitespace. No index is reserved for an empty leading
// segment. The index callers send to SentenceContextOf, the HTTP API and
// the CLI is this same number.
package text

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind discriminates the three token variants.
type Kind uint8

const (
	KindWhitespace Kind = iota + 1
	KindPunct
	KindWord
)

func (k Kind) String() string {
	switch k {
	case KindWhitespace:
		return "whitespace"
	case KindPunct:
		return "punct"
	case KindWord:
		return "word"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindWhitespace, KindPunct, KindWord:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown token kind %d", uint8(k))
	}
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "whitespace":
		*k = KindWhitespace
	case "punct":
		*k = KindPunct
	case "word":
		*k = KindWord
	default:
		return fmt.Errorf("unknown token kind %q", b)
	}
	return nil
}

// Token is one segment of the input. Which fields are meaningful depends on
// Kind:
//
//	KindWhitespace, KindPunct: Text
//	KindWord:                  Raw, CleanWord, NormalizedWord, Punctuation
//
// SegmentIndex is the token's position among all segments of the input and
// is the key SentenceContextOf addresses tokens by. It is not a byte offset.
type Token struct {
	Kind         Kind
	SegmentIndex int

	Text string

	Raw            string
	CleanWord      string
	NormalizedWord string
	Punctuation    string
}

// IsWord reports whether the token is a word variant.
func (t Token) IsWord() bool { return t.Kind == KindWord }

// Source returns the exact slice of input the token was produced from.
func (t Token) Source() string {
	if t.Kind == KindWord {
		return t.Raw
	}
	return t.Text
}

type wireToken struct {
	Type           Kind    `json:"type"`
	SegmentIndex   int     `json:"segmentIndex"`
	Text           *string `json:"text,omitempty"`
	Raw            *string `json:"raw,omitempty"`
	CleanWord      *string `json:"cleanWord,omitempty"`
	NormalizedWord *string `json:"normalizedWord,omitempty"`
	Punctuation    *string `json:"punctuation,omitempty"`
}

// MarshalJSON emits only the fields of the token's variant.
func (t Token) MarshalJSON() ([]byte, error) {
	w := wireToken{Type: t.Kind, SegmentIndex: t.SegmentIndex}
	if t.Kind == KindWord {
		w.Raw, w.CleanWord = &t.Raw, &t.CleanWord
		w.NormalizedWord, w.Punctuation = &t.NormalizedWord, &t.Punctuation
	} else {
		w.Text = &t.Text
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the shape written by MarshalJSON.
func (t *Token) UnmarshalJSON(b []byte) error {
	var w wireToken
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = Token{Kind: w.Type, SegmentIndex: w.SegmentIndex}
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	if w.Type == KindWord {
		t.Raw = deref(w.Raw)
		t.CleanWord = deref(w.CleanWord)
		t.NormalizedWord = deref(w.NormalizedWord)
		t.Punctuation = deref(w.Punctuation)
		return nil
	}
	t.Text = deref(w.Text)
	return nil
}

// Tokenize splits s into whitespace runs and the material between them and
// classifies each segment. Blank input yields an empty result.
//
// Concatenating Source() of every returned token reproduces s exactly.
func Tokenize(s string) []Token {
	if IsBlank(s) {
		return nil
	}

	lower := cases.Lower(language.Und)
	var tokens []Token

	for start := 0; start < len(s); {
		r, size := utf8.DecodeRuneInString(s[start:])
		space := isSpace(r)
		end := start + size
		for end < len(s) {
			r, size = utf8.DecodeRuneInString(s[end:])
			if isSpace(r) != space {
				break
			}
			end += size
		}

		tokens = append(tokens, classify(len(tokens), s[start:end], lower))
		start = end
	}

	return tokens
}

// Classify builds the token for a single non-empty segment at the given
// segment index.
func Classify(index int, segment string) Token {
	return classify(index, segment, cases.Lower(language.Und))
}

func classify(index int, seg string, lower cases.Caser) Token {
	if strings.TrimFunc(seg, isSpace) == "" {
		return Token{Kind: KindWhitespace, SegmentIndex: index, Text: seg}
	}

	n := wordPrefixLen(seg)
	if n == 0 {
		return Token{Kind: KindPunct, SegmentIndex: index, Text: seg}
	}

	clean := seg[:n]
	return Token{
		Kind:           KindWord,
		SegmentIndex:   index,
		Raw:            seg,
		CleanWord:      clean,
		NormalizedWord: lower.String(clean),
		Punctuation:    seg[n:],
	}
}

// wordPrefixLen returns the byte length of the leading run of letters,
// numbers and apostrophes in seg.
func wordPrefixLen(seg string) int {
	n := 0
	for n < len(seg) {
		r, size := utf8.DecodeRuneInString(seg[n:])
		if !isWordRune(r) {
			break
		}
		n += size
	}
	return n
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' || r == '’'
}

// Reconstruct concatenates the source text of tokens in order.
func Reconstruct(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Source())
	}
	return b.String()
}
