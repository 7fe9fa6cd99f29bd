package text

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyText is returned by callers that require non-blank input.
var ErrEmptyText = errors.New("text is empty")

// isSpace matches the ECMAScript \s class: Unicode White_Space without
// U+0085 (NEL), plus the zero-width no-break space.
func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// IsBlank reports whether s is empty or consists only of whitespace.
func IsBlank(s string) bool {
	return strings.TrimFunc(s, isSpace) == ""
}

// RequireText returns ErrEmptyText when s is blank and s unchanged otherwise.
// s is never rewritten: token indices must stay valid against the original.
func RequireText(s string) (string, error) {
	if IsBlank(s) {
		return "", ErrEmptyText
	}
	return s, nil
}
