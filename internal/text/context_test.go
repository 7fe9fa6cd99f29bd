package text

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

var helloSegments = []string{"Hello", ", ", "world", "! ", "This", " ", "is", " ", "fine", "."}

func TestSentenceContext(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		index    int
		want     string
	}{
		{"first sentence from middle word", helloSegments, 2, "Hello, world!"},
		{"first sentence from first word", helloSegments, 0, "Hello, world!"},
		{"second sentence", helloSegments, 8, "This is fine."},
		{"terminator element belongs to its sentence", helloSegments, 9, "This is fine."},
		{"terminator before the target is not scanned right", helloSegments, 3, "Hello, world! This is fine."},
		{"no terminator runs to the end", []string{"no", " ", "end"}, 2, "no end"},
		{"question mark", []string{"Why", " ", "not", "? ", "Sure", "."}, 4, "Sure."},
		{"inner whitespace kept", []string{"a", "\n\n", "b", "!"}, 0, "a\n\nb!"},
		{"single element", []string{"  lone  "}, 0, "lone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SentenceContext(tt.segments, tt.index)
			if err != nil {
				t.Fatalf("SentenceContext: %v", err)
			}
			if got != tt.want {
				t.Errorf("SentenceContext(%q, %d) = %q, want %q", tt.segments, tt.index, got, tt.want)
			}
		})
	}
}

func TestSentenceContext_OutOfRange(t *testing.T) {
	for _, idx := range []int{-1, len(helloSegments), 100} {
		_, err := SentenceContext(helloSegments, idx)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SentenceContext(index=%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	if _, err := SentenceContext(nil, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("SentenceContext(nil, 0) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSentenceContextOf(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		index int
		want  string
	}{
		{"word with glued terminator", "Hello, world! This is fine.", 2, "Hello, world! This is fine."},
		{"word with glued comma", "Hello, world! This is fine.", 0, "Hello, world!"},
		{"last word", "Hello, world! This is fine.", 8, "This is fine."},
		{"whitespace after terminator", "Hello, world! This is fine.", 3, "This is fine."},
		{"abbreviation splits", "Dr. Smith arrived.", 2, "Smith arrived."},
		{"decimal splits", "Pi is 3.14 roughly.", 6, "14 roughly."},
		{"decimal target keeps whole number", "Pi is 3.14 roughly.", 4, "Pi is 3.14 roughly."},
		{"abbreviation target keeps whole token", "See e.g. this one.", 2, "See e.g. this one."},
		{"glued terminator in final sentence", "Go. Stop! Now?", 2, "Stop! Now?"},
		{"contraction", "Well. It's late! Go.", 2, "It's late!"},
		{"punct token", "Wait — what? Nothing.", 2, "Wait — what?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Tokenize(tt.text)
			got, err := SentenceContextOf(tokens, tt.index)
			if err != nil {
				t.Fatalf("SentenceContextOf: %v", err)
			}
			if got != tt.want {
				t.Errorf("SentenceContextOf(%q, %d) = %q, want %q", tt.text, tt.index, got, tt.want)
			}
		})
	}
}

func TestSentenceContextOf_ContainsTarget(t *testing.T) {
	for _, s := range []string{
		"Hello, world! This is fine.",
		"Pi is 3.14 roughly. See e.g. this one.",
		"Wait... what?! No.",
		"(quoted.) \"Yes!\" she said.",
	} {
		tokens := Tokenize(s)
		for i, tok := range tokens {
			if tok.Kind == KindWhitespace {
				continue
			}
			got, err := SentenceContextOf(tokens, i)
			if err != nil {
				t.Fatalf("SentenceContextOf(%q, %d): %v", s, i, err)
			}
			if !strings.Contains(got, tok.Source()) {
				t.Errorf("SentenceContextOf(%q, %d) = %q, does not contain %q", s, i, got, tok.Source())
			}
		}
	}
}

func FuzzSentenceContextOf(f *testing.F) {
	for _, seed := range []string{
		"Hello, world! This is fine.",
		"Pi is 3.14 roughly.",
		"See e.g. this one.",
		"?!. ... a.b.c",
		"\xff. broken!",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		tokens := Tokenize(s)
		for i, tok := range tokens {
			got, err := SentenceContextOf(tokens, i)
			if err != nil {
				t.Fatalf("SentenceContextOf(%q, %d): %v", s, i, err)
			}
			if !strings.Contains(s, got) {
				t.Fatalf("sentence %q is not a substring of %q", got, s)
			}
			if tok.Kind != KindWhitespace && !strings.Contains(got, tok.Source()) {
				t.Fatalf("SentenceContextOf(%q, %d) = %q, does not contain %q", s, i, got, tok.Source())
			}
		}
	})
}

func TestSentenceContextOf_OutOfRange(t *testing.T) {
	tokens := Tokenize("One two.")
	for _, idx := range []int{-1, len(tokens)} {
		if _, err := SentenceContextOf(tokens, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SentenceContextOf(index=%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	if _, err := SentenceContextOf(Tokenize("   "), 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("blank text: error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSentenceContextOf_IdempotentAndPure(t *testing.T) {
	tokens := Tokenize("First one. Second one! Third?")
	before := slices.Clone(tokens)

	a, err := SentenceContextOf(tokens, 4)
	if err != nil {
		t.Fatalf("SentenceContextOf: %v", err)
	}
	b, err := SentenceContextOf(tokens, 4)
	if err != nil {
		t.Fatalf("SentenceContextOf: %v", err)
	}

	if a != b {
		t.Errorf("repeated calls differ: %q vs %q", a, b)
	}
	if a != "Second one!" {
		t.Errorf("SentenceContextOf = %q, want %q", a, "Second one!")
	}
	if !slices.Equal(tokens, before) {
		t.Error("SentenceContextOf mutated its input")
	}
}
