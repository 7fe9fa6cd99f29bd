// Package lookup forwards a clicked word and its sentence to a translation
// backend.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-wordlens/internal/text"
	"github.com/example/go-wordlens/internal/tokencache"
)

var (
	// ErrNotFound is returned when a backend has no translation for a word.
	ErrNotFound = errors.New("translation not found")
	// ErrNotWord is returned when the addressed token is whitespace or punctuation.
	ErrNotWord = errors.New("token is not a word")
	// ErrNoTranslator is returned when the service has no backend configured.
	ErrNoTranslator = errors.New("no translator configured")
	// ErrUnavailable is returned when a remote backend is refusing calls.
	ErrUnavailable = errors.New("translator unavailable")
)

// Request is what a Translator receives for one word.
type Request struct {
	Word    string `json:"word"`
	Context string `json:"context"`
	Source  string `json:"source"`
	Target  string `json:"target"`
}

// Translator resolves a normalized word, disambiguated by its sentence.
type Translator interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// Result is one resolved word.
type Result struct {
	SegmentIndex int    `json:"segmentIndex"`
	Word         string `json:"word"`
	Raw          string `json:"raw"`
	Context      string `json:"context"`
	Translation  string `json:"translation"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Backend      string `json:"backend"`
}

type options struct {
	source      string
	target      string
	concurrency int
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		source:      "auto",
		target:      "en",
		concurrency: 4,
		logger:      slog.Default(),
	}
}

// Option configures a Service.
type Option func(*options)

// WithLanguages sets the language pair sent with every request.
func WithLanguages(source, target string) Option {
	return func(o *options) {
		o.source = source
		o.target = target
	}
}

// WithConcurrency bounds the number of in-flight backend calls in LookupAll.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithLogger sets the logger used for lookup diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Service tokenizes text, extracts sentence context and calls a Translator.
type Service struct {
	tr    Translator
	cache *tokencache.Cache
	opts  options
}

// NewService returns a Service. A nil cache tokenizes on every call; a nil
// translator makes every lookup fail with ErrNoTranslator.
func NewService(tr Translator, cache *tokencache.Cache, optFns ...Option) *Service {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.concurrency <= 0 {
		opts.concurrency = 1
	}
	return &Service{tr: tr, cache: cache, opts: opts}
}

// Backend returns the translator name, or "" when none is configured.
func (s *Service) Backend() string {
	if s.tr == nil {
		return ""
	}
	return s.tr.Name()
}

// CacheStats reports the token cache counters. A service without a cache
// reports zeros.
func (s *Service) CacheStats() tokencache.Stats {
	if s.cache == nil {
		return tokencache.Stats{}
	}
	return s.cache.Stats()
}

// Tokens returns the tokenization of src, going through the cache if any.
func (s *Service) Tokens(src string) []text.Token {
	if s.cache != nil {
		return s.cache.Tokens(src)
	}
	return text.Tokenize(src)
}

// LookupAt translates the word token at index in src.
func (s *Service) LookupAt(ctx context.Context, src string, index int) (Result, error) {
	return s.lookup(ctx, s.Tokens(src), index)
}

// LookupAll translates every distinct word of src once, in order of first
// occurrence. Words the backend does not know are left out.
func (s *Service) LookupAll(ctx context.Context, src string) ([]Result, error) {
	if s.tr == nil {
		return nil, ErrNoTranslator
	}

	tokens := s.Tokens(src)

	var targets []int
	seen := make(map[string]bool)
	for i, tok := range tokens {
		if !tok.IsWord() || seen[tok.NormalizedWord] {
			continue
		}
		seen[tok.NormalizedWord] = true
		targets = append(targets, i)
	}

	results := make([]Result, len(targets))
	found := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for i, idx := range targets {
		g.Go(func() error {
			res, err := s.lookup(gctx, tokens, idx)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = res
			found[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(results))
	for i, res := range results {
		if found[i] {
			out = append(out, res)
		}
	}

	s.opts.logger.DebugContext(ctx, "lookup batch complete",
		slog.Int("words", len(targets)),
		slog.Int("translated", len(out)),
		slog.String("backend", s.tr.Name()),
	)

	return out, nil
}

func (s *Service) lookup(ctx context.Context, tokens []text.Token, index int) (Result, error) {
	sentence, err := text.SentenceContextOf(tokens, index)
	if err != nil {
		return Result{}, err
	}

	tok := tokens[index]
	if !tok.IsWord() {
		return Result{}, fmt.Errorf("%w: segment %d is %s", ErrNotWord, index, tok.Kind)
	}
	if s.tr == nil {
		return Result{}, ErrNoTranslator
	}

	req := Request{
		Word:    tok.NormalizedWord,
		Context: sentence,
		Source:  s.opts.source,
		Target:  s.opts.target,
	}
	translation, err := s.tr.Translate(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("translate %q: %w", tok.NormalizedWord, err)
	}

	return Result{
		SegmentIndex: tok.SegmentIndex,
		Word:         tok.NormalizedWord,
		Raw:          tok.Raw,
		Context:      sentence,
		Translation:  translation,
		Source:       req.Source,
		Target:       req.Target,
		Backend:      s.tr.Name(),
	}, nil
}
