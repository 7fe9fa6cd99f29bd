// Package doctor provides environment preflight checks for wordlens.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/go-wordlens/internal/config"
	"github.com/example/go-wordlens/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// selfTestSample exercises word, punct-glued and contraction segments.
const selfTestSample = "Hello, world! It's 2025."

// Config holds the lookup settings under test and injectable dependencies
// for each check.
type Config struct {
	Backend      string
	GlossaryPath string
	Endpoint     string

	// LoadGlossary loads the glossary at path and returns its entry count.
	// Nil skips the glossary check.
	LoadGlossary func(path string) (int, error)
	// ProbeEndpoint checks that the remote translator answers.
	// Nil skips the endpoint check.
	ProbeEndpoint func(ctx context.Context, endpoint string) error
	// ProbeTimeout bounds ProbeEndpoint. Zero means 5s.
	ProbeTimeout time.Duration
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- tokenizer --------------------------------------------------------
	if err := SelfTest(); err != nil {
		res.fail(fmt.Sprintf("tokenizer self-test: %v", err))
		fmt.Fprintf(w, "%s tokenizer self-test: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s tokenizer self-test: ok\n", PassMark)
	}

	// ---- lookup backend ---------------------------------------------------
	backend, err := config.NormalizeBackend(cfg.Backend)
	if err != nil {
		res.fail(fmt.Sprintf("lookup backend: %v", err))
		fmt.Fprintf(w, "%s lookup backend: %v\n", FailMark, err)
		return res
	}
	fmt.Fprintf(w, "%s lookup backend: %s\n", PassMark, backend)

	switch backend {
	case config.BackendGlossary:
		checkGlossary(cfg, w, &res)
	case config.BackendHTTP:
		checkEndpoint(cfg, w, &res)
	}

	return res
}

func checkGlossary(cfg Config, w io.Writer, res *Result) {
	if cfg.LoadGlossary == nil {
		fmt.Fprintf(w, "%s glossary: skipped\n", PassMark)
		return
	}
	n, err := cfg.LoadGlossary(cfg.GlossaryPath)
	if err != nil {
		res.fail(fmt.Sprintf("glossary %q: %v", cfg.GlossaryPath, err))
		fmt.Fprintf(w, "%s glossary %s: %v\n", FailMark, cfg.GlossaryPath, err)
		return
	}
	fmt.Fprintf(w, "%s glossary: %s (%d entries)\n", PassMark, cfg.GlossaryPath, n)
}

func checkEndpoint(cfg Config, w io.Writer, res *Result) {
	if cfg.Endpoint == "" {
		res.fail("lookup endpoint: not configured")
		fmt.Fprintf(w, "%s lookup endpoint: not configured\n", FailMark)
		return
	}
	if cfg.ProbeEndpoint == nil {
		fmt.Fprintf(w, "%s lookup endpoint: skipped\n", PassMark)
		return
	}

	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := cfg.ProbeEndpoint(ctx, cfg.Endpoint); err != nil {
		res.fail(fmt.Sprintf("lookup endpoint %q: %v", cfg.Endpoint, err))
		fmt.Fprintf(w, "%s lookup endpoint %s: unreachable (%v)\n", FailMark, cfg.Endpoint, err)
		return
	}
	fmt.Fprintf(w, "%s lookup endpoint: %s\n", PassMark, cfg.Endpoint)
}

// SelfTest tokenizes a fixed sample and verifies the round-trip and the
// sentence context of a punctuated word.
func SelfTest() error {
	tokens := text.Tokenize(selfTestSample)
	if got := text.Reconstruct(tokens); got != selfTestSample {
		return fmt.Errorf("round-trip mismatch: got %q", got)
	}

	words := 0
	for _, tok := range tokens {
		if tok.IsWord() {
			words++
		}
	}
	if words != 4 {
		return fmt.Errorf("want 4 words, got %d", words)
	}

	ctx, err := text.SentenceContextOf(tokens, 2)
	if err != nil {
		return err
	}
	if ctx != selfTestSample {
		return fmt.Errorf("unexpected sentence context %q", ctx)
	}
	return nil
}

// HTTPProbe reports whether endpoint accepts connections. Any HTTP response
// counts as reachable since translators typically only accept POST.
func HTTPProbe(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
