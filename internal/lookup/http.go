package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// ErrNoEndpoint is returned by NewHTTPTranslator when no endpoint is set.
var ErrNoEndpoint = errors.New("translator endpoint is empty")

// errUpstream marks responses worth retrying.
var errUpstream = errors.New("translator upstream error")

// HTTPConfig configures an HTTPTranslator.
type HTTPConfig struct {
	// Endpoint receives a JSON POST of Request and answers {"translation": "..."}.
	Endpoint string
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// TripAfter consecutive failures opens the circuit breaker.
	TripAfter uint32
	// OpenFor is how long the breaker stays open before probing again.
	OpenFor time.Duration

	Client *http.Client
	Logger *slog.Logger
}

func (c *HTTPConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.TripAfter == 0 {
		c.TripAfter = 5
	}
	if c.OpenFor <= 0 {
		c.OpenFor = 30 * time.Second
	}
	if c.Client == nil {
		c.Client = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// HTTPTranslator calls a remote translation endpoint with retries behind a
// circuit breaker.
type HTTPTranslator struct {
	cfg     HTTPConfig
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPTranslator validates cfg and returns a translator.
func NewHTTPTranslator(cfg HTTPConfig) (*HTTPTranslator, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	cfg.applyDefaults()

	logger := cfg.Logger
	tripAfter := cfg.TripAfter
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "translator",
		Timeout: cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// A miss or a caller cancellation says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &HTTPTranslator{cfg: cfg, breaker: breaker}, nil
}

func (t *HTTPTranslator) Name() string { return "http" }

// Translate posts req to the endpoint. A 404 or an empty translation maps to
// ErrNotFound; 429 and 5xx are retried.
func (t *HTTPTranslator) Translate(ctx context.Context, req Request) (string, error) {
	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.translateWithRetry(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (t *HTTPTranslator) translateWithRetry(ctx context.Context, req Request) (string, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = t.cfg.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(t.cfg.MaxRetries)), ctx)

	var translation string
	err := backoff.Retry(func() error {
		tr, err := t.do(ctx, req)
		if err == nil {
			translation = tr
			return nil
		}
		if errors.Is(err, errUpstream) {
			t.cfg.Logger.DebugContext(ctx, "translator attempt failed",
				slog.String("word", req.Word),
				slog.String("error", err.Error()),
			)
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return "", err
	}
	return translation, nil
}

type translateResponse struct {
	Translation string `json:"translation"`
}

func (t *HTTPTranslator) do(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.cfg.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: %s", errUpstream, resp.Status)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translator rejected request: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Translation == "" {
		return "", ErrNotFound
	}
	return out.Translation, nil
}
