package lookup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator(t *testing.T, h http.HandlerFunc, cfg HTTPConfig) *HTTPTranslator {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg.Endpoint = srv.URL
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = time.Millisecond
	}
	tr, err := NewHTTPTranslator(cfg)
	require.NoError(t, err)
	return tr
}

func TestNewHTTPTranslator_RequiresEndpoint(t *testing.T) {
	_, err := NewHTTPTranslator(HTTPConfig{})
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestHTTPTranslator_Success(t *testing.T) {
	var got Request
	tr := newTestTranslator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"translation":"monde"}`))
	}, HTTPConfig{})

	req := Request{Word: "world", Context: "Hello, world!", Source: "en", Target: "fr"}
	out, err := tr.Translate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "monde", out)
	assert.Equal(t, req, got)
	assert.Equal(t, "http", tr.Name())
}

func TestHTTPTranslator_NotFound(t *testing.T) {
	var calls atomic.Int32
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, HTTPConfig{MaxRetries: 3})

	_, err := tr.Translate(context.Background(), Request{Word: "zzz"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPTranslator_EmptyTranslationIsNotFound(t *testing.T) {
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translation":""}`))
	}, HTTPConfig{})

	_, err := tr.Translate(context.Background(), Request{Word: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPTranslator_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"translation":"ok"}`))
	}, HTTPConfig{MaxRetries: 3})

	out, err := tr.Translate(context.Background(), Request{Word: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPTranslator_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad language pair", http.StatusBadRequest)
	}, HTTPConfig{MaxRetries: 3})

	_, err := tr.Translate(context.Background(), Request{Word: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad language pair")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPTranslator_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, HTTPConfig{TripAfter: 2, OpenFor: time.Minute})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := tr.Translate(ctx, Request{Word: "x"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := tr.Translate(ctx, Request{Word: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPTranslator_NotFoundDoesNotTripBreaker(t *testing.T) {
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, HTTPConfig{TripAfter: 1})

	for i := 0; i < 3; i++ {
		_, err := tr.Translate(context.Background(), Request{Word: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestHTTPTranslator_CancelledCallsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	tr := newTestTranslator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"translation":"monde"}`))
	}, HTTPConfig{TripAfter: 1, OpenFor: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := tr.Translate(ctx, Request{Word: "world"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	out, err := tr.Translate(context.Background(), Request{Word: "world"})
	require.NoError(t, err)
	assert.Equal(t, "monde", out)
	assert.Equal(t, int32(1), calls.Load())
}
