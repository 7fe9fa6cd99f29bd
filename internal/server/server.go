package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/go-wordlens/internal/config"
	"github.com/example/go-wordlens/internal/lookup"
	"github.com/example/go-wordlens/internal/text"
	"github.com/example/go-wordlens/internal/tokencache"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// TokenSource tokenizes text, possibly from a cache.
type TokenSource interface {
	Tokens(s string) []text.Token
}

// Lookuper translates the word at a segment index.
type Lookuper interface {
	LookupAt(ctx context.Context, src string, index int) (lookup.Result, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
	registry       *prometheus.Registry
	cacheStats     func() tokencache.Stats
}

func defaultOptions() options {
	return options{
		maxTextBytes:   16384,
		workers:        4,
		requestTimeout: 10 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of requests processed at once.
// Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request lookup deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry sets the Prometheus registry metrics are registered in and
// served from. By default each handler gets its own registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithCacheStats exports the token cache counters returned by fn on
// /metrics.
func WithCacheStats(fn func() tokencache.Stats) Option {
	return func(o *options) { o.cacheStats = fn }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	tokens   TokenSource
	lookuper Lookuper
	opts     options
	sem      chan struct{} // semaphore for worker pool
	log      *slog.Logger
	metrics  *metrics
}

// NewHandler returns an http.Handler serving /health, /metrics and the
// POST endpoints /tokenize, /context, /sentences and /lookup. A nil
// lookuper makes /lookup answer 501.
func NewHandler(tokens TokenSource, lookuper Lookuper, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.registry == nil {
		opts.registry = prometheus.NewRegistry()
	}

	h := &handler{
		tokens:   tokens,
		lookuper: lookuper,
		opts:     opts,
		log:      opts.logger,
		metrics:  newMetrics(opts.registry, opts.cacheStats),
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /tokenize", h.instrument("tokenize", h.handleTokenize))
	mux.HandleFunc("POST /context", h.instrument("context", h.handleContext))
	mux.HandleFunc("POST /sentences", h.instrument("sentences", h.handleSentences))
	mux.HandleFunc("POST /lookup", h.instrument("lookup", h.handleLookup))
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

// instrument wraps a POST handler with a worker slot, a request ID, metrics
// and a completion log line.
func (h *handler) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		// Acquire a worker slot, honouring cancellation while waiting.
		if h.sem != nil {
			select {
			case h.sem <- struct{}{}:
			case <-ctx.Done():
				writeError(rec, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
				h.observe(ctx, route, rec.status, start)
				return
			}
			defer func() { <-h.sem }()
		}
		h.metrics.inFlight.Inc()
		defer h.metrics.inFlight.Dec()

		next(rec, r.WithContext(ctx))
		h.observe(ctx, route, rec.status, start)
	}
}

func (h *handler) observe(ctx context.Context, route string, status int, start time.Time) {
	elapsed := time.Since(start)
	h.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	h.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())

	reqID, _ := ctx.Value(requestIDKey{}).(string)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.log.Log(ctx, level, "request complete",
		slog.String("request_id", reqID),
		slog.String("route", route),
		slog.Int("status", status),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

type textRequest struct {
	Text  string `json:"text"`
	Index *int   `json:"index"`
}

// decodeText reads a textRequest and enforces the size limit. It writes the
// error response itself and reports whether the caller should continue.
func (h *handler) decodeText(w http.ResponseWriter, r *http.Request, needIndex bool) (textRequest, bool) {
	var req textRequest

	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return req, false
	}

	// Leave room for JSON framing and escapes around the text itself.
	body := http.MaxBytesReader(w, r.Body, int64(2*h.opts.maxTextBytes+1024))
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return req, false
	}

	if needIndex && req.Index == nil {
		writeError(w, http.StatusBadRequest, "index field is required")
		return req, false
	}

	return req, true
}

type tokenizeResponse struct {
	Tokens []text.Token `json:"tokens"`
	Count  int          `json:"count"`
	Words  int          `json:"words"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r, false)
	if !ok {
		return
	}

	tokens := h.tokens.Tokens(req.Text)
	if tokens == nil {
		tokens = []text.Token{}
	}
	words := 0
	for _, tok := range tokens {
		if tok.IsWord() {
			words++
		}
	}
	h.metrics.tokens.Add(float64(len(tokens)))

	writeJSON(w, http.StatusOK, tokenizeResponse{Tokens: tokens, Count: len(tokens), Words: words})
}

type contextResponse struct {
	Index    int    `json:"index"`
	Sentence string `json:"sentence"`
}

func (h *handler) handleContext(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r, true)
	if !ok {
		return
	}

	sentence, err := text.SentenceContextOf(h.tokens.Tokens(req.Text), *req.Index)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, contextResponse{Index: *req.Index, Sentence: sentence})
}

type sentencesResponse struct {
	Sentences []text.Sentence `json:"sentences"`
}

func (h *handler) handleSentences(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r, false)
	if !ok {
		return
	}

	sentences := text.SplitSentences(req.Text)
	if sentences == nil {
		sentences = []text.Sentence{}
	}
	writeJSON(w, http.StatusOK, sentencesResponse{Sentences: sentences})
}

func (h *handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	if h.lookuper == nil {
		h.metrics.lookups.WithLabelValues("disabled").Inc()
		writeError(w, http.StatusNotImplemented, lookup.ErrNoTranslator.Error())
		return
	}

	req, ok := h.decodeText(w, r, true)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	res, err := h.lookuper.LookupAt(ctx, req.Text, *req.Index)
	if err != nil {
		status, outcome := lookupStatus(err)
		h.metrics.lookups.WithLabelValues(outcome).Inc()
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(ctx, "lookup failed",
				slog.Int("index", *req.Index),
				slog.Int("text_len", len(req.Text)),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, status, err.Error())
		return
	}

	h.metrics.lookups.WithLabelValues("found").Inc()
	writeJSON(w, http.StatusOK, res)
}

func lookupStatus(err error) (int, string) {
	switch {
	case errors.Is(err, text.ErrIndexOutOfRange):
		return http.StatusBadRequest, "bad_index"
	case errors.Is(err, lookup.ErrNotWord):
		return http.StatusUnprocessableEntity, "not_word"
	case errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, lookup.ErrNoTranslator):
		return http.StatusNotImplemented, "disabled"
	case errors.Is(err, lookup.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	svc             *lookup.Service
	shutdownTimeout time.Duration
}

// New returns a Server. When svc is nil, Start builds one from cfg.
func New(cfg config.Config, svc *lookup.Service) *Server {
	return &Server{
		cfg:             cfg,
		svc:             svc,
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler builds the HTTP handler for the server's configuration.
func (s *Server) Handler() (http.Handler, error) {
	svc := s.svc
	if svc == nil {
		var err error
		svc, err = BuildService(s.cfg, slog.Default())
		if err != nil {
			return nil, err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handlerOpts := []Option{
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second),
		WithRegistry(reg),
		WithCacheStats(svc.CacheStats),
	}

	var lk Lookuper
	if svc.Backend() != "" {
		lk = svc
	}
	return NewHandler(svc, lk, handlerOpts...), nil
}

func (s *Server) Start(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	slog.Info("server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}

// BuildService assembles the token cache and the configured translator.
func BuildService(cfg config.Config, logger *slog.Logger) (*lookup.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := tokencache.New(cfg.Cache.Size)
	if err != nil {
		return nil, err
	}

	backend, err := config.NormalizeBackend(cfg.Lookup.Backend)
	if err != nil {
		return nil, err
	}

	source, target := cfg.Lookup.Source, cfg.Lookup.Target

	var tr lookup.Translator
	switch backend {
	case config.BackendNone:
	case config.BackendGlossary:
		g, err := lookup.LoadGlossary(cfg.Lookup.GlossaryPath)
		if err != nil {
			return nil, fmt.Errorf("initialize glossary backend: %w", err)
		}
		source, target = glossaryLanguages(g, source, target)
		tr = g
	case config.BackendHTTP:
		ht, err := lookup.NewHTTPTranslator(lookup.HTTPConfig{
			Endpoint:   cfg.Lookup.Endpoint,
			Timeout:    time.Duration(cfg.Lookup.Timeout) * time.Second,
			MaxRetries: cfg.Lookup.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize http backend: %w", err)
		}
		tr = ht
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}

	return lookup.NewService(tr, cache,
		lookup.WithLanguages(source, target),
		lookup.WithConcurrency(cfg.Server.Workers),
		lookup.WithLogger(logger),
	), nil
}

// glossaryLanguages fills an unset ("" or "auto") language from the
// glossary's own header.
func glossaryLanguages(g *lookup.Glossary, source, target string) (string, string) {
	gs, gt := g.Languages()
	if (source == "" || source == "auto") && gs != "" {
		source = gs
	}
	if (target == "" || target == "auto") && gt != "" {
		target = gt
	}
	return source, target
}
