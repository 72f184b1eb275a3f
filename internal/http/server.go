package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"moneybook/internal/cache"
	"moneybook/internal/ledger"
	"moneybook/internal/locale"
	applog "moneybook/internal/log"
	"moneybook/internal/middleware/ratelimit"
	"moneybook/internal/middleware/security"
	"moneybook/internal/middleware/trace"
	"moneybook/internal/notify"
	"moneybook/internal/presenter"
	"moneybook/internal/services"
	appweb "moneybook/web"
)

// ServerConfig holds what the HTTP layer needs beyond the ledger itself.
type ServerConfig struct {
	Addr               string
	RateLimitPerMinute int
	NotifyDuration     time.Duration
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.TransactionService
	store     *ledger.Store
	presenter *presenter.Presenter
	catalog   locale.Catalog

	notifyDuration time.Duration

	// Rendered views keyed by store revision; a mutation bumps the
	// revision so stale entries are never read again.
	listCache    *cache.LRUCache[presenter.ListView]
	summaryCache *cache.LRUCache[presenter.SummaryView]
	cacheManager *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *applog.Logger
	events   *applog.StructuredLogger

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates.
func NewServer(cfg ServerConfig, svc *services.TransactionService, p *presenter.Presenter) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	if cfg.NotifyDuration <= 0 {
		cfg.NotifyDuration = notify.DefaultDuration
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:      t,
		svc:            svc,
		store:          svc.Store(),
		presenter:      p,
		catalog:        p.Catalog(),
		notifyDuration: cfg.NotifyDuration,
		listCache:      cache.NewLRUCache[presenter.ListView](16, 10*time.Minute),
		summaryCache:   cache.NewLRUCache[presenter.SummaryView](16, 10*time.Minute),
		cacheManager:   cache.NewManager(logger.Slog()),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		detector: security.NewDetector(logger.Slog()),
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger.Slog())
	s.cacheManager.Register(s.listCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions/{id}/confirm", s.handleConfirmDelete)
	mux.HandleFunc("POST /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	// UI partials
	mux.HandleFunc("GET /ui/transactions", s.handleTransactionsPartial)
	mux.HandleFunc("GET /ui/summary", s.handleSummaryPartial)
	mux.HandleFunc("GET /ui/form", s.handleFormPartial)

	mux.HandleFunc("GET /api/transactions", s.handleAPITransactions)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// middleware wraps h, outermost first: headers, tracing, request
// screening, request-scoped logger, then the mutation rate limit.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited, http.MethodPost, http.MethodDelete)(h)
	withLogger := applog.Middleware(s.logger)(applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(limited))
	screened := s.detector.Middleware(withLogger)
	traced := s.tracer.Middleware(screened)
	return security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(traced)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerNotification(notify.Warning, s.catalog.TooManyRequests, s.notifyDuration).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(s.catalog.TooManyRequests) + `</div>`).
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.listCache.Purge()
		s.summaryCache.Purge()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) revisionKey() string {
	return strconv.FormatUint(s.store.Revision(), 10)
}

// listView returns the newest-first list for the current revision.
func (s *Server) listView() presenter.ListView {
	return s.listCache.GetOrCompute(s.revisionKey(), func() presenter.ListView {
		return s.presenter.List(presenter.OrderForDisplay(s.store.Snapshot()))
	})
}

// summaryView returns both panels for the current revision.
func (s *Server) summaryView() presenter.SummaryView {
	return s.summaryCache.GetOrCompute(s.revisionKey(), func() presenter.SummaryView {
		return s.presenter.Summary(s.store.Summary())
	})
}

// render executes a named template into a buffer first so a failing
// template never leaves a half-written response.
func (s *Server) render(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed", "error", err, "template", name)
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
