package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
	appweb "kakeibo/web"
)

// LedgerProvider is the slice of the ledger service the handlers need.
type LedgerProvider interface {
	ReadLedger(ctx context.Context) ([]core.Transaction, bool)
	AppendTransaction(ctx context.Context, tx core.Transaction) (string, error)
	Suggestions(ctx context.Context) ([]string, []string)
}

// ledgerCacheKey is the single key for the full-collection cache. The
// dashboard always aggregates the whole ledger, so there is nothing to
// key by.
const ledgerCacheKey = "ledger"

type Server struct {
	http.Server
	templates   *template.Template
	ledger      LedgerProvider
	logger      *slog.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Full-collection cache so each partial does not re-read the store.
	ledgerCache  *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledger LedgerProvider) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       ledger,
		logger:       applog.ForComponent(applog.ComponentHTTP),
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{startedAt: time.Now()},
		ledgerCache:  cache.NewLRUCache[[]core.Transaction](4, 30*time.Second),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.ledgerCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	// UI partials
	mux.HandleFunc("/ui/balances", s.withSecurityHeaders(s.handleBalances))
	mux.HandleFunc("/ui/daily", s.withSecurityHeaders(s.handleDailyExpenses))
	mux.HandleFunc("/ui/month", s.withSecurityHeaders(s.handleMonthBreakdown))
	mux.HandleFunc("/ui/history", s.withSecurityHeaders(s.handleHistory))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// readLedger returns the cached full collection, falling back to the
// service. The degraded flag is not cached so a recovered store shows
// data on the next miss.
func (s *Server) readLedger(ctx context.Context) ([]core.Transaction, bool) {
	if txs, found := s.ledgerCache.Get(ledgerCacheKey); found {
		return txs, false
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	txs, degraded := s.ledger.ReadLedger(cctx)
	if !degraded {
		s.ledgerCache.Set(ledgerCacheKey, txs)
	}
	return txs, degraded
}

func (s *Server) invalidateLedger() {
	s.ledgerCache.Delete(ledgerCacheKey)
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit writes only, reads are cheap and cached.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
