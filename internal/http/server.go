// Package http exposes the JSON API: transaction CRUD and import on the
// write side, dashboard aggregations and recurring payments on the read
// side. Read endpoints are cached per user with LRU+TTL caches that are
// invalidated by that user's writes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/importer"
	"fintrack/internal/insights"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// TrendExporter pushes monthly trend rows to an external spreadsheet.
type TrendExporter interface {
	ExportMonthlyTrend(ctx context.Context, userID int64, trend []insights.MonthPoint) error
}

// Deps collects everything the server needs. Exporter may be nil, which
// disables the export endpoint.
type Deps struct {
	Store        backend.Backend
	Transactions *services.TransactionService
	Detection    *services.DetectionService
	Importer     *importer.CSVImporter
	Aggregator   *insights.Aggregator
	Exporter     TrendExporter
	TrendMonths  int
}

type Server struct {
	http.Server

	store        backend.Backend
	transactions *services.TransactionService
	detection    *services.DetectionService
	importer     *importer.CSVImporter
	aggregator   *insights.Aggregator
	exporter     TrendExporter
	trendMonths  int

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	summaryCache *cache.LRUCache[insights.Summary]
	trendCache   *cache.LRUCache[[]insights.MonthPoint]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:        deps.Store,
		transactions: deps.Transactions,
		detection:    deps.Detection,
		importer:     deps.Importer,
		aggregator:   deps.Aggregator,
		exporter:     deps.Exporter,
		trendMonths:  deps.TrendMonths,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:       trace.NewMiddleware(trace.ClientIP),
		summaryCache: cache.NewLRUCache[insights.Summary](100, 5*time.Minute),
		trendCache:   cache.NewLRUCache[[]insights.MonthPoint](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	if s.trendMonths <= 0 {
		s.trendMonths = insights.DefaultTrendMonths
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.trendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/categories", s.withCommon(s.handleCategories))

	mux.HandleFunc("/api/transactions", s.withCommon(s.handleTransactions))
	mux.HandleFunc("/api/transactions/bulk", s.withCommon(s.handleBulkCreate))
	mux.HandleFunc("/api/transactions/", s.withCommon(s.handleTransactionByID))
	mux.HandleFunc("/api/import", s.withCommon(s.handleImportCSV))

	mux.HandleFunc("/api/dashboard", s.withCommon(s.handleDashboard))
	mux.HandleFunc("/api/insights", s.withCommon(s.handleInsights))
	mux.HandleFunc("/api/insights/breakdown", s.withCommon(s.handleBreakdown))
	mux.HandleFunc("/api/insights/trend", s.withCommon(s.handleTrend))
	mux.HandleFunc("/api/insights/weekly", s.withCommon(s.handleWeekly))

	mux.HandleFunc("/api/recurring", s.withCommon(s.handleRecurring))
	mux.HandleFunc("/api/recurring/detect", s.withCommon(s.handleDetect))

	mux.HandleFunc("/api/export/trend", s.withCommon(s.handleExportTrend))

	return s
}

// withCommon applies tracing, security headers and, for mutating
// methods, rate limiting keyed by caller identity.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	limited := s.limiter.Middleware(rateLimitKey, nil)
	mutating := limited(next)

	return func(w http.ResponseWriter, r *http.Request) {
		handler := http.Handler(next)
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			handler = mutating
		}

		s.tracer.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			handler.ServeHTTP(w, r)
		})).ServeHTTP(w, r)
	}
}

// rateLimitKey buckets by user when the header is present, falling back
// to the caller's address.
func rateLimitKey(r *http.Request) string {
	if user := r.Header.Get(userIDHeader); user != "" {
		return "user:" + user
	}
	return "ip:" + trace.ClientIP(r)
}

// invalidateUser drops every cached view for the user after a write.
func (s *Server) invalidateUser(id int64) {
	prefix := fmt.Sprintf("%d:", id)
	s.summaryCache.DeletePrefix(prefix)
	s.trendCache.DeletePrefix(prefix)
}

// Shutdown stops the cache cleanup and rate limiter goroutines, then
// drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
