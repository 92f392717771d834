// Package api provides HTTP and WebSocket API endpoints for the price feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/StrathCole/riskfeed/pkg/feed"
	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/metrics"
	"github.com/StrathCole/riskfeed/pkg/server/aggregator"
	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
	"github.com/StrathCole/riskfeed/pkg/version"
)

// requestTimeout bounds a single price or audit request.
const requestTimeout = 30 * time.Second

// Feed is the price and audit service the API exposes.
type Feed interface {
	GetAggregatedPrice(ctx context.Context, asset string) (*aggregator.AggregatedPriceData, error)
	GetAuditData(ctx context.Context, protocol string) []audit.Entry
	ClearCaches()
	GetCacheStats() feed.CacheStats
	OracleTypes() []sources.OracleType
	Method() aggregator.Method
}

// Server represents the HTTP API server.
type Server struct {
	addr   string
	feed   Feed
	server *http.Server
	logger *logging.Logger
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, f Feed, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Server{
		addr:   addr,
		feed:   f,
		logger: logger,
	}
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /health", s.instrument("/health", s.handleHealth))
	mux.Handle("GET /v1/prices/{asset...}", s.instrument("/v1/prices", s.handlePrice))
	mux.Handle("GET /v1/audits/{protocol}", s.instrument("/v1/audits", s.handleAudits))
	mux.Handle("GET /v1/cache/stats", s.instrument("/v1/cache/stats", s.handleCacheStats))
	mux.Handle("POST /v1/cache/clear", s.instrument("/v1/cache/clear", s.handleCacheClear))
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status), time.Since(start))
	})
}

type healthResponse struct {
	Status  string               `json:"status"`
	Version string               `json:"version"`
	Method  aggregator.Method    `json:"method"`
	Oracles []sources.OracleType `json:"oracles"`
}

// handleHealth handles /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Method:  s.feed.Method(),
		Oracles: s.feed.OracleTypes(),
	})
}

// handlePrice handles /v1/prices/{asset}. The asset may contain a slash.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	if err := sources.ValidateAsset(asset); err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := s.feed.GetAggregatedPrice(ctx, asset)
	if err != nil {
		if errors.Is(err, feed.ErrAllOraclesFailed) {
			s.sendError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error("Failed to aggregate price", "asset", asset, "error", err)
		s.sendError(w, http.StatusInternalServerError, "failed to aggregate price")
		return
	}

	s.sendJSON(w, http.StatusOK, data)
}

// handleAudits handles /v1/audits/{protocol}.
func (s *Server) handleAudits(w http.ResponseWriter, r *http.Request) {
	protocol := r.PathValue("protocol")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries := s.feed.GetAuditData(ctx, protocol)

	if sev := r.URL.Query().Get("severity"); sev != "" {
		want := audit.ParseSeverity(sev)
		entries = filterEntries(entries, func(e audit.Entry) bool { return e.Severity == want })
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		want := audit.ParseCategory(cat)
		entries = filterEntries(entries, func(e audit.Entry) bool { return e.Category == want })
	}

	s.sendJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, s.feed.GetCacheStats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.feed.ClearCaches()
	s.sendJSON(w, http.StatusOK, s.feed.GetCacheStats())
}

func filterEntries(entries []audit.Entry, keep func(audit.Entry) bool) []audit.Entry {
	out := make([]audit.Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, msg string) {
	s.sendJSON(w, status, map[string]string{"error": msg})
}
