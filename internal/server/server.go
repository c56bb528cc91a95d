// Package server exposes the loan search engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lox/loan-record-search/internal/metrics"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/store"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves search, lookup and analytics endpoints over the current store snapshot
type Server struct {
	store       *store.Store
	engine      *search.Engine
	interpreter *query.Interpreter
	policy      query.Policy
	asOf        func() types.Date
	logger      *log.Logger
}

// New creates an HTTP API server. asOf supplies the date analytics are computed against.
func New(s *store.Store, engine *search.Engine, policy query.Policy, asOf func() types.Date, logger *log.Logger) *Server {
	return &Server{
		store:       s,
		engine:      engine,
		interpreter: query.NewInterpreter(policy, logger),
		policy:      policy,
		asOf:        asOf,
		logger:      logger,
	}
}

// Router returns the HTTP handler with all routes and middleware
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/loans", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/ask", s.handleAsk)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/{loanID}", s.handleGetLoan)
		r.Get("/{loanID}/similar", s.handleSimilar)
	})

	return r
}

// recoverer returns JSON instead of a plain text stacktrace when a handler panics
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.logger.Error("Panic recovered", "panic", rvr, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one log line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"latency", time.Since(start),
			"response_bytes", ww.BytesWritten())
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeLookupError maps lookup failures to 404 or 500
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "loan_not_found", err.Error())
		return
	}
	s.logger.Error("Lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
