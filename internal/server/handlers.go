package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lox/loan-record-search/internal/analytics"
	"github.com/lox/loan-record-search/internal/metrics"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/types"
)

const defaultSimilarLimit = 5

type searchResponse struct {
	Query        string             `json:"query,omitempty"`
	Records      []types.LoanRecord `json:"records"`
	TotalMatches int                `json:"total_matches"`
	Aggregations map[string]float64 `json:"aggregations"`
	QueryTimeMS  float64            `json:"query_time_ms"`
}

func newSearchResponse(q string, result types.SearchResult) searchResponse {
	return searchResponse{
		Query:        q,
		Records:      result.Records,
		TotalMatches: result.TotalMatches,
		Aggregations: result.Aggregations,
		QueryTimeMS:  float64(result.QueryTime.Microseconds()) / 1000,
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": s.store.Snapshot().Len(),
	})
}

// handleSearch handles GET /api/loans/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filters, err := parseFilters(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	sortBy, order, limit, err := parseShaping(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result := s.engine.Search(types.SearchQuery{
		Criteria: query.FromFilters(filters, s.policy),
		Limit:    limit,
		SortBy:   sortBy,
		Order:    order,
	})
	metrics.ObserveSearch(metrics.KindStructured, result)

	writeJSON(w, http.StatusOK, newSearchResponse("", result))
}

// handleAsk handles GET /api/loans/ask?q=
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "q is required")
		return
	}

	result := s.engine.Search(s.interpreter.Interpret(q))
	metrics.ObserveSearch(metrics.KindNatural, result)

	writeJSON(w, http.StatusOK, newSearchResponse(q, result))
}

// handleSuggest handles GET /api/loans/suggest?q=
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       q,
		"suggestions": query.Suggest(q, s.store.Snapshot()),
	})
}

// handleStatistics handles GET /api/loans/statistics, summarizing the loans matching
// any filters given
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result := s.engine.Search(types.SearchQuery{Criteria: query.FromFilters(filters, s.policy)})
	writeJSON(w, http.StatusOK, analytics.Summarize(result.Records, s.asOf()))
}

type loanResponse struct {
	Record    types.LoanRecord    `json:"record"`
	Analytics analytics.Analytics `json:"analytics"`
}

// handleGetLoan handles GET /api/loans/{loanID}
func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Snapshot().ByID(chi.URLParam(r, "loanID"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loanResponse{
		Record:    record,
		Analytics: analytics.Compute(record, s.asOf()),
	})
}

// handleSimilar handles GET /api/loans/{loanID}/similar?limit=
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	limit, err := parseLimit(r.URL.Query(), defaultSimilarLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	related, err := analytics.FindRelated(s.store.Snapshot(), loanID, limit, s.asOf())
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	metrics.CountSearch(metrics.KindSimilar)

	writeJSON(w, http.StatusOK, map[string]any{
		"loan_id": loanID,
		"related": related,
	})
}
