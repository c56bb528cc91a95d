package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/loans/{loanID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"LN1", "LN2"} {
		req := httptest.NewRequest("GET", "/api/loans/"+id, http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/loans/{loanID}", "404"))
	assert.GreaterOrEqual(t, val, 2.0)
	assert.NotZero(t, testutil.CollectAndCount(httpRequestDuration))
}

func TestMiddlewareDefaultStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", http.NoBody))

	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/health", "200")), 1.0)
}

func TestObserveSearch(t *testing.T) {
	before := testutil.ToFloat64(searchesTotal.WithLabelValues(KindNatural))

	ObserveSearch(KindNatural, types.SearchResult{TotalMatches: 12, QueryTime: 3 * time.Millisecond})
	CountSearch(KindNatural)

	assert.Equal(t, before+2, testutil.ToFloat64(searchesTotal.WithLabelValues(KindNatural)))
	assert.NotZero(t, testutil.CollectAndCount(searchMatches))

	SetRecordsLoaded(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(recordsLoaded))
}
