package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/leads/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/leads/{id}/status", "404"))

	req := httptest.NewRequest(http.MethodPost, "/leads/42/status", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/leads/{id}/status", "404"))
	assert.Equal(t, before+1, after)
}

func TestIngestionObserver(t *testing.T) {
	var obs usecase.RunObserver = IngestionObserver{}

	created := ingestedRecords.WithLabelValues("bulk_upload", usecase.OutcomeCreated)
	partial := ingestionRuns.WithLabelValues("bulk_upload", "partial")
	c0, p0 := testutil.ToFloat64(created), testutil.ToFloat64(partial)

	obs.RecordOutcome(entity.SourceBulkUpload, usecase.OutcomeCreated)
	obs.RecordOutcome(entity.SourceBulkUpload, usecase.OutcomeCreated)
	obs.RunFinished(entity.SourceBulkUpload, usecase.RunStatusPartial)

	assert.Equal(t, c0+2, testutil.ToFloat64(created))
	assert.Equal(t, p0+1, testutil.ToFloat64(partial))
}

func TestRecordTruncatedListing(t *testing.T) {
	c := truncatedListings.WithLabelValues("leads")
	before := testutil.ToFloat64(c)

	RecordTruncatedListing("leads")

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
