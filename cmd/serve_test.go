package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/seopulse/internal/ingest"
	"github.com/seopulse/seopulse/internal/model"
	"github.com/seopulse/seopulse/internal/tiering"
)

type fakeIngest struct {
	report *ingest.Report
	err    error
	calls  int
}

func (f *fakeIngest) Run(_ context.Context, site, start, end, searchType string) (*ingest.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeTier struct {
	report *tiering.RunReport
	err    error
}

func (f *fakeTier) Run(context.Context, string) (*tiering.RunReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

const secret = "topsecret"

func triggerRequest(t *testing.T, handler http.Handler, path, body string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) {
	req.Header.Set("X-Seopulse-Trigger", "scheduler")
	req.Header.Set("Authorization", "Bearer "+secret)
}

func TestHealthEndpointIsOpen(t *testing.T) {
	h := newRouter(&fakeIngest{}, &fakeTier{}, secret)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestTriggerAuth(t *testing.T) {
	ing := &fakeIngest{report: &ingest.Report{}}
	h := newRouter(ing, &fakeTier{}, secret)
	body := `{"site":"sc-domain:acme.com","start_date":"2026-08-01","end_date":"2026-08-02"}`

	t.Run("missing trigger header", func(t *testing.T) {
		rec := triggerRequest(t, h, "/trigger/ingest", body, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+secret)
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		rec := triggerRequest(t, h, "/trigger/ingest", body, func(req *http.Request) {
			req.Header.Set("X-Seopulse-Trigger", "scheduler")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := triggerRequest(t, h, "/trigger/ingest", body, func(req *http.Request) {
			req.Header.Set("X-Seopulse-Trigger", "scheduler")
			req.Header.Set("Authorization", "Bearer nope")
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unconfigured secret", func(t *testing.T) {
		bare := newRouter(ing, &fakeTier{}, "")
		rec := triggerRequest(t, bare, "/trigger/ingest", body, authed)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	// No handler ran during any rejected call.
	assert.Zero(t, ing.calls)
}

func TestTriggerIngest_Success(t *testing.T) {
	ing := &fakeIngest{report: &ingest.Report{Site: "sc-domain:acme.com", RowsFetched: 12, RowsWritten: 12}}
	h := newRouter(ing, &fakeTier{}, secret)

	rec := triggerRequest(t, h, "/trigger/ingest",
		`{"site":"sc-domain:acme.com","start_date":"2026-08-01","end_date":"2026-08-02"}`, authed)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows_fetched":12`)
	assert.Equal(t, 1, ing.calls)
}

func TestTriggerIngest_Validation(t *testing.T) {
	ing := &fakeIngest{report: &ingest.Report{}}
	h := newRouter(ing, &fakeTier{}, secret)

	rec := triggerRequest(t, h, "/trigger/ingest", `{"site":""}`, authed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = triggerRequest(t, h, "/trigger/ingest", `{not json`, authed)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ing.calls)
}

func TestTriggerIngest_DegradedNotFiveHundred(t *testing.T) {
	ing := &fakeIngest{err: errors.New("quota exhausted")}
	h := newRouter(ing, &fakeTier{}, secret)

	rec := triggerRequest(t, h, "/trigger/ingest",
		`{"site":"sc-domain:acme.com","start_date":"2026-08-01","end_date":"2026-08-02"}`, authed)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
	assert.Contains(t, rec.Body.String(), "quota exhausted")
}

func TestTriggerTier_Success(t *testing.T) {
	tier := &fakeTier{report: &tiering.RunReport{
		Site:      "sc-domain:acme.com",
		Processed: 5,
		Distribution: map[model.Tier]int{
			model.TierAtRisk:    2,
			model.TierQuickWins: 3,
		},
	}}
	h := newRouter(&fakeIngest{}, tier, secret)

	rec := triggerRequest(t, h, "/trigger/tier", `{"site":"sc-domain:acme.com"}`, authed)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2 pages at risk")
	assert.Contains(t, rec.Body.String(), "3 quick wins")
}

func TestTriggerTier_Degraded(t *testing.T) {
	tier := &fakeTier{err: errors.New("store down")}
	h := newRouter(&fakeIngest{}, tier, secret)

	rec := triggerRequest(t, h, "/trigger/tier", `{"site":"sc-domain:acme.com"}`, authed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}
