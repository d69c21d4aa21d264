package searchconsole

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_SendsRequestShape(t *testing.T) {
	var got QueryRequest
	var gotAuth, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(QueryResponse{Rows: []Row{
			{Keys: []string{"2026-08-01", "widgets", "https://acme.com/", "MOBILE", "usa"}, Clicks: 12, Impressions: 340, Ctr: 0.035, Position: 8.2},
		}})
	}))
	defer srv.Close()

	c := NewClient("tok-123", WithBaseURL(srv.URL), WithQPS(1000))

	resp, err := c.Query(context.Background(), QueryRequest{
		SiteURL:    "sc-domain:acme.com",
		StartDate:  "2026-08-01",
		EndDate:    "2026-08-01",
		Dimensions: []string{"date", "query", "page", "device", "country"},
		RowLimit:   MaxRowLimit,
		StartRow:   25000,
	})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/sites/sc-domain:acme.com/searchAnalytics/query", gotPath)
	assert.Equal(t, 25000, got.RowLimit)
	assert.Equal(t, 25000, got.StartRow)
	assert.Equal(t, []string{"date", "query", "page", "device", "country"}, got.Dimensions)
	assert.Equal(t, 12.0, resp.Rows[0].Clicks)
	assert.Equal(t, 8.2, resp.Rows[0].Position)
}

func TestQuery_EmptyRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithQPS(1000))
	resp, err := c.Query(context.Background(), QueryRequest{SiteURL: "sc-domain:acme.com"})
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
}

func TestQuery_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithQPS(1000))
	_, err := c.Query(context.Background(), QueryRequest{SiteURL: "sc-domain:acme.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestQuery_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("tok", WithBaseURL(srv.URL))
	_, err := c.Query(ctx, QueryRequest{SiteURL: "sc-domain:acme.com"})
	require.Error(t, err)
}
