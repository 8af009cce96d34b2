package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"property-agent/scraper"
	"property-agent/utils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, srv *httptest.Server, timeout time.Duration) *Client {
	t.Helper()
	return New(Config{
		APIKey:       "fc-test",
		BaseURL:      srv.URL,
		Timeout:      timeout,
		PollInterval: 5 * time.Millisecond,
		HTTPClient:   srv.Client(),
	}, utils.NewNopLogger())
}

func testRequest() scraper.Request {
	return scraper.Request{
		URLs:   []string{"https://www.bikroy.com/bn/ads/dhaka/properties"},
		Prompt: "extract listings",
		Schema: scraper.ListingSchema(),
	}
}

func TestExtractPollsUntilCompleted(t *testing.T) {
	var polls int32
	var gotBody extractRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/extract":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"success": true, "id": "job-1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/extract/job-1":
			if atomic.AddInt32(&polls, 1) < 3 {
				_, _ = w.Write([]byte(`{"success": true, "status": "processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success": true, "status": "completed", "data": {"properties": [{"address": "Banani"}], "total_count": 1}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	body, err := newTestClient(t, srv, time.Second).Extract(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
	assert.Equal(t, []string{"https://www.bikroy.com/bn/ads/dhaka/properties"}, gotBody.URLs)
	assert.Equal(t, "extract listings", gotBody.Prompt)
	assert.Equal(t, "object", gotBody.Schema["type"])

	listings, count, err := scraper.NormalizeResponse(body)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "Banani", listings[0].Address)
}

func TestExtractSynchronousResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {"properties": [], "total_count": 0}}`))
	}))
	defer srv.Close()

	body, err := newTestClient(t, srv, time.Second).Extract(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Contains(t, string(body), `"total_count": 0`)
}

func TestExtractJobFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"success": true, "id": "job-2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": false, "status": "failed", "error": "site blocked"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, time.Second).Extract(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site blocked")
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success": false, "error": "Unauthorized: Invalid token"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, time.Second).Extract(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestExtractTimesOutWhilePolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"success": true, "id": "job-3"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "status": "processing"}`))
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newTestClient(t, srv, 50*time.Millisecond).Extract(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{APIKey: "k", BaseURL: "https://api.example.com/"}, utils.NewNopLogger())
	assert.Equal(t, "https://api.example.com", c.baseURL)
	assert.Equal(t, 3*time.Minute, c.timeout)
	assert.Equal(t, 2*time.Second, c.poll)
	assert.Equal(t, "Firecrawl", c.Name())
}
