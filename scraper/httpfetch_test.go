package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/models"
)

func testFetcherConfig() config.ScraperConfig {
	return config.ScraperConfig{
		MaxRetries:   3,
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 20,
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.Contains(got, "Chrome") {
			t.Errorf("User-Agent = %q, want a Chrome UA", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><head><title>Hello</title></head></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig())
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("status = %d", result.StatusCode)
	}
	if !strings.Contains(result.HTML, "<title>Hello</title>") {
		t.Errorf("body not captured: %q", result.HTML)
	}
	if result.FetchMethod != models.FetchMethodStandard {
		t.Errorf("method = %q", result.FetchMethod)
	}
}

func TestFetch_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html><title>Recovered</title></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig())
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after retry", result.StatusCode)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
}

func TestFetch_NonRetryableStatusReturnsBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html><title>Not Found Page</title></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig())
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", result.StatusCode)
	}
	// Challenge and error pages still carry extractable HTML.
	if !strings.Contains(result.HTML, "Not Found Page") {
		t.Errorf("body dropped for 404: %q", result.HTML)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1 (404 must not retry)", n)
	}
}

func TestFetch_ExhaustedRetriesKeepsLastResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("<html><title>Maintenance</title></html>"))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.MaxRetries = 2
	f := NewHTTPFetcher(cfg)
	result, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("want transient error after exhausting retries")
	}
	var ee *models.EnrichError
	if !errors.As(err, &ee) || ee.Code != models.ErrCodeFetchTransient {
		t.Errorf("err = %v, want FETCH_TRANSIENT", err)
	}
	if result == nil || result.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("last response not surfaced: %+v", result)
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	cfg := testFetcherConfig()
	cfg.MaxRetries = 1
	f := NewHTTPFetcher(cfg)
	result, err := f.Fetch(context.Background(), "http://127.0.0.1:1/")
	if err == nil {
		t.Fatal("want error for unreachable server")
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func TestFetch_FollowsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, srv.URL+"/final", http.StatusMovedPermanently)
			return
		}
		w.Write([]byte("<html><title>Final</title></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testFetcherConfig())
	result, err := f.Fetch(context.Background(), srv.URL+"/start")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.FinalURL != srv.URL+"/final" {
		t.Errorf("FinalURL = %q, want redirect target", result.FinalURL)
	}
}

func TestFetch_BodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 4096)))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.MaxBodyBytes = 1024
	f := NewHTTPFetcher(cfg)
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(result.HTML) > 1024 {
		t.Errorf("body length = %d, want capped at 1024", len(result.HTML))
	}
}
