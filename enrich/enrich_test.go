package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkhive/linkhive/cache"
	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/models"
)

type fakeFetcher struct {
	calls  atomic.Int32
	delay  time.Duration
	result *models.FetchResult
	err    error
}

func (f *fakeFetcher) Fetch(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

type fakeRenderer struct {
	calls  atomic.Int32
	result *models.FetchResult
	err    error
}

func (r *fakeRenderer) Render(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	r.calls.Add(1)
	return r.result, r.err
}

type fakeSearcher struct {
	calls atomic.Int32
	title string
}

func (s *fakeSearcher) TitleFor(ctx context.Context, targetURL string) string {
	s.calls.Add(1)
	return s.title
}

func okResult(html string) *models.FetchResult {
	return &models.FetchResult{
		FinalURL:    "https://example.com/final",
		StatusCode:  200,
		HTML:        html,
		FetchMethod: models.FetchMethodStandard,
	}
}

func newTestEnricher(f Fetcher, r Renderer, s Searcher) *Enricher {
	e := New(
		config.ScraperConfig{
			MaxRetries:   1,
			Timeout:      time.Second,
			TotalTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		config.CacheConfig{TTL: time.Hour, StubTTL: time.Minute},
		f, r, s,
		cache.New(64),
		nil,
	)
	e.validate = func(ctx context.Context, normalized string) error { return nil }
	return e
}

func TestEnrich_RouterShortCircuit(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult("<html></html>")}
	e := newTestEnricher(fetcher, nil, nil)

	raw := "https://github.com/torvalds/linux"
	md := e.Enrich(context.Background(), raw)

	if md.Title != "linux by torvalds" {
		t.Errorf("title = %q", md.Title)
	}
	if md.ImageURL != "https://opengraph.githubassets.com/1/torvalds/linux" {
		t.Errorf("image = %q", md.ImageURL)
	}
	if md.CanonicalURL != raw {
		t.Errorf("canonical = %q, want original input", md.CanonicalURL)
	}
	if fetcher.calls.Load() != 0 {
		t.Errorf("router-confident result should skip fetching, %d fetches", fetcher.calls.Load())
	}
}

func TestEnrich_RouterSeedStillFetches(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult(`<html><head>
		<meta property="og:description" content="Official music video." />
	</head></html>`)}
	e := newTestEnricher(fetcher, nil, nil)

	md := e.Enrich(context.Background(), "https://youtu.be/dQw4w9WgXcQ")

	if fetcher.calls.Load() != 1 {
		t.Fatalf("placeholder title should still fetch, %d fetches", fetcher.calls.Load())
	}
	if md.Title != "YouTube Video" {
		t.Errorf("seed title overwritten: %q", md.Title)
	}
	if md.ImageURL != "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg" {
		t.Errorf("image = %q", md.ImageURL)
	}
	if md.Description != "Official music video." {
		t.Errorf("description = %q, fetch should have added it", md.Description)
	}
}

func TestEnrich_StandardFetchExtraction(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult(`<html><head>
		<meta property="og:title" content="A Great Article" />
		<meta property="og:image" content="https://cdn.example.com/hero.jpg" />
	</head></html>`)}
	e := newTestEnricher(fetcher, nil, nil)

	raw := "https://example.com/post?utm_source=tw&ref=card"
	md := e.Enrich(context.Background(), raw)

	if md.Title != "A Great Article" {
		t.Errorf("title = %q", md.Title)
	}
	if md.ImageURL != "https://cdn.example.com/hero.jpg" {
		t.Errorf("image = %q", md.ImageURL)
	}
	if md.CanonicalURL != raw {
		t.Errorf("canonical = %q, tracking params must be preserved", md.CanonicalURL)
	}
}

func TestEnrich_ForbiddenResponseStillExtracted(t *testing.T) {
	// Some hosts answer 403 yet serve a full page with real OG tags. The
	// body must be run through the chain, not thrown away with the status.
	fetcher := &fakeFetcher{result: &models.FetchResult{
		FinalURL:   "https://example.com/gated",
		StatusCode: 403,
		HTML: `<html><head>
			<meta property="og:title" content="Gated But Tagged" />
			<meta property="og:image" content="https://cdn.example.com/gated.jpg" />
		</head></html>`,
		FetchMethod: models.FetchMethodStandard,
	}}
	e := newTestEnricher(fetcher, nil, nil)

	md := e.Enrich(context.Background(), "https://example.com/gated")

	if md.Title != "Gated But Tagged" {
		t.Errorf("title = %q, 403 body should still be extracted", md.Title)
	}
	if md.ImageURL != "https://cdn.example.com/gated.jpg" {
		t.Errorf("image = %q", md.ImageURL)
	}
}

func TestEnrich_ServerErrorBodyIgnored(t *testing.T) {
	fetcher := &fakeFetcher{result: &models.FetchResult{
		FinalURL:   "https://example.com/broken",
		StatusCode: 500,
		HTML:       `<html><head><title>Internal Server Error</title></head></html>`,
	}}
	e := newTestEnricher(fetcher, nil, nil)

	md := e.Enrich(context.Background(), "https://example.com/broken")

	if md.Title != "example.com" {
		t.Errorf("title = %q, 5xx error page must not contribute a title", md.Title)
	}
}

func TestEnrich_BrowserEscalationOnFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection reset")}
	renderer := &fakeRenderer{result: &models.FetchResult{
		FinalURL:   "https://example.com/",
		StatusCode: 200,
		HTML: `<html><head>
			<meta property="og:title" content="Rendered Title" />
		</head></html>`,
		FetchMethod: models.FetchMethodBrowser,
	}}
	e := newTestEnricher(fetcher, renderer, nil)

	md := e.Enrich(context.Background(), "https://example.com/js-page")

	if renderer.calls.Load() != 1 {
		t.Fatalf("fetch error should escalate to browser, %d renders", renderer.calls.Load())
	}
	if md.Title != "Rendered Title" {
		t.Errorf("title = %q", md.Title)
	}
}

func TestEnrich_BrowserEscalationOnChallengeTitle(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult(`<html><head>
		<title>Just a moment...</title>
	</head></html>`)}
	renderer := &fakeRenderer{result: &models.FetchResult{
		FinalURL:   "https://example.com/",
		StatusCode: 200,
		HTML:       `<html><head><title>The Real Page Title</title></head></html>`,
	}}
	e := newTestEnricher(fetcher, renderer, nil)

	md := e.Enrich(context.Background(), "https://example.com/protected")

	if renderer.calls.Load() != 1 {
		t.Fatal("challenge title should escalate to browser")
	}
	if md.Title != "The Real Page Title" {
		t.Errorf("title = %q, challenge title should have been discarded", md.Title)
	}
}

func TestEnrich_SearchFallback(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("timeout")}
	renderer := &fakeRenderer{err: models.NewEnrichError(models.ErrCodeBrowserUnavailable, "disabled", nil)}
	searcher := &fakeSearcher{title: "Title From Search Results"}
	e := newTestEnricher(fetcher, renderer, searcher)

	md := e.Enrich(context.Background(), "https://example.com/hard-page")

	if searcher.calls.Load() != 1 {
		t.Fatal("search fallback should fire when all fetches fail")
	}
	if md.Title != "Title From Search Results" {
		t.Errorf("title = %q", md.Title)
	}
	if md.TitleSource != "search" {
		t.Errorf("title source = %q", md.TitleSource)
	}
	if md.ImageURL == "" {
		t.Error("image should fall back to favicon")
	}
}

func TestEnrich_WorstCaseStub(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("no route to host")}
	e := newTestEnricher(fetcher, nil, nil)

	raw := "https://example.com/unreachable"
	md := e.Enrich(context.Background(), raw)

	if md.Title != "example.com" {
		t.Errorf("title = %q, want bare domain", md.Title)
	}
	if md.ImageURL != "https://www.google.com/s2/favicons?domain=example.com&sz=128" {
		t.Errorf("image = %q, want favicon", md.ImageURL)
	}
	if md.CanonicalURL != raw {
		t.Errorf("canonical = %q", md.CanonicalURL)
	}
}

func TestEnrich_UnsafeTargetNoNetwork(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult("<html></html>")}
	renderer := &fakeRenderer{}
	e := newTestEnricher(fetcher, renderer, nil)
	e.validate = func(ctx context.Context, normalized string) error {
		return models.NewEnrichError(models.ErrCodeUnsafeTarget, "private address", nil)
	}

	raw := "http://192.168.1.1/admin"
	md := e.Enrich(context.Background(), raw)

	if fetcher.calls.Load() != 0 || renderer.calls.Load() != 0 {
		t.Error("rejected target must trigger no network I/O")
	}
	if md.Title != "192.168.1.1" {
		t.Errorf("title = %q", md.Title)
	}
	if md.CanonicalURL != raw {
		t.Errorf("canonical = %q, want original input", md.CanonicalURL)
	}
}

func TestEnrich_CachesResult(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult(`<html><head><title>Cache Me</title></head></html>`)}
	e := newTestEnricher(fetcher, nil, nil)

	first := e.Enrich(context.Background(), "https://example.com/page")
	second := e.Enrich(context.Background(), "https://example.com/page")

	if fetcher.calls.Load() != 1 {
		t.Errorf("second call should hit the cache, %d fetches", fetcher.calls.Load())
	}
	if first != second {
		t.Error("cached call should return the same record")
	}
}

func TestEnrich_NormalizedVariantsShareCache(t *testing.T) {
	fetcher := &fakeFetcher{result: okResult(`<html><head><title>Shared Entry</title></head></html>`)}
	e := newTestEnricher(fetcher, nil, nil)

	e.Enrich(context.Background(), "https://EXAMPLE.com/page")
	e.Enrich(context.Background(), "example.com/page")

	if fetcher.calls.Load() != 1 {
		t.Errorf("host-case and scheme variants should share one cache entry, %d fetches", fetcher.calls.Load())
	}
}

func TestEnrich_ConcurrentCallsCoalesce(t *testing.T) {
	fetcher := &fakeFetcher{
		delay:  100 * time.Millisecond,
		result: okResult(`<html><head><title>Slow Page</title></head></html>`),
	}
	e := newTestEnricher(fetcher, nil, nil)

	const workers = 8
	results := make([]*models.Metadata, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = e.Enrich(context.Background(), "https://example.com/slow")
		}(i)
	}
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("concurrent calls for one URL performed %d fetches, want 1", got)
	}
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Errorf("caller %d received a different record", i)
		}
	}
}

func TestEnrich_NeverReturnsEmpty(t *testing.T) {
	// Every stage unavailable: nil fetcher, nil browser, nil searcher.
	e := newTestEnricher(nil, nil, nil)

	md := e.Enrich(context.Background(), "https://example.com/anything")
	if md.Title == "" || md.ImageURL == "" || md.CanonicalURL == "" {
		t.Errorf("record must never be empty: %+v", md)
	}
}
