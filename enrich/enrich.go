// Package enrich coordinates the metadata pipeline: safety gate, domain
// router, standard fetch, extractor chain, post-processing, browser and
// search fallbacks, favicon fill, and the result cache.
package enrich

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linkhive/linkhive/cache"
	"github.com/linkhive/linkhive/cleaner"
	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/domains"
	"github.com/linkhive/linkhive/extract"
	"github.com/linkhive/linkhive/models"
	"github.com/linkhive/linkhive/scraper"
	"github.com/linkhive/linkhive/urlguard"
)

// Fetcher is the standard HTTP fetch path.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*models.FetchResult, error)
}

// Renderer is the headless-browser fallback.
type Renderer interface {
	Render(ctx context.Context, targetURL string) (*models.FetchResult, error)
}

// Searcher is the web-search title fallback.
type Searcher interface {
	TitleFor(ctx context.Context, targetURL string) string
}

// Hosts that only ever serve redirects. A missing image on one of these
// escalates to the browser because the interesting page is behind the hop.
var shortlinkHosts = map[string]bool{
	"bit.ly":      true,
	"t.co":        true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"ow.ly":       true,
	"buff.ly":     true,
	"is.gd":       true,
	"rebrand.ly":  true,
	"cutt.ly":     true,
	"amzn.to":     true,
	"lnkd.in":     true,
}

// Enricher runs the staged enrichment pipeline. All failures degrade to
// fallbacks; Enrich never returns an error.
type Enricher struct {
	scraperCfg config.ScraperConfig
	cacheCfg   config.CacheConfig

	fetcher  Fetcher
	browser  Renderer
	searcher Searcher
	chain    *extract.Chain
	cache    *cache.Cache
	memory   *scraper.DomainMemory

	probeClient *http.Client

	// validate is the safety gate; swapped out in tests to avoid DNS.
	validate func(ctx context.Context, normalized string) error
}

// New wires an Enricher from its stages. Any of fetcher, browser, or
// searcher may be nil; the pipeline treats a nil stage as permanently
// unavailable and degrades accordingly.
func New(scraperCfg config.ScraperConfig, cacheCfg config.CacheConfig,
	fetcher Fetcher, browser Renderer, searcher Searcher,
	resultCache *cache.Cache, memory *scraper.DomainMemory) *Enricher {
	return &Enricher{
		scraperCfg:  scraperCfg,
		cacheCfg:    cacheCfg,
		fetcher:     fetcher,
		browser:     browser,
		searcher:    searcher,
		chain:       extract.NewChain(),
		cache:       resultCache,
		memory:      memory,
		probeClient: &http.Client{Timeout: 10 * time.Second},
		validate:    urlguard.Validate,
	}
}

// Lookup reports whether a fresh cached record already exists for the raw
// URL, without running the pipeline.
func (e *Enricher) Lookup(rawURL string) (*models.Metadata, bool) {
	normalized, err := urlguard.Normalize(rawURL)
	if err != nil {
		return nil, false
	}
	return e.cache.Get(normalized)
}

// Invalidate drops any cached record for the raw URL so the next Enrich
// runs the full pipeline again.
func (e *Enricher) Invalidate(rawURL string) {
	if normalized, err := urlguard.Normalize(rawURL); err == nil {
		e.cache.Invalidate(normalized)
	}
}

// Enrich produces a display-ready record for the raw URL. Cached and
// idempotent: concurrent calls for the same normalised URL coalesce onto
// one pipeline run and share its result. The canonical URL in the result
// is always the original input, query string and fragment untouched.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) *models.Metadata {
	normalized, err := urlguard.Normalize(rawURL)
	if err != nil {
		// Not even parseable as a URL; synthesise the minimal stub.
		md := e.stub(rawURL, rawURL)
		return md
	}

	if md, ok := e.cache.Get(normalized); ok {
		return md
	}

	md, _ := e.cache.Do(normalized, func() (*models.Metadata, error) {
		// A coalesced waiter may arrive after the winner already cached.
		if cached, ok := e.cache.Get(normalized); ok {
			return cached, nil
		}
		return e.run(ctx, rawURL, normalized), nil
	})
	return md
}

// run executes one full pipeline pass. It always returns a usable record.
func (e *Enricher) run(ctx context.Context, rawURL, normalized string) *models.Metadata {
	ctx, cancel := context.WithTimeout(ctx, e.scraperCfg.TotalTimeout)
	defer cancel()

	log := slog.With("correlation_id", uuid.NewString(), "url", normalized)
	start := time.Now()
	domain := urlguard.Domain(normalized)

	// ── 1. Safety gate ───────────────────────────────────────────────
	if err := e.validate(ctx, normalized); err != nil {
		log.Warn("target rejected, returning stub", "error", err)
		md := e.stub(rawURL, domain)
		e.cache.Set(normalized, md, e.cacheCfg.StubTTL)
		return md
	}

	// ── 2. Special-domain router ─────────────────────────────────────
	parsed, err := url.Parse(normalized)
	if err != nil {
		md := e.stub(rawURL, domain)
		e.cache.Set(normalized, md, e.cacheCfg.StubTTL)
		return md
	}
	md := domains.Route(parsed)
	if md == nil {
		md = &models.Metadata{}
	}

	// Router output confident on both fields means the page itself has
	// nothing left to contribute; skip all network stages.
	if md.TitleConfident && md.ImageConfident {
		e.finalize(md, rawURL, domain)
		e.cache.Set(normalized, md, e.cacheCfg.TTL)
		log.Info("enriched from router alone", "title", md.Title, "elapsed", time.Since(start))
		return md
	}

	// ── 3. Standard fetch + extraction ───────────────────────────────
	host := parsed.Hostname()
	browserFirst := e.memory != nil && e.memory.NeedsBrowser(host)

	var result *models.FetchResult
	var fetchErr error
	if !browserFirst && e.fetcher != nil {
		result, fetchErr = e.fetcher.Fetch(ctx, normalized)
		if fetchErr != nil {
			log.Warn("standard fetch failed", "error", fetchErr)
		}
	}
	// 4xx bodies still run through the chain: bot walls answer 403 with
	// challenge HTML (detected and cleared in post-processing) and some
	// error pages carry real OG tags. 5xx bodies are server error pages
	// with nothing to extract.
	if result != nil && result.StatusCode < 500 && result.HTML != "" {
		md = e.chain.Run(result.HTML, result.FinalURL, md)
	}
	e.postProcess(md, domain, result)

	// ── 4. Browser fallback ──────────────────────────────────────────
	if browserFirst || e.shouldEscalate(md, domain, host, result, fetchErr) {
		rendered := e.render(ctx, log, normalized)
		if rendered != nil {
			md = e.chain.Run(rendered.HTML, rendered.FinalURL, md)
			e.postProcess(md, domain, rendered)
			if !browserFirst && e.memory != nil && md.Title != "" {
				e.memory.MarkBrowser(host)
			}
			result = rendered
		} else if browserFirst && e.memory != nil {
			// The remembered browser-first path broke; let the next run try
			// the standard fetch again.
			e.memory.Forget(host)
		}
	}

	// ── 5. Search fallback ───────────────────────────────────────────
	if e.titleBad(md, domain) && e.searcher != nil {
		if found := cleaner.CleanTitle(e.searcher.TitleFor(ctx, normalized)); found != "" &&
			!cleaner.IsBadTitle(found, domain) && !cleaner.IsChallengeTitle(found) {
			md.Title = found
			md.TitleSource = "search"
		}
	}

	// ── 6. Image probe ───────────────────────────────────────────────
	if e.scraperCfg.ImageProbe && md.ImageURL != "" && !md.ImageConfident &&
		!cleaner.IsTrustedImageHost(md.ImageURL) &&
		!cleaner.ProbeImage(ctx, e.probeClient, md.ImageURL) {
		log.Debug("image probe rejected candidate", "image_url", md.ImageURL)
		md.ImageURL = ""
		md.ImageSource = ""
	}

	// ── 7. Final fills + cache ───────────────────────────────────────
	stubbed := e.finalize(md, rawURL, domain)

	ttl := e.cacheCfg.TTL
	if stubbed {
		ttl = e.cacheCfg.StubTTL
	}
	e.cache.Set(normalized, md, ttl)

	log.Info("enrichment finished",
		"title", md.Title,
		"title_source", md.TitleSource,
		"image_source", md.ImageSource,
		"stub", stubbed,
		"elapsed", time.Since(start))
	return md
}

// render invokes the browser fallback, degrading silently when it is
// disabled or broken.
func (e *Enricher) render(ctx context.Context, log *slog.Logger, normalized string) *models.FetchResult {
	if e.browser == nil {
		return nil
	}
	rendered, err := e.browser.Render(ctx, normalized)
	if err != nil {
		log.Warn("browser fallback failed", "error", err)
		return nil
	}
	if rendered.HTML == "" {
		return nil
	}
	log.Debug("browser fallback rendered page", "final_url", rendered.FinalURL)
	return rendered
}

// postProcess cleans the collected fields in place. A title that trips a
// bad-title rule is cleared entirely so later fallbacks get a chance.
func (e *Enricher) postProcess(md *models.Metadata, domain string, result *models.FetchResult) {
	md.Title = cleaner.CleanTitle(md.Title)
	if !md.TitleConfident && (cleaner.IsBadTitle(md.Title, domain) || cleaner.IsChallengeTitle(md.Title)) {
		md.Title = ""
		md.TitleSource = ""
	}

	// Head icons legitimately contain "icon" in their path, so the skip
	// patterns only apply to images from the other extractors.
	if md.ImageURL != "" && !md.ImageConfident && md.ImageSource != "htmlhead" &&
		md.ImageSource != "favicon" && cleaner.SkipImageURL(md.ImageURL) {
		md.ImageURL = ""
		md.ImageSource = ""
	}

	// Amazon pages frequently hide the ASIN in markup rather than the URL.
	if md.ImageURL == "" && result != nil && isAmazonHost(domain) {
		if asin := domains.FindASINInHTML(result.HTML); asin != "" {
			md.ImageURL = domains.AmazonImageURL(asin)
			md.ImageSource = "router"
		}
	}
}

// shouldEscalate applies the browser escalation rule: fetch failure or
// error status, an unusable title, a bot-challenge title, or a missing
// image on a shortlink host.
func (e *Enricher) shouldEscalate(md *models.Metadata, domain, host string, result *models.FetchResult, fetchErr error) bool {
	if fetchErr != nil || result == nil || result.StatusCode >= 400 {
		return true
	}
	if e.titleBad(md, domain) {
		return true
	}
	if md.ImageURL == "" && shortlinkHosts[strings.TrimPrefix(host, "www.")] {
		return true
	}
	return false
}

func (e *Enricher) titleBad(md *models.Metadata, domain string) bool {
	if md.TitleConfident {
		return false
	}
	return md.Title == "" || cleaner.IsBadTitle(md.Title, domain) || cleaner.IsChallengeTitle(md.Title)
}

// finalize guarantees non-empty title and image and stamps the canonical
// URL with the exact original input. Reports whether the record degraded
// to the domain-plus-favicon stub.
func (e *Enricher) finalize(md *models.Metadata, rawURL, domain string) bool {
	stubbed := false
	if md.Title == "" {
		md.Title = domain
		md.TitleSource = "fallback"
		stubbed = true
	}
	if md.ImageURL == "" {
		md.ImageURL = cleaner.FaviconURL(domain)
		md.ImageSource = "favicon"
	}
	md.CanonicalURL = rawURL
	return stubbed
}

// stub builds the worst-case record used when the pipeline cannot or must
// not touch the network.
func (e *Enricher) stub(rawURL, domain string) *models.Metadata {
	if domain == "" {
		domain = rawURL
	}
	return &models.Metadata{
		Title:        domain,
		ImageURL:     cleaner.FaviconURL(domain),
		CanonicalURL: rawURL,
		TitleSource:  "fallback",
		ImageSource:  "favicon",
	}
}

func isAmazonHost(domain string) bool {
	return strings.HasPrefix(domain, "amazon.") || strings.Contains(domain, ".amazon.") ||
		strings.HasPrefix(domain, "amzn.") || strings.Contains(domain, ".amzn.")
}
