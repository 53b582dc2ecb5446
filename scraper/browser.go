package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/models"
)

// Browser renders pages in headless Chromium for targets the standard
// fetcher cannot handle. The browser process launches lazily on the first
// Render call so that deployments without Chromium still start cleanly.
// Safe for concurrent use.
type Browser struct {
	cfg config.BrowserConfig

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher

	activePages atomic.Int32
}

// NewBrowser prepares the browser fallback without launching anything.
func NewBrowser(cfg config.BrowserConfig) *Browser {
	return &Browser{cfg: cfg}
}

// ensure launches and connects the browser on first use.
func (b *Browser) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(b.cfg.NoSandbox)
	if b.cfg.Bin != "" {
		l = l.Bin(b.cfg.Bin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewEnrichError(
			models.ErrCodeBrowserUnavailable,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewEnrichError(
			models.ErrCodeBrowserUnavailable,
			"failed to connect to browser",
			err,
		)
	}

	b.browser = browser
	b.launcher = l
	return browser, nil
}

// Render navigates a fresh page to the URL, waits for the DOM to settle,
// and returns the rendered HTML. Each call gets its own tab so a hung
// render cannot poison later ones.
func (b *Browser) Render(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	if !b.cfg.Enabled {
		return nil, models.NewEnrichError(
			models.ErrCodeBrowserUnavailable,
			"browser fallback disabled",
			nil,
		)
	}

	browser, err := b.ensure()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewEnrichError(
			models.ErrCodeBrowserUnavailable,
			"failed to create page",
			err,
		)
	}
	// Close uses the original page reference so cleanup still runs after
	// the request context has expired.
	defer func() { _ = page.Close() }()

	// Stealth JS must be installed before navigation to take effect.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", evalErr)
	}

	// A Google search referer makes the visit look like organic traffic.
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	p := page.Context(ctx)

	if navErr := p.Navigate(targetURL); navErr != nil {
		return nil, categorizeRenderError(navErr, "navigation to target URL failed")
	}

	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"url", targetURL, "error", stableErr)
	}

	// Status code via the Navigation Timing API; no CDP event listeners
	// needed, which keeps this compatible with recent Chromium builds.
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeRenderError(htmlErr, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	return &models.FetchResult{
		FinalURL:    finalURL,
		StatusCode:  statusCode,
		HTML:        rawHTML,
		ContentType: "text/html",
		FetchMethod: models.FetchMethodBrowser,
	}, nil
}

// Stats reports whether the browser process is running and how many tabs
// are currently rendering.
func (b *Browser) Stats() models.BrowserStats {
	b.mu.Lock()
	running := b.browser != nil
	b.mu.Unlock()
	return models.BrowserStats{
		Running:     running,
		ActivePages: int(b.activePages.Load()),
	}
}

// Close kills the browser process if one was launched. Call on graceful
// shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return
	}
	slog.Info("browser shutting down")
	_ = b.browser.Close()
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	b.browser = nil
	b.launcher = nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func categorizeRenderError(err error, msg string) *models.EnrichError {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewEnrichError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewEnrichError(models.ErrCodeBrowserUnavailable, msg, err)
	}
}
