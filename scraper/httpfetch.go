// Package scraper provides the two fetch paths of the enrichment pipeline:
// a browser-impersonating HTTP fetcher and a headless-Chromium fallback.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html/charset"

	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const (
	maxRedirects   = 10
	backoffInitial = 1 * time.Second
	backoffCeiling = 30 * time.Second
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Should never happen with a valid utls version.
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Statuses worth retrying; everything else 4xx is permanent.
var retryableStatus = map[int]bool{
	408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
}

// HTTPFetcher performs browser-impersonating GETs with retries and
// exponential backoff.
type HTTPFetcher struct {
	cfg    config.ScraperConfig
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a Chrome TLS fingerprint.
func NewHTTPFetcher(cfg config.ScraperConfig) *HTTPFetcher {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("scraper: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPFetcher{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch retrieves the URL with up to MaxRetries attempts. Network errors
// and retryable status codes back off and retry; any other HTTP status is
// returned immediately with the response body — many bot-challenge pages
// answer 200 or 403 with challenge HTML that the extractor chain still
// wants to inspect.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	backoff := backoffInitial
	var lastErr error
	var lastResult *models.FetchResult

	attempts := f.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, models.NewEnrichError(models.ErrCodeTimeout, "fetch cancelled", ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > backoffCeiling {
				backoff = backoffCeiling
			}
		}

		result, err := f.fetchOnce(ctx, targetURL)
		if err != nil {
			lastErr = err
			slog.Debug("standard fetch attempt failed",
				"url", targetURL, "attempt", attempt, "error", err)
			continue
		}
		if retryableStatus[result.StatusCode] {
			lastResult = result
			lastErr = models.NewEnrichError(models.ErrCodeFetchTransient,
				fmt.Sprintf("HTTP %d", result.StatusCode), nil)
			slog.Debug("standard fetch got retryable status",
				"url", targetURL, "attempt", attempt, "status", result.StatusCode)
			continue
		}
		return result, nil
	}

	// Exhausted: surface the last response (if any) so the caller can still
	// inspect it, alongside the transient error that drives escalation.
	if lastResult != nil {
		return lastResult, lastErr
	}
	return nil, models.NewEnrichError(models.ErrCodeFetchTransient, "all fetch attempts failed", lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, targetURL string) (*models.FetchResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: request failed: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	// Decode using the declared charset with a UTF-8 default.
	limited := io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	reader, err := charset.NewReader(limited, contentType)
	if err != nil {
		reader = limited
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("scraper: read body: %w", err)
	}

	return &models.FetchResult{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		HTML:        string(body),
		ContentType: contentType,
		FetchMethod: models.FetchMethodStandard,
	}, nil
}
