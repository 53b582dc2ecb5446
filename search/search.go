// Package search implements the search-engine title fallback: when every
// fetch path fails to produce a usable title, the target URL is looked up
// on DuckDuckGo's HTML endpoint and the first result's title is used.
package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkhive/linkhive/config"
)

const duckduckgoHTML = "https://html.duckduckgo.com/html/"

const searchUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Client queries DuckDuckGo's no-JS HTML endpoint.
type Client struct {
	cfg    config.SearchConfig
	client *http.Client
}

// NewClient creates a search client. When the search fallback is disabled
// TitleFor always returns "".
func NewClient(cfg config.SearchConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// TitleFor searches for the URL and returns the first result's title, or
// "" when nothing usable comes back. Search is strictly best-effort, so
// every failure is swallowed and logged at debug level.
func (c *Client) TitleFor(ctx context.Context, targetURL string) string {
	if !c.cfg.Enabled {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := duckduckgoHTML + "?q=" + url.QueryEscape(targetURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", searchUA)
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Debug("search fallback request failed", "url", targetURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("search fallback got non-200", "url", targetURL, "status", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	title, err := ParseFirstResult(string(body))
	if err != nil {
		slog.Debug("search fallback parse failed", "url", targetURL, "error", err)
		return ""
	}
	return title
}

// ParseFirstResult extracts the first organic result title from a
// DuckDuckGo HTML results page.
func ParseFirstResult(htmlText string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return "", fmt.Errorf("search: parse results page: %w", err)
	}

	title := strings.TrimSpace(doc.Find(".result__title a.result__a").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("a.result__a").First().Text())
	}
	if title == "" {
		return "", nil
	}
	return stripResultSuffix(title), nil
}

// stripResultSuffix drops a trailing " - SiteName" or " | SiteName" style
// suffix that search engines append to result titles. Only a short final
// fragment is dropped so legitimate hyphenated titles survive.
func stripResultSuffix(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " — "} {
		idx := strings.LastIndex(title, sep)
		if idx <= 0 {
			continue
		}
		suffix := title[idx+len(sep):]
		if len(suffix) <= 30 && !strings.ContainsAny(suffix, ".!?") {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}
