package cleaner

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Skip patterns for image URLs: tracking pixels, chrome, and other assets
// that make terrible link-card previews. The short token "ad" gets its own
// boundary-aware pattern so "gradient.jpg" survives.
var imageSkipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:icon|logo|pixel|tracking|badge|avatar|sprite|spacer|blank|banner|header|footer)`),
	regexp.MustCompile(`(?i)\b1x1\b`),
	regexp.MustCompile(`(?i)(?:^|[/._-])ads?(?:[/._-]|$)`),
}

// Hosts whose image URLs are accepted without probing: big CDNs that serve
// stable, well-formed preview assets.
var trustedImageHosts = map[string]bool{
	"opengraph.githubassets.com":      true,
	"avatars.githubusercontent.com":   true,
	"github.com":                      true,
	"images-na.ssl-images-amazon.com": true,
	"m.media-amazon.com":              true,
	"i.ytimg.com":                     true,
	"img.youtube.com":                 true,
	"pbs.twimg.com":                   true,
	"abs.twimg.com":                   true,
	"cdn.discordapp.com":              true,
	"media.discordapp.net":            true,
	"steamcdn-a.akamaihd.net":         true,
	"cdn.cloudflare.steamstatic.com":  true,
}

// SkipImageURL reports whether an image URL matches a skip pattern.
// Only the path and query are inspected so a host like "adn.example.com"
// doesn't poison legitimate images.
func SkipImageURL(imageURL string) bool {
	target := imageURL
	if u, err := url.Parse(imageURL); err == nil && u.Host != "" {
		target = u.Path
		if u.RawQuery != "" {
			target += "?" + u.RawQuery
		}
	}
	for _, re := range imageSkipPatterns {
		if re.MatchString(target) {
			return true
		}
	}
	return false
}

// CleanImageURL validates and absolutises a candidate image URL against the
// page base URL. Returns "" when the candidate is unusable (data URI, skip
// pattern, non-http scheme).
func CleanImageURL(candidate string, base *url.URL) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.HasPrefix(candidate, "data:") {
		return ""
	}

	ref, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	resolved := ref.String()
	if SkipImageURL(resolved) {
		return ""
	}
	return resolved
}

// IsTrustedImageHost reports whether the image URL lives on a CDN that can
// be accepted without a HEAD probe.
func IsTrustedImageHost(imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return trustedImageHosts[strings.ToLower(u.Hostname())]
}

// ProbeImage issues a HEAD request and accepts the URL only on a 2xx
// response with an image/* content type. Used for untrusted hosts when
// probing is enabled.
func ProbeImage(ctx context.Context, client *http.Client, imageURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "image/")
}
