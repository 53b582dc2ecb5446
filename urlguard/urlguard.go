// Package urlguard normalises operator-supplied URLs and rejects targets
// that would let the enrichment pipeline reach internal infrastructure.
package urlguard

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/linkhive/linkhive/models"
)

// Normalize produces the canonical form of a raw URL used as the cache key
// and for all downstream stages. It defaults the scheme to https, lowercases
// the host, strips default ports, and collapses a lone "/" path. Query and
// fragment are preserved byte-exact: affiliate and attribution parameters
// belong to the operator.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", models.NewEnrichError(models.ErrCodeInvalidInput, "empty URL", nil)
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", models.NewEnrichError(models.ErrCodeInvalidInput, "unparseable URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", models.NewEnrichError(models.ErrCodeInvalidInput, "scheme must be http or https", nil)
	}
	if u.Host == "" {
		return "", models.NewEnrichError(models.ErrCodeInvalidInput, "URL has no host", nil)
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		// Strip default ports only.
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = host
		} else {
			u.Host = net.JoinHostPort(host, port)
		}
	} else {
		u.Host = host
	}

	if u.Path == "/" {
		u.Path = ""
	}

	return u.String(), nil
}

// Validate checks that the URL's host resolves and that every resolved
// address is global unicast. A single disallowed address rejects the whole
// target: with multiple A records an attacker controls which one the fetch
// would actually use.
//
// Returns an EnrichError with code UNSAFE_TARGET_URL or DNS_FAILURE on
// rejection. Rejection is non-fatal to the pipeline; the orchestrator falls
// back to a domain-only stub.
func Validate(ctx context.Context, normalized string) error {
	u, err := url.Parse(normalized)
	if err != nil {
		return models.NewEnrichError(models.ErrCodeInvalidInput, "unparseable URL", err)
	}

	host := u.Hostname()
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return models.NewEnrichError(models.ErrCodeUnsafeTarget, "localhost is not allowed", nil)
	}

	// Literal IP: no DNS round trip needed.
	if ip := net.ParseIP(host); ip != nil {
		if disallowed(ip) {
			return models.NewEnrichError(models.ErrCodeUnsafeTarget,
				"target resolves to a non-public address: "+ip.String(), nil)
		}
		return nil
	}

	// Hostname must contain a dot; bare names are almost always intranet hosts.
	if !strings.Contains(host, ".") {
		return models.NewEnrichError(models.ErrCodeUnsafeTarget, "host has no dot: "+host, nil)
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return models.NewEnrichError(models.ErrCodeDNSFailure, "DNS resolution failed for "+host, err)
	}

	for _, addr := range addrs {
		if disallowed(addr.IP) {
			return models.NewEnrichError(models.ErrCodeUnsafeTarget,
				"target resolves to a non-public address: "+addr.IP.String(), nil)
		}
	}
	return nil
}

// disallowed reports whether an IP belongs to an address class the pipeline
// must never fetch from: loopback, private, link-local, multicast, or
// unspecified.
func disallowed(ip net.IP) bool {
	// IsPrivate covers RFC 1918 IPv4 ranges and RFC 4193 unique local IPv6
	// (fc00::/7).
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

// Domain extracts the hostname from a URL string, used when building
// domain-only stub records.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
