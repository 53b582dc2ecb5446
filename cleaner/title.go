// Package cleaner post-processes extracted metadata: title normalisation,
// bad-title detection, image URL vetting, and the favicon fallback.
package cleaner

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxTitleLen caps cleaned titles (in runes).
const maxTitleLen = 200

// Site-specific prefixes that carry no information about the page itself.
var badPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^Steam Workshop\s*::\s*`),
	regexp.MustCompile(`^Steam Community\s*::\s*`),
}

// Canonical title separators, tried in order. All require surrounding
// whitespace so hyphenated words survive.
var titleSeparators = []string{" | ", " - ", " – ", " — ", " :: ", " • ", " / "}

// Well-known site names commonly appended to page titles. Compared
// case-insensitively against the final separator fragment.
var knownSiteNames = map[string]bool{
	"youtube": true, "github": true, "amazon": true, "amazon.com": true,
	"twitter": true, "x": true, "reddit": true, "instagram": true,
	"linkedin": true, "ebay": true, "etsy": true, "spotify": true,
	"stack overflow": true, "medium": true, "wikipedia": true,
	"facebook": true, "the new york times": true, "bbc": true, "cnn": true,
	"the guardian": true, "bloomberg": true, "netflix": true, "twitch": true,
}

// CleanTitle normalises a raw extracted title for display. The operation is
// idempotent: cleaning a cleaned title returns it unchanged.
func CleanTitle(title string) string {
	title = decodeEntities(title)

	for _, re := range badPrefixes {
		title = re.ReplaceAllString(title, "")
	}

	// Each separator is reduced to a fixpoint so cleaning stays idempotent
	// for titles like "A | B | YouTube".
	for _, sep := range titleSeparators {
		for {
			reduced := reduceFragments(title, sep)
			if reduced == title {
				break
			}
			title = reduced
		}
	}

	title = strings.Join(strings.Fields(title), " ")

	if utf8.RuneCountInString(title) > maxTitleLen {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxTitleLen-1])) + "…"
	}
	return title
}

// reduceFragments drops a trailing well-known site name, or keeps the
// longest fragment when the trailing one is not recognised.
func reduceFragments(title, sep string) string {
	parts := strings.Split(title, sep)
	if len(parts) < 2 {
		return title
	}

	last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if knownSiteNames[last] {
		return strings.TrimSpace(strings.Join(parts[:len(parts)-1], sep))
	}

	longest := parts[0]
	for _, p := range parts[1:] {
		if len(strings.TrimSpace(p)) > len(strings.TrimSpace(longest)) {
			longest = p
		}
	}
	return strings.TrimSpace(longest)
}

// decodeEntities unescapes HTML entities to a fixpoint so that
// double-encoded titles ("&amp;amp;") also come out clean.
func decodeEntities(s string) string {
	for i := 0; i < 3; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			return s
		}
		s = decoded
	}
	return s
}

// Stereotyped titles of anti-bot interstitials and error pages.
var badTitleMarkers = []string{
	"robot check",
	"captcha",
	"access denied",
	"404",
	"attention required",
	"just a moment",
	"checking your browser",
	"enable javascript",
	"are you a robot",
}

// IsBadTitle reports whether a cleaned title carries no real information:
// too short, equal to the bare domain, or matching a bot-challenge marker.
// A bad title is discarded so later fallback stages can retry.
func IsBadTitle(title, domain string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if utf8.RuneCountInString(t) < 3 {
		return true
	}
	if domain != "" {
		d := strings.ToLower(strings.TrimPrefix(domain, "www."))
		if t == d || t == "www."+d || t == strings.TrimSuffix(d, ".com") {
			return true
		}
	}
	for _, marker := range badTitleMarkers {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

// IsChallengeTitle reports whether a title looks like an anti-bot
// interstitial specifically (drives browser escalation, not just discard).
func IsChallengeTitle(title string) bool {
	t := strings.ToLower(title)
	for _, marker := range []string{
		"just a moment", "attention required", "checking your browser",
		"robot check", "captcha", "are you a robot", "access denied",
	} {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}
