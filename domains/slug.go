package domains

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSlugTitle caps slug-derived titles.
const maxSlugTitle = 100

// CleanSlug turns a product-URL slug into a readable title: separators
// become spaces, percent-escapes are decoded, whitespace is collapsed, and
// all-lowercase words are capitalised. Tokens that already carry case
// (acronyms, camel-case brand names) are preserved as written.
func CleanSlug(slug string) string {
	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}
	slug = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(slug)

	words := strings.Fields(slug)
	for i, w := range words {
		if w == strings.ToLower(w) {
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}

	title := strings.Join(words, " ")
	if utf8.RuneCountInString(title) > maxSlugTitle {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxSlugTitle])) + "…"
	}
	return title
}

// ASIN path shapes, tried in order. An ASIN is ten characters starting
// with B.
var asinPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/(B[0-9A-Z]{9})`),
	regexp.MustCompile(`/gp/product/(B[0-9A-Z]{9})`),
	regexp.MustCompile(`/gp/aw/d/(B[0-9A-Z]{9})`),
	regexp.MustCompile(`/d/(B[0-9A-Z]{9})`),
	regexp.MustCompile(`/(B[0-9A-Z]{9})(?:[/?]|$)`),
}

// ExtractASIN pulls an Amazon product identifier out of a URL path.
// Returns "" when no known shape matches.
func ExtractASIN(path string) string {
	for _, re := range asinPathPatterns {
		if m := re.FindStringSubmatch(path); m != nil {
			return m[1]
		}
	}
	return ""
}

var asinHTMLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"ASIN"\s*:\s*"(B[0-9A-Z]{9})"`),
	regexp.MustCompile(`data-asin="(B[0-9A-Z]{9})"`),
	regexp.MustCompile(`\bASIN\b[^B]{0,40}(B[0-9A-Z]{9})`),
}

// FindASINInHTML scans raw page HTML for an ASIN. Used as a later fallback
// when the URL itself yields nothing.
func FindASINInHTML(html string) string {
	for _, re := range asinHTMLPatterns {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

// AmazonImageURL builds the product image URL for an ASIN.
func AmazonImageURL(asin string) string {
	return "https://images-na.ssl-images-amazon.com/images/P/" + asin + ".01._SCLZZZZZZZ_.jpg"
}
