// Package extract runs a prioritised chain of metadata extractors over
// fetched HTML. Extractors are plain values in an ordered slice; each one
// only fills fields still empty in the accumulating result, so the slice
// order is the priority order.
package extract

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/linkhive/linkhive/models"
)

// Page bundles the inputs every extractor sees.
type Page struct {
	// Doc is the parsed document, shared across the chain.
	Doc *goquery.Document

	// HTML is the raw markup, for extractors that reparse (JSON-LD,
	// readability).
	HTML string

	// Base is the final URL of the page; relative image URLs resolve
	// against it.
	Base *url.URL
}

// Extractor pairs a name (for logging) with an extraction function.
// Returning nil means the extractor found nothing.
type Extractor struct {
	Name    string
	Extract func(p *Page) *models.Metadata
}

// Chain is an ordered list of extractors.
type Chain struct {
	extractors []Extractor
}

// NewChain builds the default chain: JSON-LD, Open Graph, Twitter Card,
// microdata, HTML head, content-image heuristic, readability description.
func NewChain() *Chain {
	return &Chain{extractors: []Extractor{
		{Name: "jsonld", Extract: extractJSONLD},
		{Name: "opengraph", Extract: extractOpenGraph},
		{Name: "twitter", Extract: extractTwitterCard},
		{Name: "microdata", Extract: extractMicrodata},
		{Name: "htmlhead", Extract: extractHTMLHead},
		{Name: "contentimage", Extract: extractContentImage},
		{Name: "readability", Extract: extractReadability},
	}}
}

// Run executes the chain over the given HTML, merging each extractor's
// output into seed (fields already present in seed are never overwritten).
// A panic inside one extractor is recovered and logged; the chain continues.
func (c *Chain) Run(htmlText, baseURL string, seed *models.Metadata) *models.Metadata {
	result := seed
	if result == nil {
		result = &models.Metadata{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		slog.Warn("extract: HTML parse failed", "error", err)
		return result
	}

	base, _ := url.Parse(baseURL)
	page := &Page{Doc: doc, HTML: htmlText, Base: base}

	for _, ex := range c.extractors {
		if !result.IsEmpty() && result.Title != "" && result.ImageURL != "" &&
			result.Description != "" && result.SiteName != "" {
			break
		}
		md := runOne(ex, page)
		if md == nil {
			continue
		}
		if md.Title != "" && md.TitleSource == "" {
			md.TitleSource = ex.Name
		}
		if md.ImageURL != "" && md.ImageSource == "" {
			md.ImageSource = ex.Name
		}
		result.Merge(md)
	}
	return result
}

// runOne isolates a single extractor so a panic in one cannot stop the rest.
func runOne(ex Extractor, page *Page) (md *models.Metadata) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("extractor panicked", "extractor", ex.Name, "panic", r)
			md = nil
		}
	}()
	return ex.Extract(page)
}

// absURL resolves href against base. Returns "" for unusable references.
func absURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "data:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
