package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkhive/linkhive/cleaner"
	"github.com/linkhive/linkhive/models"
)

// metaContent finds the first non-empty content attribute among meta tags
// whose property OR name attribute equals any of the given keys. Sites mix
// the two attributes freely, so both are accepted everywhere.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		sel := `meta[property="` + key + `"], meta[name="` + key + `"]`
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if c := strings.TrimSpace(content); c != "" {
				return c
			}
		}
	}
	return ""
}

// extractOpenGraph reads the og:* meta tags.
func extractOpenGraph(p *Page) *models.Metadata {
	md := &models.Metadata{
		Title:       metaContent(p.Doc, "og:title"),
		ImageURL:    cleaner.CleanImageURL(metaContent(p.Doc, "og:image", "og:image:url", "og:image:secure_url"), p.Base),
		Description: metaContent(p.Doc, "og:description"),
		SiteName:    metaContent(p.Doc, "og:site_name"),
	}
	if md.IsEmpty() {
		return nil
	}
	return md
}

// extractTwitterCard reads the twitter:* meta tags.
func extractTwitterCard(p *Page) *models.Metadata {
	md := &models.Metadata{
		Title:       metaContent(p.Doc, "twitter:title"),
		ImageURL:    cleaner.CleanImageURL(metaContent(p.Doc, "twitter:image", "twitter:image:src", "twitter:image0"), p.Base),
		Description: metaContent(p.Doc, "twitter:description"),
	}
	if md.IsEmpty() {
		return nil
	}
	return md
}
