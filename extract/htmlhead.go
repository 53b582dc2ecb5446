package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/linkhive/linkhive/models"
)

// extractHTMLHead falls back to plain head elements: the <title> tag, the
// standard description meta, and the various large-icon link relations.
func extractHTMLHead(p *Page) *models.Metadata {
	doc := p.Doc

	md := &models.Metadata{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Description: metaContent(doc, "description"),
		ImageURL:    absURL(headImage(doc), p.Base),
	}
	if md.IsEmpty() {
		return nil
	}
	return md
}

// headImage picks the best image-ish head element, in decreasing order of
// usefulness as a card preview.
func headImage(doc *goquery.Document) string {
	if href, ok := doc.Find(`link[rel="apple-touch-icon"], link[rel="apple-touch-icon-precomposed"]`).First().Attr("href"); ok && href != "" {
		return href
	}
	if href := largeIcon(doc); href != "" {
		return href
	}
	if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok && href != "" {
		return href
	}
	if c := metaContent(doc, "thumbnail"); c != "" {
		return c
	}
	if c := metaContent(doc, "msapplication-TileImage"); c != "" {
		return c
	}
	return ""
}

// largeIcon returns the biggest <link rel=icon sizes=...> of at least
// 128px. Tiny favicons make useless previews.
func largeIcon(doc *goquery.Document) string {
	best := ""
	bestSize := 0
	doc.Find(`link[rel="icon"], link[rel="shortcut icon"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		sizes, _ := s.Attr("sizes")
		size := parseIconSize(sizes)
		if size >= 128 && size > bestSize {
			best = href
			bestSize = size
		}
	})
	return best
}

// parseIconSize reads the width out of a sizes attribute like "180x180".
func parseIconSize(sizes string) int {
	sizes = strings.ToLower(strings.TrimSpace(sizes))
	if sizes == "" || sizes == "any" {
		return 0
	}
	// Multiple sizes may be space-separated; take the largest.
	max := 0
	for _, s := range strings.Fields(sizes) {
		if x := strings.IndexByte(s, 'x'); x > 0 {
			if w, err := strconv.Atoi(s[:x]); err == nil && w > max {
				max = w
			}
		}
	}
	return max
}
