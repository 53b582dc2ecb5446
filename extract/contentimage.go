package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/linkhive/linkhive/cleaner"
	"github.com/linkhive/linkhive/models"
)

// Content-image selectors in priority order: images inside article-ish
// containers are far more likely to be the page's hero than a random <img>.
var contentImageSelectors = []string{
	"article img",
	"[role=main] img",
	".content img",
	".featured-image img",
	".hero-image img",
	"img[src]",
}

const (
	minImageDimension = 200
	maxAspectRatio    = 4.0
)

// extractContentImage scans page images for a plausible preview, skipping
// chrome (icons, logos, pixels) and anything declared too small or too
// elongated to be a hero image.
func extractContentImage(p *Page) *models.Metadata {
	for _, selector := range contentImageSelectors {
		var found string
		p.Doc.Find(selector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := imageSource(img)
			if src == "" {
				return true
			}
			resolved := cleaner.CleanImageURL(src, p.Base)
			if resolved == "" {
				return true
			}
			if !plausibleDimensions(img) {
				return true
			}
			found = resolved
			return false
		})
		if found != "" {
			return &models.Metadata{ImageURL: found}
		}
	}
	return nil
}

// imageSource honours lazy-loading attributes in addition to src.
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// plausibleDimensions rejects images whose declared width/height mark them
// as too small (<200px) or too elongated (aspect over 4:1, likely a banner
// or divider). Undeclared dimensions pass: most hero images carry none.
func plausibleDimensions(img *goquery.Selection) bool {
	w := attrInt(img, "width")
	h := attrInt(img, "height")

	if (w > 0 && w < minImageDimension) || (h > 0 && h < minImageDimension) {
		return false
	}
	if w > 0 && h > 0 {
		ratio := float64(w) / float64(h)
		if ratio > maxAspectRatio || ratio < 1/maxAspectRatio {
			return false
		}
	}
	return true
}

func attrInt(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
