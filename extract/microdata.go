package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkhive/linkhive/cleaner"
	"github.com/linkhive/linkhive/models"
)

// Microdata itemtype fragments worth walking.
var microdataTypes = []string{"Product", "Article", "WebPage", "Organization"}

// extractMicrodata walks itemscope elements with a recognised itemtype and
// pulls the name/image/description itemprops out of their subtree.
func extractMicrodata(p *Page) *models.Metadata {
	var md *models.Metadata

	p.Doc.Find("[itemscope]").EachWithBreak(func(_ int, scope *goquery.Selection) bool {
		itemtype, _ := scope.Attr("itemtype")
		if !recognisedItemtype(itemtype) {
			return true
		}

		candidate := &models.Metadata{
			Title:       itempropText(scope, "name"),
			ImageURL:    cleaner.CleanImageURL(itempropImage(scope), p.Base),
			Description: itempropText(scope, "description"),
		}
		if candidate.IsEmpty() {
			return true
		}
		md = candidate
		return false
	})
	return md
}

func recognisedItemtype(itemtype string) bool {
	for _, t := range microdataTypes {
		if strings.Contains(itemtype, t) {
			return true
		}
	}
	return false
}

// itempropText returns the value of an itemprop: content attribute for meta
// tags, text otherwise.
func itempropText(scope *goquery.Selection, prop string) string {
	el := scope.Find(`[itemprop="` + prop + `"]`).First()
	if el.Length() == 0 {
		return ""
	}
	if content, ok := el.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(el.Text())
}

// itempropImage returns the image itemprop, checking src/content/href in
// that order (img, meta, link).
func itempropImage(scope *goquery.Selection) string {
	el := scope.Find(`[itemprop="image"]`).First()
	if el.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "content", "href"} {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
