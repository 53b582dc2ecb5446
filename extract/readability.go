package extract

import (
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/linkhive/linkhive/models"
)

// extractReadability is the last resort for descriptions: run the Mozilla
// Readability algorithm and use its excerpt. Sits at the end of the chain
// so it only ever fills a description no structured source provided.
func extractReadability(p *Page) *models.Metadata {
	if p.Base == nil {
		return nil
	}
	article, err := readability.FromReader(strings.NewReader(p.HTML), p.Base)
	if err != nil {
		return nil
	}

	md := &models.Metadata{
		Description: strings.TrimSpace(article.Excerpt),
		SiteName:    strings.TrimSpace(article.SiteName),
	}
	if md.IsEmpty() {
		return nil
	}
	return md
}
