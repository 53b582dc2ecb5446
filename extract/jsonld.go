package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkhive/linkhive/cleaner"
	"github.com/linkhive/linkhive/models"
)

// Schema.org types the JSON-LD extractor understands, with a priority so a
// Product or Article block beats a generic WebPage when both are present.
var jsonldTypePriority = map[string]int{
	"product":             3,
	"article":             2,
	"newsarticle":         2,
	"blogposting":         2,
	"videoobject":         2,
	"recipe":              2,
	"book":                2,
	"movie":               2,
	"event":               2,
	"softwareapplication": 2,
	"webpage":             1,
	"website":             1,
	"organization":        1,
}

// extractJSONLD parses every application/ld+json script on the page and
// extracts title/image/description from the best-typed object found.
func extractJSONLD(p *Page) *models.Metadata {
	type candidate struct {
		prio int
		md   *models.Metadata
	}
	var candidates []candidate

	p.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return // malformed blocks are common; skip silently
		}
		for _, obj := range flattenJSONLD(raw) {
			prio, ok := jsonldPriority(obj)
			if !ok {
				continue
			}
			if md := jsonldMetadata(obj, p); md != nil {
				candidates = append(candidates, candidate{prio: prio, md: md})
			}
		}
	})
	if len(candidates) == 0 {
		return nil
	}

	// Highest-priority object wins; lower-priority ones only fill gaps.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].prio > candidates[j].prio
	})
	result := candidates[0].md
	for _, c := range candidates[1:] {
		result.Merge(c.md)
	}
	return result
}

// flattenJSONLD expands top-level arrays and @graph containers into a flat
// list of candidate objects.
func flattenJSONLD(raw any) []map[string]any {
	var out []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			out = append(out, flattenJSONLD(item)...)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				out = append(out, flattenJSONLD(item)...)
			}
		}
	}
	return out
}

// jsonldPriority returns the priority of an object's @type, handling both
// string and list-of-string forms.
func jsonldPriority(obj map[string]any) (int, bool) {
	switch t := obj["@type"].(type) {
	case string:
		if prio, ok := jsonldTypePriority[strings.ToLower(t)]; ok {
			return prio, true
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if prio, ok := jsonldTypePriority[strings.ToLower(s)]; ok {
					return prio, true
				}
			}
		}
	}
	return 0, false
}

func jsonldMetadata(obj map[string]any, p *Page) *models.Metadata {
	md := &models.Metadata{}

	for _, key := range []string{"name", "headline"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			md.Title = strings.TrimSpace(s)
			break
		}
	}
	for _, key := range []string{"image", "logo", "thumbnail", "thumbnailUrl"} {
		if img := cleaner.CleanImageURL(jsonldImageURL(obj[key]), p.Base); img != "" {
			md.ImageURL = img
			break
		}
	}
	for _, key := range []string{"description", "abstract", "summary"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			md.Description = strings.TrimSpace(s)
			break
		}
	}
	if pub, ok := obj["publisher"].(map[string]any); ok {
		if s, ok := pub["name"].(string); ok {
			md.SiteName = strings.TrimSpace(s)
		}
	}

	if md.IsEmpty() {
		return nil
	}
	return md
}

// jsonldImageURL digs an image URL out of the many shapes schema.org
// permits: a string, a list of strings, a list of objects, or an object
// with url/contentUrl/@id.
func jsonldImageURL(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case []any:
		for _, item := range img {
			if s := jsonldImageURL(item); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range []string{"url", "contentUrl", "@id"} {
			if s, ok := img[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
