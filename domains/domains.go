// Package domains synthesises link metadata for well-known hosts directly
// from URL structure, without any network I/O. Router output seeds the
// pipeline: later extractors only fill fields the router left empty.
package domains

import (
	"net/url"
	"strings"

	"github.com/linkhive/linkhive/models"
)

// Handler pairs a host predicate with a metadata producer. Handlers are
// tried in registration order; first match wins. Adding a domain is adding
// an element to the registry, not subclassing anything.
type Handler struct {
	Name    string
	Match   func(u *url.URL) bool
	Produce func(u *url.URL) *models.Metadata
}

// Route runs the registry against a parsed URL. Returns nil when no handler
// matches or the matching handler could not derive anything.
func Route(u *url.URL) *models.Metadata {
	for _, h := range registry {
		if h.Match(u) {
			md := h.Produce(u)
			if md != nil && !md.IsEmpty() {
				if md.Title != "" && md.TitleSource == "" {
					md.TitleSource = h.Name
				}
				if md.ImageURL != "" && md.ImageSource == "" {
					md.ImageSource = h.Name
				}
				return md
			}
			return nil
		}
	}
	return nil
}

// hostIs matches an exact host with an optional www./m. prefix.
func hostIs(u *url.URL, hosts ...string) bool {
	h := strings.ToLower(u.Hostname())
	h = strings.TrimPrefix(h, "www.")
	h = strings.TrimPrefix(h, "m.")
	for _, want := range hosts {
		if h == want {
			return true
		}
	}
	return false
}

// hostHasLabel matches hosts like amazon.* / amzn.* where the TLD varies.
func hostHasLabel(u *url.URL, labels ...string) bool {
	h := strings.ToLower(u.Hostname())
	h = strings.TrimPrefix(h, "www.")
	for _, label := range labels {
		if strings.HasPrefix(h, label+".") || strings.Contains(h, "."+label+".") {
			return true
		}
	}
	return false
}

// segments splits a URL path into its non-empty components.
func segments(u *url.URL) []string {
	return strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
}

var registry = []Handler{
	{Name: "github", Match: func(u *url.URL) bool { return hostIs(u, "github.com") }, Produce: produceGitHub},
	{Name: "youtube", Match: func(u *url.URL) bool { return hostIs(u, "youtube.com", "youtu.be") }, Produce: produceYouTube},
	{Name: "amazon", Match: func(u *url.URL) bool { return hostHasLabel(u, "amazon", "amzn") }, Produce: produceAmazon},
	{Name: "linkedin", Match: func(u *url.URL) bool { return hostIs(u, "linkedin.com") }, Produce: produceLinkedIn},
	{Name: "twitter", Match: func(u *url.URL) bool { return hostIs(u, "twitter.com", "x.com") }, Produce: produceTwitter},
	{Name: "instagram", Match: func(u *url.URL) bool { return hostIs(u, "instagram.com") }, Produce: produceInstagram},
	{Name: "reddit", Match: func(u *url.URL) bool { return hostIs(u, "reddit.com", "old.reddit.com") }, Produce: produceReddit},
	{Name: "spotify", Match: func(u *url.URL) bool { return strings.EqualFold(u.Hostname(), "open.spotify.com") }, Produce: produceSpotify},
	{Name: "stackoverflow", Match: matchStackOverflow, Produce: produceStackOverflow},
	{Name: "ebay", Match: func(u *url.URL) bool { return hostHasLabel(u, "ebay") }, Produce: produceEbay},
	{Name: "etsy", Match: func(u *url.URL) bool { return hostIs(u, "etsy.com") }, Produce: produceEtsy},
	{Name: "aliexpress", Match: func(u *url.URL) bool { return hostHasLabel(u, "aliexpress") }, Produce: produceAliExpress},
}

func produceGitHub(u *url.URL) *models.Metadata {
	segs := segments(u)
	switch {
	case len(segs) >= 2:
		user, repo := segs[0], segs[1]
		return &models.Metadata{
			Title:          repo + " by " + user,
			ImageURL:       "https://opengraph.githubassets.com/1/" + user + "/" + repo,
			SiteName:       "GitHub",
			TitleConfident: true,
			ImageConfident: true,
		}
	case len(segs) == 1:
		return &models.Metadata{
			Title:          segs[0] + " on GitHub",
			ImageURL:       "https://github.com/" + segs[0] + ".png",
			SiteName:       "GitHub",
			TitleConfident: true,
			ImageConfident: true,
		}
	}
	return nil
}

func produceYouTube(u *url.URL) *models.Metadata {
	var id string
	segs := segments(u)
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.HasSuffix(host, "youtu.be") && len(segs) >= 1:
		id = segs[0]
	case len(segs) >= 2 && (segs[0] == "embed" || segs[0] == "shorts" || segs[0] == "v"):
		id = segs[1]
	default:
		id = u.Query().Get("v")
	}
	if id == "" {
		return nil
	}
	return &models.Metadata{
		Title:          "YouTube Video",
		ImageURL:       "https://i.ytimg.com/vi/" + id + "/maxresdefault.jpg",
		SiteName:       "YouTube",
		ImageConfident: true,
	}
}

func produceAmazon(u *url.URL) *models.Metadata {
	md := &models.Metadata{SiteName: "Amazon"}

	if asin := ExtractASIN(u.Path); asin != "" {
		md.ImageURL = AmazonImageURL(asin)
	}

	// The human-readable product slug precedes /dp/ in canonical product URLs.
	segs := segments(u)
	for i, seg := range segs {
		if (seg == "dp" || seg == "d") && i > 0 {
			if title := CleanSlug(segs[i-1]); len(title) >= 3 {
				md.Title = title
			}
			break
		}
	}

	if md.IsEmpty() {
		return nil
	}
	return md
}

func produceLinkedIn(u *url.URL) *models.Metadata {
	const logo = "https://content.linkedin.com/content/dam/me/business/en-us/amp/brand-site/v2/bg/LI-Bug.svg.original.svg"
	segs := segments(u)
	if len(segs) < 2 {
		return nil
	}
	switch segs[0] {
	case "in":
		return &models.Metadata{Title: "LinkedIn Profile: " + segs[1], ImageURL: logo, SiteName: "LinkedIn"}
	case "company":
		return &models.Metadata{Title: "LinkedIn: " + CleanSlug(segs[1]), ImageURL: logo, SiteName: "LinkedIn"}
	}
	return nil
}

// Paths on twitter.com/x.com that are site chrome, not user profiles.
var twitterReserved = map[string]bool{
	"home": true, "explore": true, "search": true, "notifications": true,
	"messages": true, "i": true, "settings": true, "hashtag": true,
	"intent": true, "share": true,
}

func produceTwitter(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) == 0 || twitterReserved[strings.ToLower(segs[0])] {
		return nil
	}
	user := segs[0]
	if len(segs) >= 3 && segs[1] == "status" {
		return &models.Metadata{Title: "Tweet by @" + user, SiteName: "X"}
	}
	if len(segs) == 1 {
		return &models.Metadata{Title: "@" + user + " on X", SiteName: "X"}
	}
	return nil
}

func produceInstagram(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) == 0 {
		return nil
	}
	switch segs[0] {
	case "p", "reel", "tv":
		return &models.Metadata{Title: "Instagram Post", SiteName: "Instagram"}
	case "explore", "accounts":
		return nil
	}
	if len(segs) == 1 {
		return &models.Metadata{Title: "@" + segs[0] + " on Instagram", SiteName: "Instagram"}
	}
	return nil
}

func produceReddit(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) < 2 {
		return nil
	}
	switch segs[0] {
	case "r":
		return &models.Metadata{Title: "r/" + segs[1], SiteName: "Reddit"}
	case "u", "user":
		return &models.Metadata{Title: "u/" + segs[1] + " on Reddit", SiteName: "Reddit"}
	}
	return nil
}

func produceSpotify(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) < 2 {
		return nil
	}
	switch segs[0] {
	case "track", "album", "playlist", "artist", "show", "episode":
		kind := strings.ToUpper(segs[0][:1]) + segs[0][1:]
		return &models.Metadata{Title: "Spotify " + kind, SiteName: "Spotify"}
	}
	return nil
}

func matchStackOverflow(u *url.URL) bool {
	h := strings.ToLower(u.Hostname())
	h = strings.TrimPrefix(h, "www.")
	return h == "stackoverflow.com" || strings.HasSuffix(h, ".stackexchange.com")
}

func produceStackOverflow(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) == 0 {
		return nil
	}
	switch segs[0] {
	case "questions", "q", "a":
		return &models.Metadata{Title: "Stack Overflow Question", SiteName: "Stack Overflow"}
	case "users":
		return &models.Metadata{Title: "Stack Overflow User", SiteName: "Stack Overflow"}
	}
	return nil
}

func produceEbay(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) < 2 || segs[0] != "itm" {
		return nil
	}
	// /itm/<slug>/<id> — skip purely numeric slugs (listing ids).
	slug := segs[1]
	if strings.Trim(slug, "0123456789") == "" {
		return nil
	}
	if title := CleanSlug(slug); len(title) >= 3 {
		return &models.Metadata{Title: title, SiteName: "eBay"}
	}
	return nil
}

func produceEtsy(u *url.URL) *models.Metadata {
	segs := segments(u)
	if len(segs) < 3 || segs[0] != "listing" {
		return nil
	}
	if title := CleanSlug(segs[2]); len(title) >= 3 {
		return &models.Metadata{Title: title, SiteName: "Etsy"}
	}
	return nil
}

func produceAliExpress(u *url.URL) *models.Metadata {
	q := u.Query()
	for _, key := range []string{"SearchText", "keywords", "title"} {
		if v := q.Get(key); v != "" {
			return &models.Metadata{Title: CleanSlug(v), SiteName: "AliExpress"}
		}
	}
	return nil
}
