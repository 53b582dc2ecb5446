package models

// Metadata is the display-ready record produced by the enrichment pipeline.
// Fields are independently optional; consumers render whatever is present.
type Metadata struct {
	Title        string `json:"title,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	Description  string `json:"description,omitempty"`
	CanonicalURL string `json:"canonical_url,omitempty"`
	SiteName     string `json:"site_name,omitempty"`

	// TitleConfident / ImageConfident mark fields synthesised with high
	// confidence (e.g. a YouTube thumbnail derived from the video ID).
	// Confident fields are never overwritten by later extractors.
	TitleConfident bool `json:"-"`
	ImageConfident bool `json:"-"`

	// TitleSource / ImageSource record which stage produced each field.
	// Logging only; not part of the wire format.
	TitleSource string `json:"-"`
	ImageSource string `json:"-"`
}

// IsEmpty reports whether no displayable field has been filled.
func (m *Metadata) IsEmpty() bool {
	return m.Title == "" && m.ImageURL == "" && m.Description == "" && m.SiteName == ""
}

// Merge copies fields from other into m, filling only fields that are still
// empty. Confident fields on m are never replaced. Source annotations travel
// with the fields they describe.
func (m *Metadata) Merge(other *Metadata) {
	if other == nil {
		return
	}
	if m.Title == "" && other.Title != "" {
		m.Title = other.Title
		m.TitleSource = other.TitleSource
		m.TitleConfident = other.TitleConfident
	}
	if m.ImageURL == "" && other.ImageURL != "" {
		m.ImageURL = other.ImageURL
		m.ImageSource = other.ImageSource
		m.ImageConfident = other.ImageConfident
	}
	if m.Description == "" && other.Description != "" {
		m.Description = other.Description
	}
	if m.SiteName == "" && other.SiteName != "" {
		m.SiteName = other.SiteName
	}
}

// FetchResult is the unified return type of both fetch paths.
type FetchResult struct {
	// FinalURL is the URL after all redirects.
	FinalURL string

	// StatusCode is the HTTP status of the final response. Zero when the
	// browser path could not observe one.
	StatusCode int

	// HTML is the response body (or rendered DOM) decoded to UTF-8.
	HTML string

	// ContentType is the declared Content-Type of the response.
	ContentType string

	// FetchMethod records how the page was fetched: "standard" or "browser".
	FetchMethod string
}

// Fetch method names used in FetchResult.FetchMethod and log lines.
const (
	FetchMethodStandard = "standard"
	FetchMethodBrowser  = "browser"
)
