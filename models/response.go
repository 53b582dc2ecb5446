package models

// EnrichRequest is the body for POST /api/v1/enrich and /api/v1/items.
type EnrichRequest struct {
	URL string `json:"url" binding:"required"`
}

// EnrichResponse is the envelope for synchronous enrichment results.
type EnrichResponse struct {
	Success  bool         `json:"success"`
	Metadata *Metadata    `json:"metadata,omitempty"`
	Cached   bool         `json:"cached,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`

	// ElapsedMs is the server-side wall time for this request.
	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
}

// ItemResponse is the envelope for item CRUD endpoints.
type ItemResponse struct {
	Success bool         `json:"success"`
	Item    *Item        `json:"item,omitempty"`
	Items   []*Item      `json:"items,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// BrowserStats is a snapshot of the headless browser state.
type BrowserStats struct {
	Running     bool `json:"running"`
	ActivePages int  `json:"active_pages"`
}

// HealthResponse is the body for GET /api/v1/health.
type HealthResponse struct {
	Status  string       `json:"status"`
	Uptime  string       `json:"uptime"`
	Browser BrowserStats `json:"browser"`
	Version string       `json:"version"`
}
