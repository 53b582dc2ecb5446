package models

import "time"

// Enrichment status values for an Item.
const (
	EnrichStatusPending    = "pending"
	EnrichStatusProcessing = "processing"
	EnrichStatusComplete   = "complete"
	EnrichStatusFailed     = "failed"
)

// Item is a curated link managed through the admin surface. Items are
// created with a placeholder title and filled in by background enrichment.
type Item struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	ImageURL         string    `json:"image_url,omitempty"`
	Description      string    `json:"description,omitempty"`
	EnrichmentStatus string    `json:"enrichment_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
