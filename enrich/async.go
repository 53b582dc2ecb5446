package enrich

import (
	"context"
	"log/slog"
	"sync"

	"github.com/linkhive/linkhive/models"
)

// ItemUpdater is the slice of the item store the background worker needs.
type ItemUpdater interface {
	SetStatus(ctx context.Context, id, status string) error
	UpdateItemMetadata(ctx context.Context, id string, md *models.Metadata, status string) error
}

// Notifier receives a signal once an item's enrichment lands.
type Notifier interface {
	LinkEnriched(itemID string, md *models.Metadata)
}

// Background runs enrichments detached from the HTTP request that queued
// them. Cancelling the originating request does not cancel the task; the
// item always ends up with its real metadata.
type Background struct {
	enricher   *Enricher
	items      ItemUpdater
	notifier   Notifier
	invalidate func()
	wg         sync.WaitGroup
}

// NewBackground wires the background worker. notifier and invalidate may
// be nil.
func NewBackground(enricher *Enricher, items ItemUpdater, notifier Notifier, invalidate func()) *Background {
	return &Background{
		enricher:   enricher,
		items:      items,
		notifier:   notifier,
		invalidate: invalidate,
	}
}

// Enqueue starts enrichment for the item in a new goroutine and returns
// immediately.
func (b *Background) Enqueue(itemID, rawURL string) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.process(itemID, rawURL)
	}()
}

// Wait blocks until all queued enrichments finish. Called on shutdown so
// in-flight items are not left in the processing state.
func (b *Background) Wait() {
	b.wg.Wait()
}

func (b *Background) process(itemID, rawURL string) {
	// Deliberately not the request context: the task must outlive the
	// caller. Enrich applies its own wall-clock budget.
	ctx := context.Background()

	if err := b.items.SetStatus(ctx, itemID, models.EnrichStatusProcessing); err != nil {
		slog.Warn("background enrichment: set processing failed",
			"item_id", itemID, "error", err)
	}

	md := b.enricher.Enrich(ctx, rawURL)

	if err := b.items.UpdateItemMetadata(ctx, itemID, md, models.EnrichStatusComplete); err != nil {
		slog.Error("background enrichment: item update failed",
			"item_id", itemID, "error", err)
		if serr := b.items.SetStatus(ctx, itemID, models.EnrichStatusFailed); serr != nil {
			slog.Error("background enrichment: set failed status",
				"item_id", itemID, "error", serr)
		}
		return
	}

	if b.invalidate != nil {
		b.invalidate()
	}
	if b.notifier != nil {
		b.notifier.LinkEnriched(itemID, md)
	}
	slog.Info("background enrichment complete", "item_id", itemID, "title", md.Title)
}
