package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/linkhive/linkhive/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetItem(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, err := s.CreateItem(ctx, "https://example.com/post", "https://example.com/post")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == "" {
		t.Fatal("item has no id")
	}
	if item.EnrichmentStatus != models.EnrichStatusPending {
		t.Errorf("status = %q, want pending", item.EnrichmentStatus)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.URL != item.URL || got.Title != item.Title {
		t.Errorf("round trip mismatch: %+v vs %+v", got, item)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetItem(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateItemMetadata(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, err := s.CreateItem(ctx, "https://example.com/p", "https://example.com/p")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	md := &models.Metadata{
		Title:       "Enriched Title",
		ImageURL:    "https://cdn.example.com/img.jpg",
		Description: "A description.",
	}
	if err := s.UpdateItemMetadata(ctx, item.ID, md, models.EnrichStatusComplete); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Enriched Title" || got.ImageURL != "https://cdn.example.com/img.jpg" {
		t.Errorf("metadata not applied: %+v", got)
	}
	if got.EnrichmentStatus != models.EnrichStatusComplete {
		t.Errorf("status = %q", got.EnrichmentStatus)
	}
}

func TestUpdateItemMetadata_EmptyFieldsKeepStoredValues(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, _ := s.CreateItem(ctx, "https://example.com/p", "Placeholder")
	md := &models.Metadata{ImageURL: "https://cdn.example.com/only-image.jpg"}
	if err := s.UpdateItemMetadata(ctx, item.ID, md, models.EnrichStatusComplete); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.GetItem(ctx, item.ID)
	if got.Title != "Placeholder" {
		t.Errorf("empty metadata title overwrote stored title: %q", got.Title)
	}
	if got.ImageURL != "https://cdn.example.com/only-image.jpg" {
		t.Errorf("image = %q", got.ImageURL)
	}
}

func TestSetStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, _ := s.CreateItem(ctx, "https://example.com/p", "p")
	if err := s.SetStatus(ctx, item.ID, models.EnrichStatusProcessing); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ := s.GetItem(ctx, item.ID)
	if got.EnrichmentStatus != models.EnrichStatusProcessing {
		t.Errorf("status = %q", got.EnrichmentStatus)
	}

	if err := s.SetStatus(ctx, "missing", models.EnrichStatusFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListItems(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"} {
		if _, err := s.CreateItem(ctx, u, u); err != nil {
			t.Fatalf("create %s: %v", u, err)
		}
	}

	items, err := s.ListItems(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len = %d, want 3", len(items))
	}

	limited, err := s.ListItems(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestDeleteItem(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	item, _ := s.CreateItem(ctx, "https://example.com/p", "p")
	if err := s.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetItem(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("item still present after delete: %v", err)
	}
	if err := s.DeleteItem(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
