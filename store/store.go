// Package store persists curated link items in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/linkhive/linkhive/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		enrichment_status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at);
	CREATE INDEX IF NOT EXISTS idx_items_status ON items(enrichment_status);
`

// ErrNotFound is returned when no item matches the given id.
var ErrNotFound = errors.New("store: item not found")

// Store wraps the SQLite database holding items.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// modernc.org/sqlite serialises writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent enrichment updates.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateItem inserts a new pending item with a placeholder title and
// returns it. The placeholder is the bare URL so the item renders
// immediately while enrichment runs.
func (s *Store) CreateItem(ctx context.Context, url, title string) (*models.Item, error) {
	now := time.Now().UTC()
	item := &models.Item{
		ID:               uuid.NewString(),
		URL:              url,
		Title:            title,
		EnrichmentStatus: models.EnrichStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, url, title, enrichment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.URL, item.Title, item.EnrichmentStatus, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: insert item: %w", err)
	}
	return item, nil
}

// SetStatus updates only the enrichment status of an item.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET enrichment_status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	return checkAffected(res)
}

// UpdateItemMetadata writes enrichment results onto an item. Empty
// metadata fields leave the stored values untouched.
func (s *Store) UpdateItemMetadata(ctx context.Context, id string, md *models.Metadata, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET
			title = CASE WHEN ? != '' THEN ? ELSE title END,
			image_url = CASE WHEN ? != '' THEN ? ELSE image_url END,
			description = CASE WHEN ? != '' THEN ? ELSE description END,
			enrichment_status = ?,
			updated_at = ?
		WHERE id = ?`,
		md.Title, md.Title,
		md.ImageURL, md.ImageURL,
		md.Description, md.Description,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: update metadata: %w", err)
	}
	return checkAffected(res)
}

// GetItem fetches one item by id.
func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, image_url, description, enrichment_status, created_at, updated_at
		FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get item: %w", err)
	}
	return item, nil
}

// ListItems returns items newest first.
func (s *Store) ListItems(ctx context.Context, limit, offset int) ([]*models.Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, image_url, description, enrichment_status, created_at, updated_at
		FROM items ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete item: %w", err)
	}
	return checkAffected(res)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.URL, &item.Title, &item.ImageURL,
		&item.Description, &item.EnrichmentStatus,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
