package handler

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/linkhive/enrich"
	"github.com/linkhive/linkhive/models"
	"github.com/linkhive/linkhive/store"
)

// ItemListCache memoises the default item listing between writes. The
// background enricher invalidates it whenever an item's metadata lands.
type ItemListCache struct {
	mu      sync.Mutex
	items   []*models.Item
	expires time.Time
}

// NewItemListCache creates an empty (expired) list cache.
func NewItemListCache() *ItemListCache {
	return &ItemListCache{}
}

// Invalidate drops the memoised listing.
func (c *ItemListCache) Invalidate() {
	c.mu.Lock()
	c.items = nil
	c.expires = time.Time{}
	c.mu.Unlock()
}

func (c *ItemListCache) get() ([]*models.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil || time.Now().After(c.expires) {
		return nil, false
	}
	return c.items, true
}

func (c *ItemListCache) set(items []*models.Item) {
	c.mu.Lock()
	c.items = items
	c.expires = time.Now().Add(30 * time.Second)
	c.mu.Unlock()
}

// CreateItem returns a handler for POST /api/v1/items.
//
// The item is stored immediately with the URL as a placeholder title and
// returned with status 202; enrichment runs in the background and the
// webhook (when configured) signals completion.
func CreateItem(st *store.Store, bg *enrich.Background, lc *ItemListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EnrichRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "url is required",
				},
			})
			return
		}

		item, err := st.CreateItem(c.Request.Context(), req.URL, req.URL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to create item",
				},
			})
			return
		}

		lc.Invalidate()
		bg.Enqueue(item.ID, item.URL)

		c.JSON(http.StatusAccepted, models.ItemResponse{
			Success: true,
			Item:    item,
		})
	}
}

// ListItems returns a handler for GET /api/v1/items.
//
// The unpaginated default listing is served from the list cache; any
// explicit limit/offset bypasses it.
func ListItems(st *store.Store, lc *ItemListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", 0)
		offset := intQuery(c, "offset", 0)

		if limit == 0 && offset == 0 {
			if items, ok := lc.get(); ok {
				c.JSON(http.StatusOK, models.ItemResponse{Success: true, Items: items})
				return
			}
		}

		items, err := st.ListItems(c.Request.Context(), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to list items",
				},
			})
			return
		}

		if limit == 0 && offset == 0 {
			lc.set(items)
		}
		c.JSON(http.StatusOK, models.ItemResponse{Success: true, Items: items})
	}
}

// GetItem returns a handler for GET /api/v1/items/:id.
func GetItem(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := st.GetItem(c.Request.Context(), c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "item not found",
				},
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to load item",
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.ItemResponse{Success: true, Item: item})
	}
}

// DeleteItem returns a handler for DELETE /api/v1/items/:id. The cached
// enrichment record for the item's URL is dropped too, so re-adding the
// link runs the pipeline fresh.
func DeleteItem(st *store.Store, enricher *enrich.Enricher, lc *ItemListCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := st.GetItem(c.Request.Context(), c.Param("id"))
		if err == nil {
			err = st.DeleteItem(c.Request.Context(), item.ID)
		}
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "item not found",
				},
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ItemResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to delete item",
				},
			})
			return
		}
		enricher.Invalidate(item.URL)
		lc.Invalidate()
		c.JSON(http.StatusOK, models.ItemResponse{Success: true})
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
