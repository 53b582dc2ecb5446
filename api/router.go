// Package api wires the HTTP surface: routing, auth, and rate limiting.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/linkhive/api/handler"
	"github.com/linkhive/linkhive/api/middleware"
	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/enrich"
	"github.com/linkhive/linkhive/scraper"
	"github.com/linkhive/linkhive/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(enricher *enrich.Enricher, browser *scraper.Browser, st *store.Store,
	bg *enrich.Background, lc *handler.ItemListCache, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(browser, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Synchronous enrichment.
	protected.POST("/enrich", handler.Enrich(enricher))

	// Items (create queues background enrichment).
	protected.POST("/items", handler.CreateItem(st, bg, lc))
	protected.GET("/items", handler.ListItems(st, lc))
	protected.GET("/items/:id", handler.GetItem(st))
	protected.DELETE("/items/:id", handler.DeleteItem(st, enricher, lc))

	return r
}
