package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/linkhive/models"
	"github.com/linkhive/linkhive/scraper"
)

// Health returns a handler for GET /api/v1/health.
func Health(browser *scraper.Browser, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Browser: browser.Stats(),
			Version: "0.1.0",
		})
	}
}
