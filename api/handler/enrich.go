package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/linkhive/enrich"
	"github.com/linkhive/linkhive/models"
)

// Enrich returns a handler for POST /api/v1/enrich.
//
// The call is synchronous: it returns once the cache or the pipeline
// resolves. Enrichment itself never fails, so the only error responses
// here are for malformed request bodies.
func Enrich(enricher *enrich.Enricher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EnrichRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.EnrichResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "url is required",
				},
			})
			return
		}

		start := time.Now()

		if md, ok := enricher.Lookup(req.URL); ok {
			c.JSON(http.StatusOK, models.EnrichResponse{
				Success:   true,
				Metadata:  md,
				Cached:    true,
				ElapsedMs: time.Since(start).Milliseconds(),
			})
			return
		}

		md := enricher.Enrich(c.Request.Context(), req.URL)
		c.JSON(http.StatusOK, models.EnrichResponse{
			Success:   true,
			Metadata:  md,
			ElapsedMs: time.Since(start).Milliseconds(),
		})
	}
}
