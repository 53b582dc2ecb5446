package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/linkhive/models"
)

// keyring holds the set of accepted API keys.
type keyring map[string]struct{}

func newKeyring(keys []string) keyring {
	r := make(keyring, len(keys))
	for _, k := range keys {
		if k != "" {
			r[k] = struct{}{}
		}
	}
	return r
}

func (r keyring) accepts(key string) bool {
	_, ok := r[key]
	return ok
}

// Auth returns API-key authentication middleware. Clients present a key as
// either `X-API-Key: <key>` or `Authorization: Bearer <key>`.
//
// With no keys configured the middleware is a no-op (open access).
func Auth(apiKeys []string) gin.HandlerFunc {
	ring := newKeyring(apiKeys)
	if len(ring) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key, ok := credentialFrom(c)
		if !ok {
			deny(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if !ring.accepts(key) {
			deny(c, "invalid API key")
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}

// credentialFrom reads the API key from the request. X-API-Key wins when
// both headers are present.
func credentialFrom(c *gin.Context) (string, bool) {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key, true
	}
	if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && bearer != "" {
		return bearer, true
	}
	return "", false
}

func deny(c *gin.Context, msg string) {
	slog.Warn("request rejected: unauthorized",
		"path", c.Request.URL.Path,
		"client", c.ClientIP())
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.EnrichResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
