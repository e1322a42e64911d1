package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/care-backend/internal/domain/identity"
)

const identityKey = "resolved_identity"

// identityMiddleware resolves an optional bearer credential. Requests
// without a resolvable identity continue anonymously; policy decisions such
// as the demo-patient fallback belong to individual handlers.
func identityMiddleware(resolver identity.Resolver, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}
		id, ok, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Warn("identity resolution failed", "path", c.Request.URL.Path, "error", err)
			c.Next()
			return
		}
		if ok {
			setIdentity(c, id)
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, id identity.Identity) {
	c.Set(identityKey, id)
}

func getIdentity(c *gin.Context) (identity.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := value.(identity.Identity)
	return id, ok
}
