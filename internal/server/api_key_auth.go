package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/narzo/internal/audit/domain"
	obscontext "github.com/smallbiznis/narzo/internal/observability/context"
)

const (
	HeaderAPIKey = "X-API-Key"

	actorIDAPIKey = "api_key"
)

// AdminRequired authenticates admin requests with the shared API key. It
// runs before any handler touches the store.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.apiKeys.Verify(apiKeyFromRequest(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		markAdmin(c)
		c.Next()
	}
}

// isAdmin verifies an optional key on public read endpoints. A present but
// wrong key is not an error there; the caller simply gets the public view.
func (s *Server) isAdmin(c *gin.Context) bool {
	raw := apiKeyFromRequest(c)
	if raw == "" {
		return false
	}
	if err := s.apiKeys.Verify(raw); err != nil {
		return false
	}
	markAdmin(c)
	return true
}

func markAdmin(c *gin.Context) {
	ctx := obscontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeAdmin), actorIDAPIKey)
	c.Request = c.Request.WithContext(ctx)
}

func apiKeyFromRequest(c *gin.Context) string {
	if raw := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); raw != "" {
		return raw
	}
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
