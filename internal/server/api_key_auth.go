package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
)

const (
	HeaderOrg          = "X-Org-ID"
	contextAPIKeyIDKey = "api_key_id"
)

// APIKeyRequired authenticates requests using an API key only.
// Organization and member identity are derived solely from the key.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestHasOrgID(c) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.apiKeySvc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		ctx = orgcontext.WithOrgID(ctx, principal.OrgID)
		ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeUser, principal.UserID.String())
		c.Set(contextAPIKeyIDKey, principal.KeyID.String())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestHasOrgID(c *gin.Context) bool {
	if strings.TrimSpace(c.GetHeader(HeaderOrg)) != "" {
		return true
	}
	if value, ok := c.GetQuery("org_id"); ok && strings.TrimSpace(value) != "" {
		return true
	}
	if value, ok := c.GetQuery("orgId"); ok && strings.TrimSpace(value) != "" {
		return true
	}
	return false
}
