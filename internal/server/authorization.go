package server

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
)

func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeOrgActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeOrgActionWithContext(c *gin.Context, object string, action string) error {
	ctx := c.Request.Context()
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	subject := actorSubject(auditcontext.ActorFromContext(ctx))
	if subject == "" {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(ctx, subject, orgID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
}

func actorSubject(actorType, actorID string) string {
	switch actorType {
	case auditcontext.ActorTypeUser:
		if strings.TrimSpace(actorID) == "" {
			return ""
		}
		return fmt.Sprintf("user:%s", strings.TrimSpace(actorID))
	case auditcontext.ActorTypeSystem:
		return "system"
	default:
		return ""
	}
}
