// Package context exposes request correlation fields for logs and spans.
package context

import (
	"context"

	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
)

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return auditcontext.RequestIDFromContext(ctx)
}

func OrgIDFromContext(ctx context.Context) string {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return ""
	}
	return orgID.String()
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	return auditcontext.ActorFromContext(ctx)
}
