// Package auditcontext carries who performed a request and where it came
// from, for audit rows and status history entries.
package auditcontext

import (
	"context"
	"strings"
)

type ctxKey string

const (
	actorTypeKey ctxKey = "audit.actor_type"
	actorIDKey   ctxKey = "audit.actor_id"
	requestIDKey ctxKey = "audit.request_id"
	ipAddressKey ctxKey = "audit.ip_address"
	userAgentKey ctxKey = "audit.user_agent"
)

const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, strings.TrimSpace(actorType))
	return context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
}

func ActorFromContext(ctx context.Context) (string, string) {
	return stringValue(ctx, actorTypeKey), stringValue(ctx, actorIDKey)
}

// ActorLabel renders the actor as "type:id", or "system" when unset.
func ActorLabel(ctx context.Context) string {
	actorType, actorID := ActorFromContext(ctx)
	if actorType == "" {
		return ActorTypeSystem
	}
	if actorID == "" {
		return actorType
	}
	return actorType + ":" + actorID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey, strings.TrimSpace(ip))
}

func IPAddressFromContext(ctx context.Context) string {
	return stringValue(ctx, ipAddressKey)
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentKey, strings.TrimSpace(userAgent))
}

func UserAgentFromContext(ctx context.Context) string {
	return stringValue(ctx, userAgentKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
