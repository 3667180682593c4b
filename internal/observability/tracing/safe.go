package tracing

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Attribute keys that may carry candidate PII never reach a span.
var blockedAttributeKeys = map[attribute.Key]struct{}{
	"candidate.email": {},
	"candidate.phone": {},
	"candidate.name":  {},
	"salary.ctc":      {},
}

// ExtractContext restores upstream trace and baggage headers.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeAttributes drops blocked keys and empty string values.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attr.Key]; blocked {
			continue
		}
		if attr.Value.Type() == attribute.STRING && strings.TrimSpace(attr.Value.AsString()) == "" {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces err to its classification so messages with user data stay out of traces.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	if kind, ok := apperr.KindOf(err); ok {
		return errors.New(string(kind))
	}
	return errors.New("internal_error")
}
