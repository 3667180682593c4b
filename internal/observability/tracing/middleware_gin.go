package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/peoplehub/internal/observability/context"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens a server span per request. Guard rejections (4xx from
// the workflow) become span events rather than span errors.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("peoplehub/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		method := strings.ToUpper(c.Request.Method)

		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			if member, err := baggage.NewMember("request_id", requestID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		// the API key middleware swaps in a context carrying the tenant
		if orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context()); ok {
			attrs = append(attrs, attribute.String("org_id", orgID.String()))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		lastErr := c.Errors.Last()
		switch {
		case status >= http.StatusInternalServerError:
			if lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		case status >= http.StatusBadRequest && lastErr != nil:
			if appErr, ok := apperr.As(lastErr.Err); ok {
				span.AddEvent("workflow.rejected", trace.WithAttributes(SafeAttributes(
					attribute.String("error.kind", string(appErr.Kind)),
					attribute.String("error.code", appErr.Code),
					attribute.String("entity", appErr.Entity),
					attribute.String("current", appErr.Current),
					attribute.String("requested", appErr.Requested),
				)...))
			}
		}
	}
}
