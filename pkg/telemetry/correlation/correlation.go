// Package correlation tags one letter render (and its logs, audit entries and
// error responses) with a single ULID.
package correlation

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ctxKey struct{}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// FromContext returns the id set by WithID, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func WithID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// EnsureCorrelationID keeps an id already on ctx and mints one otherwise.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}

// NewID returns an id that sorts by creation time, strictly increasing within
// this process.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IssuedAt recovers when id was minted, so support can line an error response
// up with logs.
func IssuedAt(id string) (time.Time, bool) {
	parsed, err := ulid.ParseStrict(strings.TrimSpace(id))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()).UTC(), true
}
