// Package lock serializes workflow mutations on one entity across replicas.
// Row locks inside the database transaction remain the primary guard.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
)

const keyPrefix = "peoplehub:lock"

// Releaser releases an obtained lock.
type Releaser interface {
	Release(ctx context.Context) error
}

type Locker interface {
	// Obtain acquires key or fails with ENTITY_LOCKED when another holder has it.
	Obtain(ctx context.Context, key string) (Releaser, error)
}

// EntityKey renders the lock key for one tenant-scoped entity.
func EntityKey(orgID, entity, id string) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		keyPrefix,
		strings.TrimSpace(orgID),
		strings.TrimSpace(entity),
		strings.TrimSpace(id),
	)
}

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedisLocker wraps a redislock client. Obtain retries briefly before giving up.
func NewRedisLocker(client *redislock.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &redisLocker{
		client: client,
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	}
}

func (l *redisLocker) Obtain(ctx context.Context, key string) (Releaser, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("lock key is empty")
	}
	obtained, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperr.PreconditionNotMet(apperr.CodeEntityLocked, "another request is modifying this record")
	}
	if err != nil {
		return nil, err
	}
	return obtained, nil
}

type noopLocker struct{}

// NewNoopLocker is used when redis is not configured.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Obtain(context.Context, string) (Releaser, error) {
	return noopReleaser{}, nil
}

type noopReleaser struct{}

func (noopReleaser) Release(context.Context) error { return nil }

// With runs fn while holding key and always releases afterwards.
func With(ctx context.Context, locker Locker, key string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	held, err := locker.Obtain(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		_ = held.Release(context.WithoutCancel(ctx))
	}()
	return fn()
}
