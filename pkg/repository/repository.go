// Package repository provides a generic gorm-backed store for simple
// tenant-owned records that need no hand-written SQL.
package repository

import (
	"context"

	"github.com/smallbiznis/peoplehub/pkg/db/option"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, query *T, values map[string]any) (int64, error)
	Count(ctx context.Context, query *T) (int64, error)
}
