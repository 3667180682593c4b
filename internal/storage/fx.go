// Package storage selects the object store backend from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/storage/object"
	"github.com/smallbiznis/peoplehub/internal/storage/object/gcs"
	"github.com/smallbiznis/peoplehub/internal/storage/object/local"
	"github.com/smallbiznis/peoplehub/internal/storage/object/s3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(NewStore),
)

func NewStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (object.Store, error) {
	storageCfg := cfg.Storage
	log = log.Named("storage")

	switch storageCfg.Backend {
	case "", "local":
		log.Info("using local object store", zap.String("dir", storageCfg.LocalDir))
		return local.New(storageCfg.LocalDir)
	case "s3":
		log.Info("using s3 object store", zap.String("bucket", storageCfg.S3Bucket))
		return s3.New(context.Background(), storageCfg.S3Region, storageCfg.S3Bucket, storageCfg.S3Prefix, storageCfg.S3KMSKeyID)
	case "gcs":
		store, err := gcs.New(context.Background(), storageCfg.GCSBucket, storageCfg.GCSPrefix, storageCfg.GCSCredentialsJSON)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return store.Close() },
		})
		log.Info("using gcs object store", zap.String("bucket", storageCfg.GCSBucket))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", storageCfg.Backend)
	}
}
