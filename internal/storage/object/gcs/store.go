package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/smallbiznis/peoplehub/internal/storage/object"
	"google.golang.org/api/option"
)

// Store implements object.Store on a Google Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New prefers explicit credentials JSON and falls back to application default credentials.
func New(ctx context.Context, bucket, prefix, credentialsJSON string) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	opts := []option.ClientOption{}
	if creds := strings.TrimSpace(credentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &Store{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if errors.Is(err, object.ErrNotExist) || errors.Is(err, object.ErrInvalidKey) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Stat(ctx context.Context, key string) (object.Info, error) {
	handle, name, err := s.handle(key)
	if err != nil {
		return object.Info{}, err
	}
	attrs, err := handle.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return object.Info{}, object.ErrNotExist
	}
	if err != nil {
		return object.Info{}, fmt.Errorf("gcs attrs bucket=%s key=%s: %w", s.bucket, name, err)
	}
	return object.Info{Key: key, Size: attrs.Size, ModTime: attrs.Updated}, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	handle, name, err := s.handle(key)
	if err != nil {
		return nil, err
	}
	reader, err := handle.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, object.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read bucket=%s key=%s: %w", s.bucket, name, err)
	}
	return reader, nil
}

func (s *Store) Write(ctx context.Context, key string, contentType string, data []byte) error {
	handle, name, err := s.handle(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = object.ContentType(key)
	}

	wc := handle.NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("gcs write bucket=%s key=%s: %w", s.bucket, name, err)
	}
	return wc.Close()
}

func (s *Store) handle(key string) (*storage.ObjectHandle, string, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return nil, "", err
	}
	name := objectName(s.prefix, clean)
	return s.client.Bucket(s.bucket).Object(name), name, nil
}

func objectName(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

var _ object.Store = (*Store)(nil)
