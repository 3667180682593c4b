// Package object stores templates and generated letters behind one
// byte-addressable interface.
package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrNotExist   = errors.New("object_not_found")
	ErrInvalidKey = errors.New("invalid_storage_key")
)

// Info describes a stored object.
type Info struct {
	Key     string
	Size    int64
	ModTime time.Time
}

type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Stat(ctx context.Context, key string) (Info, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Write(ctx context.Context, key string, contentType string, data []byte) error
}

// CleanKey normalizes separators and rejects keys escaping the store root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean(strings.TrimLeft(key, "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// ContentType guesses the MIME type from the key extension.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
