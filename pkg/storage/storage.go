// Package storage keeps report attachments in S3 or on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// Object is a stored file read back for download.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type FileStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName strips directories and unusual characters from an uploaded file name.
func SafeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	return base
}

// NewKey returns a unique storage key that keeps the original name readable.
func NewKey(name string) string {
	return fmt.Sprintf("%s_%s", uuid.NewString(), SafeName(name))
}

// ValidKey rejects keys that could escape the storage root.
func ValidKey(key string) bool {
	return key != "" && key == SafeName(key)
}
