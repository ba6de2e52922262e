// Package storage defines the object storage contract assets are kept in.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidPath    = errors.New("invalid object path")
)

// ObjectStore is a single bucket.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) error
	// PublicURL is the addressable URL of an object. It does not grant access
	// to private buckets.
	PublicURL(objectPath string) string
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, objectPaths ...string) error
}

// ObjectKey namespaces a file by owner and prefixes it with the upload time
// in milliseconds: "<owner>/<millis>_<sanitized name><ext>".
func ObjectKey(owner uuid.UUID, at time.Time, filename string) string {
	return fmt.Sprintf("%s/%d_%s", owner, at.UnixMilli(), SanitizeFilename(filename))
}

func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	stem, ext := name, strings.ToLower(path.Ext(name))
	if isSimpleExt(ext) {
		stem = strings.TrimSuffix(name, path.Ext(name))
	} else {
		// "v1.2 vase" has no extension; the dot belongs to the name
		ext = ""
	}
	base := slug.Make(stem)
	if len(base) > 80 {
		base = strings.Trim(base[:80], "-")
	}
	if base == "" {
		base = "file"
	}
	return base + ext
}

// ObjectPathFromURL recovers "<owner>/<file>" from a stored object URL: the
// last two path segments, query ignored.
func ObjectPathFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	owner, file := parts[len(parts)-2], parts[len(parts)-1]
	if uo, err := url.PathUnescape(owner); err == nil {
		owner = uo
	}
	if uf, err := url.PathUnescape(file); err == nil {
		file = uf
	}
	return owner + "/" + file
}

// CleanPath normalizes an object path and rejects traversal.
func CleanPath(objectPath string) (string, error) {
	p := strings.TrimPrefix(strings.ReplaceAll(objectPath, "\\", "/"), "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}

func isSimpleExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
