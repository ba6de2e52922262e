// Package local keeps objects on disk under <dir>/<bucket> and issues
// signed URLs as short-lived HS256 tokens verified by ServeSigned.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"figureit/internal/storage"
)

const (
	ObjectRoute = "/storage/object"
	SignedRoute = "/storage/signed"
)

type Store struct {
	bucket  string
	root    string // absolute path of the bucket directory
	baseURL string // e.g. http://localhost:8080/api/v1
	secret  []byte
	now     func() time.Time
}

type objectClaims struct {
	Bucket string `json:"bkt"`
	jwtlib.RegisteredClaims
}

func New(dir, bucket, baseURL, signingSecret string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("local storage: bucket is required")
	}
	root, err := filepath.Abs(filepath.Join(dir, bucket))
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("local storage: create bucket dir: %w", err)
	}
	return &Store{
		bucket:  bucket,
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(signingSecret),
		now:     time.Now,
	}, nil
}

func (s *Store) Upload(ctx context.Context, objectPath string, r io.Reader, _ string) error {
	abs, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return storage.ErrObjectExists
		}
		return fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = os.Remove(abs)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(abs)
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func (s *Store) PublicURL(objectPath string) string {
	return s.baseURL + ObjectRoute + "/" + escapePath(objectPath)
}

func (s *Store) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	abs, err := s.resolve(objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", storage.ErrObjectNotFound
		}
		return "", err
	}

	clean, _ := storage.CleanPath(objectPath)
	now := s.now()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, objectClaims{
		Bucket: s.bucket,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   clean,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign object url: %w", err)
	}
	return s.baseURL + SignedRoute + "/" + escapePath(clean) + "?token=" + url.QueryEscape(token), nil
}

// Remove deletes objects. Missing objects are not an error.
func (s *Store) Remove(ctx context.Context, objectPaths ...string) error {
	var errs []error
	for _, p := range objectPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs, err := s.resolve(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify checks a signed URL token against the requested object path.
func (s *Store) Verify(objectPath, token string) error {
	clean, err := storage.CleanPath(objectPath)
	if err != nil {
		return err
	}
	claims := &objectClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return errors.New("invalid or expired signature")
	}
	if claims.Subject != clean || claims.Bucket != s.bucket {
		return errors.New("signature does not match object")
	}
	return nil
}

// Open returns the absolute file path of an existing object.
func (s *Store) Open(objectPath string) (string, error) {
	abs, err := s.resolve(objectPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", storage.ErrObjectNotFound
		}
		return "", err
	}
	return abs, nil
}

func (s *Store) resolve(objectPath string) (string, error) {
	clean, err := storage.CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", storage.ErrInvalidPath
	}
	return abs, nil
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
