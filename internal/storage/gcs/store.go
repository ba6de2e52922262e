// Package gcs keeps objects in a Google Cloud Storage bucket and issues V4
// signed URLs.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"figureit/internal/pkg/logger"
	"figureit/internal/storage"
)

type Store struct {
	log       *logger.Logger
	client    *gstorage.Client
	bucket    string
	cdnDomain string
}

func New(ctx context.Context, log *logger.Logger, bucket, credentialsFile, cdnDomain string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("gcs storage: bucket is required")
	}
	opts := []option.ClientOption{option.WithScopes(gstorage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Store{
		log:       log.With("service", "GCSStore", "bucket", bucket),
		client:    client,
		bucket:    bucket,
		cdnDomain: strings.TrimRight(cdnDomain, "/"),
	}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) error {
	key, err := storage.CleanPath(objectPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	// DoesNotExist makes a second upload to the same key fail like the local store.
	w := s.client.Bucket(s.bucket).Object(key).If(gstorage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (s *Store) PublicURL(objectPath string) string {
	key := strings.TrimPrefix(objectPath, "/")
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

func (s *Store) SignedURL(_ context.Context, objectPath string, ttl time.Duration) (string, error) {
	key, err := storage.CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	return s.client.Bucket(s.bucket).SignedURL(key, &gstorage.SignedURLOptions{
		Scheme:  gstorage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
}

func (s *Store) Remove(ctx context.Context, objectPaths ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error
	for _, p := range objectPaths {
		key, err := storage.CleanPath(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
			if errors.Is(err, gstorage.ErrObjectNotExist) {
				s.log.Debug("object already gone", "key", key)
				continue
			}
			errs = append(errs, fmt.Errorf("delete GCS object %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
