// Package asset is the Asset Catalog: an owner's uploaded images and videos,
// their metadata and their category links.
package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"figureit/internal/domain/reconciler"
	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/logger"
	"figureit/internal/pkg/saga"
	"figureit/internal/storage"
)

const (
	DefaultSignedURLTTL = time.Hour
	signConcurrency     = 8
)

// CategoryChecker reports which category IDs belong to an owner.
type CategoryChecker interface {
	OwnedIDs(ctx context.Context, owner uuid.UUID, ids []int64) ([]int64, error)
}

type Service struct {
	repo       Repository
	store      storage.ObjectStore
	categories CategoryChecker
	reconciler *reconciler.Reconciler
	log        *logger.Logger
	signedTTL  time.Duration
	now        func() time.Time
}

func NewService(repo Repository, store storage.ObjectStore, categories CategoryChecker, log *logger.Logger, signedTTL time.Duration) *Service {
	if signedTTL <= 0 {
		signedTTL = DefaultSignedURLTTL
	}
	return &Service{
		repo:       repo,
		store:      store,
		categories: categories,
		reconciler: reconciler.New(repo, log),
		log:        log,
		signedTTL:  signedTTL,
		now:        time.Now,
	}
}

// List returns the owner's assets with signed URLs. Signing failures fall
// back to the stored URL and never fail the listing.
func (s *Service) List(ctx context.Context, owner uuid.UUID, kind Kind) ([]Asset, error) {
	assets, err := s.repo.List(ctx, owner, kind)
	if err != nil {
		return nil, apperr.Read("asset.list", msgLoadFailed, err)
	}
	s.sign(ctx, assets)
	return assets, nil
}

func (s *Service) Get(ctx context.Context, owner uuid.UUID, id int64) (*Asset, error) {
	a, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return nil, apperr.NotFound("asset.get", msgNotFound)
		}
		return nil, apperr.Read("asset.get", msgLoadFailed, err)
	}
	s.signOne(ctx, a)
	return a, nil
}

// Create validates the form, then uploads the file, inserts the row and
// links the categories. A failed insert removes the uploaded object; failed
// linking keeps the asset and returns a warning.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, form UploadForm) (*CreateResult, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkCategories(ctx, owner, form.CategoryIDs); err != nil {
		return nil, err
	}

	objectPath := storage.ObjectKey(owner, s.now(), form.ObjectName())
	a := &Asset{
		UserID:          owner,
		Filename:        form.ObjectName(),
		Type:            form.Kind,
		Status:          form.Status,
		Title:           form.Title,
		Description:     form.Description,
		Price:           form.Price,
		DiscountedPrice: form.DiscountedPrice,
		AssetURL:        s.store.PublicURL(objectPath),
		ObjectPath:      objectPath,
	}

	res := saga.Run(ctx,
		saga.Step{
			Name: "upload",
			Do: func(ctx context.Context) error {
				return s.store.Upload(ctx, objectPath, form.File.Body, form.File.ContentType)
			},
			Compensate: func(ctx context.Context) error {
				return s.store.Remove(ctx, objectPath)
			},
		},
		saga.Step{
			Name: "insert",
			Do: func(ctx context.Context) error {
				return s.repo.Create(ctx, a)
			},
		},
		saga.Step{
			Name:      "link",
			Tolerable: true,
			Do: func(ctx context.Context) error {
				return s.repo.AddLinks(ctx, a.ID, dedupe(form.CategoryIDs))
			},
		},
	)

	switch res.Outcome {
	case saga.Aborted:
		if res.Orphaned() {
			s.log.Error("uploaded object left behind", "object_path", objectPath, "error", errors.Join(stepErrors(res.Compensation)...))
		}
		failed := res.Failed[0]
		if failed.Step == "upload" {
			return nil, apperr.Write("asset.create", msgUploadFailed, failed)
		}
		return nil, apperr.Write("asset.create", msgSaveFailed, failed)
	case saga.Partial:
		s.log.Warn("asset created without all category links", "asset_id", a.ID, "error", res.Err())
	}

	out, err := s.repo.Get(ctx, owner, a.ID)
	if err != nil {
		// the asset exists; report it without hydrated categories
		s.log.Warn("created asset refetch failed", "asset_id", a.ID, "error", err)
		out = a
	}
	s.signOne(ctx, out)

	result := &CreateResult{Asset: out}
	if res.Outcome == saga.Partial {
		result.Warning = msgPartialLink(form.Kind)
	}
	s.log.Info("asset created", "asset_id", out.ID, "user_id", owner, "type", out.Type)
	return result, nil
}

// Delete removes the stored object first. A failed object removal is logged
// and ignored; only a failed row deletion is an error.
func (s *Service) Delete(ctx context.Context, owner uuid.UUID, id int64) error {
	a, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return apperr.NotFound("asset.delete", msgNotFound)
		}
		return apperr.Read("asset.delete", msgLoadFailed, err)
	}

	if p := objectPathOf(a); p != "" {
		if err := s.store.Remove(ctx, p); err != nil {
			s.log.Warn("asset object removal failed", "asset_id", id, "object_path", p, "error", err)
		}
	}

	if err := s.repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return apperr.NotFound("asset.delete", msgNotFound)
		}
		return apperr.Write("asset.delete", msgDeleteFailed, err)
	}
	s.log.Info("asset deleted", "asset_id", id, "user_id", owner)
	return nil
}

func (s *Service) UpdateMetadata(ctx context.Context, owner uuid.UUID, id int64, form MetadataForm) (*Asset, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return nil, errs
	}
	if err := s.update(ctx, owner, id, form.Updates()); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner, id)
}

// Edit saves metadata and then reconciles categories to the desired set.
// A metadata failure stops before any link is touched.
func (s *Service) Edit(ctx context.Context, owner uuid.UUID, id int64, form EditForm) (*Asset, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return nil, errs
	}
	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategories(ctx, owner, form.CategoryIDs); err != nil {
		return nil, err
	}

	if err := s.update(ctx, owner, id, form.Updates()); err != nil {
		return nil, err
	}
	if _, err := s.reconciler.Apply(ctx, id, current.CategoryIDs(), form.CategoryIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner, id)
}

// SetCategories reconciles categories only.
func (s *Service) SetCategories(ctx context.Context, owner uuid.UUID, id int64, categoryIDs []int64) (*Asset, reconciler.Delta, error) {
	if len(categoryIDs) == 0 {
		return nil, reconciler.Delta{}, apperr.Validation("asset.categories", msgCategoriesRequired)
	}
	current, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, reconciler.Delta{}, err
	}
	if err := s.checkCategories(ctx, owner, categoryIDs); err != nil {
		return nil, reconciler.Delta{}, err
	}

	delta, err := s.reconciler.Apply(ctx, id, current.CategoryIDs(), categoryIDs)
	if err != nil {
		return nil, delta, err
	}
	out, err := s.Get(ctx, owner, id)
	return out, delta, err
}

func (s *Service) update(ctx context.Context, owner uuid.UUID, id int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, owner, id, fields); err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return apperr.NotFound("asset.update", msgNotFound)
		}
		return apperr.Write("asset.update", msgUpdateFailed, err)
	}
	return nil
}

func (s *Service) checkCategories(ctx context.Context, owner uuid.UUID, ids []int64) error {
	want := dedupe(ids)
	owned, err := s.categories.OwnedIDs(ctx, owner, want)
	if err != nil {
		return err
	}
	if len(owned) != len(want) {
		return apperr.Validation("asset.categories", msgUnknownCategory)
	}
	return nil
}

// sign fills SignedURL for every asset with bounded concurrency.
func (s *Service) sign(ctx context.Context, assets []Asset) {
	if len(assets) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(signConcurrency)
	for i := range assets {
		a := &assets[i]
		g.Go(func() error {
			s.signOne(ctx, a)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) signOne(ctx context.Context, a *Asset) {
	a.SignedURL = a.AssetURL
	p := objectPathOf(a)
	if p == "" {
		return
	}
	url, err := s.store.SignedURL(ctx, p, s.signedTTL)
	if err != nil {
		s.log.Warn("signed url failed, using stored url", "asset_id", a.ID, "object_path", p, "error", err)
		return
	}
	a.SignedURL = url
}

func stepErrors(steps []saga.StepError) []error {
	out := make([]error, 0, len(steps))
	for _, st := range steps {
		out = append(out, st)
	}
	return out
}

func objectPathOf(a *Asset) string {
	if a.ObjectPath != "" {
		return a.ObjectPath
	}
	return storage.ObjectPathFromURL(a.AssetURL)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
