// Package category is the Category Registry: the owner's flat list of
// category names used to tag assets.
package category

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/logger"
)

type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, owner uuid.UUID, order Order) ([]Category, error) {
	cats, err := s.repo.List(ctx, owner, order)
	if err != nil {
		return nil, apperr.Read("category.list", msgLoadFailed, err)
	}
	return cats, nil
}

// Create adds a category after checking the name against a fresh listing.
// The check is local: two concurrent creators can both pass it.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("category.create", msgNameRequired)
	}

	existing, err := s.repo.List(ctx, owner, OrderCreatedDesc)
	if err != nil {
		return nil, apperr.Read("category.create", msgLoadFailed, err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return nil, apperr.Duplicate("category.create", msgDuplicate)
		}
	}

	c := &Category{UserID: owner, Name: name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.Write("category.create", msgCreateFailed, err)
	}
	s.log.Info("category created", "user_id", owner, "category_id", c.ID)
	return c, nil
}

// OwnedIDs reports which of ids belong to owner.
func (s *Service) OwnedIDs(ctx context.Context, owner uuid.UUID, ids []int64) ([]int64, error) {
	owned, err := s.repo.OwnedIDs(ctx, owner, ids)
	if err != nil {
		return nil, apperr.Read("category.owned", msgLoadFailed, err)
	}
	return owned, nil
}
