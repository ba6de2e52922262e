package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"figureit/internal/database"
)

// Repository is the persistence the auth service needs.
type Repository interface {
	CreateAccount(ctx context.Context, u *User, p *Profile) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	ListAccounts(ctx context.Context) ([]Account, error)
	CreateResetToken(ctx context.Context, t *PasswordResetToken) error
	ConsumeResetToken(ctx context.Context, hash string, now time.Time) (*PasswordResetToken, error)
	DeleteStaleResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount inserts the user and its profile in one transaction.
func (r *GormRepository) CreateAccount(ctx context.Context, u *User, p *Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u.Email = normalizeEmail(u.Email)
		if err := tx.Create(u).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailAlreadyExists
			}
			return err
		}
		p.ID = u.ID
		return tx.Create(p).Error
	})
}

func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": hash,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	var users []User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []Account{}, nil
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	var profiles []Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
	}

	out := make([]Account, 0, len(users))
	for i := range users {
		out = append(out, Account{User: &users[i], Profile: byID[users[i].ID]})
	}
	return out, nil
}

func (r *GormRepository) CreateResetToken(ctx context.Context, t *PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ConsumeResetToken marks a live token as used and returns it. Expired,
// used and unknown tokens all yield ErrInvalidResetToken.
func (r *GormRepository) ConsumeResetToken(ctx context.Context, hash string, now time.Time) (*PasswordResetToken, error) {
	var out PasswordResetToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t PasswordResetToken
		err := tx.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", hash, now).
			First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}

		res := tx.Model(&PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", t.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidResetToken
		}
		t.UsedAt = &now
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStaleResetTokens removes used and expired reset tokens.
func (r *GormRepository) DeleteStaleResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("used_at IS NOT NULL OR expires_at <= ?", now).
		Delete(&PasswordResetToken{})
	return res.RowsAffected, res.Error
}
