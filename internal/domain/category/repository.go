package category

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, owner uuid.UUID, order Order) ([]Category, error)
	Create(ctx context.Context, c *Category) error
	OwnedIDs(ctx context.Context, owner uuid.UUID, ids []int64) ([]int64, error)
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

type categoryModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;index;not null"`
	Name      string    `gorm:"column:category;not null"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (categoryModel) TableName() string { return "categories" }

// Model is the gorm model for migrations.
func Model() interface{} { return &categoryModel{} }

func toDomain(m categoryModel) Category {
	return Category{ID: m.ID, UserID: m.UserID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func (r *CategoryRepository) List(ctx context.Context, owner uuid.UUID, order Order) ([]Category, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", owner)
	switch order {
	case OrderCreatedAsc:
		q = q.Order("created_at ASC").Order("id ASC")
	case OrderName:
		q = q.Order("LOWER(category) ASC").Order("id ASC")
	default:
		q = q.Order("created_at DESC").Order("id DESC")
	}

	var rows []categoryModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomain(m))
	}
	return out, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	m := categoryModel{UserID: c.UserID, Name: c.Name, CreatedAt: c.CreatedAt}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*c = toDomain(m)
	return nil
}

// OwnedIDs returns the subset of ids that belong to owner.
func (r *CategoryRepository) OwnedIDs(ctx context.Context, owner uuid.UUID, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	var out []int64
	err := r.db.WithContext(ctx).Model(&categoryModel{}).
		Where("user_id = ? AND id IN ?", owner, ids).
		Order("id ASC").
		Pluck("id", &out).Error
	return out, err
}
