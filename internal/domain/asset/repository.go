package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"figureit/internal/domain/category"
)

var ErrAssetNotFound = errors.New("asset not found")

type Repository interface {
	List(ctx context.Context, owner uuid.UUID, kind Kind) ([]Asset, error)
	Get(ctx context.Context, owner uuid.UUID, id int64) (*Asset, error)
	Create(ctx context.Context, a *Asset) error
	Update(ctx context.Context, owner uuid.UUID, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, owner uuid.UUID, id int64) error
	AddLinks(ctx context.Context, assetID int64, categoryIDs []int64) error
	RemoveLinks(ctx context.Context, assetID int64, categoryIDs []int64) error
}

type AssetRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

type assetModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;index;not null"`
	Filename        string    `gorm:"column:filename"`
	AssetType       string    `gorm:"column:asset_type;index;not null"`
	AssetStatus     string    `gorm:"column:asset_status;not null;default:inventory"`
	Title           string    `gorm:"column:title;not null"`
	Description     string    `gorm:"column:description"`
	Price           *float64  `gorm:"column:price"`
	DiscountedPrice *float64  `gorm:"column:discounted_price"`
	AssetURL        string    `gorm:"column:asset_url;not null"`
	ObjectPath      string    `gorm:"column:object_path"`
	CreatedAt       time.Time `gorm:"column:created_at;index"`
}

func (assetModel) TableName() string { return "assets" }

type linkModel struct {
	AssetID    int64       `gorm:"column:asset_id;primaryKey;autoIncrement:false"`
	CategoryID int64       `gorm:"column:category_id;primaryKey;autoIncrement:false;index"`
	Asset      *assetModel `gorm:"foreignKey:AssetID;references:ID;constraint:OnDelete:CASCADE"`
}

func (linkModel) TableName() string { return "asset_categories" }

// Models lists the tables owned by this package in migration order.
func Models() []interface{} {
	return []interface{}{&assetModel{}, &linkModel{}}
}

func toDomain(m assetModel) Asset {
	return Asset{
		ID:              m.ID,
		UserID:          m.UserID,
		Filename:        m.Filename,
		Type:            Kind(m.AssetType),
		Status:          Status(m.AssetStatus),
		Title:           m.Title,
		Description:     m.Description,
		Price:           m.Price,
		DiscountedPrice: m.DiscountedPrice,
		AssetURL:        m.AssetURL,
		ObjectPath:      m.ObjectPath,
		CreatedAt:       m.CreatedAt,
		Categories:      []category.Category{},
	}
}

func toModel(a *Asset) assetModel {
	return assetModel{
		ID:              a.ID,
		UserID:          a.UserID,
		Filename:        a.Filename,
		AssetType:       string(a.Type),
		AssetStatus:     string(a.Status),
		Title:           a.Title,
		Description:     a.Description,
		Price:           a.Price,
		DiscountedPrice: a.DiscountedPrice,
		AssetURL:        a.AssetURL,
		ObjectPath:      a.ObjectPath,
		CreatedAt:       a.CreatedAt,
	}
}

// List returns the owner's assets newest first, categories included.
func (r *AssetRepository) List(ctx context.Context, owner uuid.UUID, kind Kind) ([]Asset, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", owner)
	if kind != "" {
		q = q.Where("asset_type = ?", string(kind))
	}

	var rows []assetModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Asset, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomain(m))
	}
	if err := r.hydrate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AssetRepository) Get(ctx context.Context, owner uuid.UUID, id int64) (*Asset, error) {
	var m assetModel
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	out := []Asset{toDomain(m)}
	if err := r.hydrate(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r *AssetRepository) Create(ctx context.Context, a *Asset) error {
	m := toModel(a)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	cats := a.Categories
	*a = toDomain(m)
	if cats != nil {
		a.Categories = cats
	}
	return nil
}

func (r *AssetRepository) Update(ctx context.Context, owner uuid.UUID, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&assetModel{}).
		Where("id = ? AND user_id = ?", id, owner).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// Delete removes the asset's links and the asset row in one transaction.
func (r *AssetRepository) Delete(ctx context.Context, owner uuid.UUID, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m assetModel
		err := tx.Select("id").Where("id = ? AND user_id = ?", id, owner).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssetNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("asset_id = ?", id).Delete(&linkModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&assetModel{}, id).Error
	})
}

// AddLinks inserts links, skipping pairs that already exist.
func (r *AssetRepository) AddLinks(ctx context.Context, assetID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]linkModel, 0, len(categoryIDs))
	for _, cid := range categoryIDs {
		rows = append(rows, linkModel{AssetID: assetID, CategoryID: cid})
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *AssetRepository) RemoveLinks(ctx context.Context, assetID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("asset_id = ? AND category_id IN ?", assetID, categoryIDs).
		Delete(&linkModel{}).Error
}

type linkedCategory struct {
	AssetID   int64
	ID        int64
	UserID    uuid.UUID
	Category  string
	CreatedAt time.Time
}

// hydrate fills Categories with one join over the link table.
func (r *AssetRepository) hydrate(ctx context.Context, assets []Asset) error {
	if len(assets) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(assets))
	index := make(map[int64]int, len(assets))
	for i := range assets {
		ids = append(ids, assets[i].ID)
		index[assets[i].ID] = i
	}

	var rows []linkedCategory
	err := r.db.WithContext(ctx).
		Table("asset_categories AS ac").
		Select("ac.asset_id, c.id, c.user_id, c.category, c.created_at").
		Joins("JOIN categories AS c ON c.id = ac.category_id").
		Where("ac.asset_id IN ?", ids).
		Order("c.category ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		i := index[row.AssetID]
		assets[i].Categories = append(assets[i].Categories, category.Category{
			ID:        row.ID,
			UserID:    row.UserID,
			Name:      row.Category,
			CreatedAt: row.CreatedAt,
		})
	}
	return nil
}
