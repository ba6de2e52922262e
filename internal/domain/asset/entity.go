package asset

import (
	"time"

	"github.com/google/uuid"

	"figureit/internal/domain/category"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// MaxSize is the upload limit for a kind in bytes.
func (k Kind) MaxSize() int64 {
	if k == KindVideo {
		return 50 << 20
	}
	return 10 << 20
}

// ParseKindFilter maps the listing filter. "all" and "" mean no filter and
// return an empty Kind.
func ParseKindFilter(s string) (Kind, bool) {
	switch s {
	case "", "all":
		return "", true
	case string(KindImage), string(KindVideo):
		return Kind(s), true
	default:
		return "", false
	}
}

type Status string

const (
	StatusInventory Status = "inventory"
	StatusSold      Status = "sold"
)

type Asset struct {
	ID              int64               `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Filename        string              `json:"filename"`
	Type            Kind                `json:"asset_type"`
	Status          Status              `json:"asset_status"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Price           *float64            `json:"price"`
	DiscountedPrice *float64            `json:"discounted_price"`
	AssetURL        string              `json:"asset_url"`
	ObjectPath      string              `json:"object_path"`
	CreatedAt       time.Time           `json:"created_at"`
	Categories      []category.Category `json:"categories"`
	// SignedURL is a time-limited read URL, or AssetURL when signing failed.
	SignedURL string `json:"signed_url"`
}

// CategoryIDs returns the IDs of the hydrated categories.
func (a *Asset) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(a.Categories))
	for _, c := range a.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// CreateResult is a created asset plus the warning of a partial create.
type CreateResult struct {
	Asset   *Asset `json:"asset"`
	Warning string `json:"-"`
}
