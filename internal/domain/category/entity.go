package category

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Order selects how a category listing is sorted.
type Order string

const (
	OrderCreatedDesc Order = "created_desc"
	OrderCreatedAsc  Order = "created_asc"
	OrderName        Order = "name"
)

// ParseOrder maps a query value to an Order. Unknown and empty values
// fall back to newest first.
func ParseOrder(s string) Order {
	switch Order(s) {
	case OrderCreatedAsc, OrderName:
		return Order(s)
	default:
		return OrderCreatedDesc
	}
}
