package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusPending is the only status in which an order's items may be changed
// or the order canceled. There is no other stored status: a canceled or
// deleted order is removed from the store together with its items.
const StatusPending = "pending"

// OrderItem represents a single line item within an order. Price is the
// unit price captured when the item entered the order, deliberately
// decoupled from the product's current price.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string          `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
}

// Order represents a customer order together with its line items.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string          `json:"user_id" gorm:"index;type:varchar(36)"`
	Items       []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	Status      string          `json:"status" gorm:"type:varchar(20)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Mutable reports whether the order may still be changed or canceled.
func (o *Order) Mutable() bool {
	return o.Status == StatusPending
}

// ComputeTotal recalculates the order total from scratch as the sum of
// quantity times snapshot price over all current items. Always a full
// recomputation, never an incremental patch, so the total cannot drift.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
