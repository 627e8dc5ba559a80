package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store. Stock is only ever mutated
// through the inventory ledger, which guarantees it never goes negative.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  string          `json:"category_id" gorm:"type:varchar(36)" validate:"omitempty,uuid"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	ImageURL    string          `json:"image_url,omitempty"`
	gorm.Model                  // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
