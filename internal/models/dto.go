package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest is one product/quantity pair in a create or update
// request.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// OrderRequest is the request body for creating an order or replacing an
// existing order's item set.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ProductDetail is the product view embedded in order responses.
type ProductDetail struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   string          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// OrderItemResponse is a line item with its captured price and, when the
// product still exists, its full current detail.
type OrderItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *ProductDetail  `json:"product,omitempty"`
}

// OrderResponse is the materialized order returned to the boundary layer.
type OrderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
