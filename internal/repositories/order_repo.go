package repositories

import (
	"gerai/internal/models"
)

// OrderRepository defines the interface for order data access. Create,
// Update and Delete act on the whole aggregate: an order together with its
// line items, atomically. Update replaces the stored item set with the
// order's current one.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetAllByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	Update(order *models.Order) error
	Delete(id string) error
}
