package repositories

import (
	"gerai/internal/models"
)

// ProductRepository defines the interface for product data access. It is
// the Catalog collaborator of the order core; stock writes go through it
// but are only ever issued by the inventory ledger.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
