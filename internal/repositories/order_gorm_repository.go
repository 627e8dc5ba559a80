package repositories

import (
	"errors"
	"fmt"
	"time"

	"gerai/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository. Item-set
// replacement and aggregate deletion run inside a transaction so an order
// is never observable with a partial item set.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their items.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetAllByUser retrieves all orders belonging to one user.
func (r *GORMOrderRepository) GetAllByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Find(&orders, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create persists a new order and its items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update replaces the stored order with the given one, items included. The
// old items are removed and the current set inserted in one transaction.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	order.UpdatedAt = time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Order
		if err := tx.First(&existing, "id = ?", order.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %s: %w", order.ID, models.ErrNotFound)
			}
			return err
		}
		if err := tx.Delete(&models.OrderItem{}, "order_id = ?", order.ID).Error; err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = order.ID
		}
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	return nil
}

// Delete removes an order and its items.
func (r *GORMOrderRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.OrderItem{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}
