// Package inventory owns product stock counts. The Ledger is the only
// component allowed to change a product's stock; all order flows reserve
// and release through it.
package inventory

import (
	"fmt"

	"gerai/internal/models"
	"gerai/internal/repositories"
	"gerai/pkg/kmutex"
)

// Ledger performs atomic check-and-decrement reservations against product
// stock. Reservations against the same product serialize on a per-product
// mutex; different products proceed independently. A reservation is
// durable as soon as Reserve returns: there is no separate hold phase, and
// undoing one is an explicit Release.
type Ledger struct {
	products repositories.ProductRepository
	locks    *kmutex.KMutex
}

// NewLedger creates a Ledger over the given product repository.
func NewLedger(products repositories.ProductRepository) *Ledger {
	return &Ledger{
		products: products,
		locks:    kmutex.New(),
	}
}

// Reserve atomically decrements the product's stock by quantity. It fails
// with models.ErrNotFound if the product does not exist and with
// models.ErrInsufficientStock if quantity exceeds the current stock, in
// which case stock is untouched. On success it returns the product as read
// under the lock, so the caller can capture the price that corresponds to
// the reserved stock without a second lookup.
func (l *Ledger) Reserve(productID string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("reserve quantity must be positive, got %d: %w", quantity, models.ErrValidation)
	}

	l.locks.Lock(productID)
	defer l.locks.Unlock(productID)

	product, err := l.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("product %s has %d in stock, %d requested: %w",
			productID, product.Stock, quantity, models.ErrInsufficientStock)
	}

	product.Stock -= quantity
	if err := l.products.Update(product); err != nil {
		return nil, fmt.Errorf("failed to commit reservation for product %s: %w", productID, err)
	}
	return product, nil
}

// Release atomically increments the product's stock by quantity. It is the
// compensating action for Reserve: used when a multi-item reservation
// fails partway, when an order shrinks on update, and on cancellation.
func (l *Ledger) Release(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d: %w", quantity, models.ErrValidation)
	}

	l.locks.Lock(productID)
	defer l.locks.Unlock(productID)

	product, err := l.products.GetByID(productID)
	if err != nil {
		return err
	}
	product.Stock += quantity
	if err := l.products.Update(product); err != nil {
		return fmt.Errorf("failed to release stock for product %s: %w", productID, err)
	}
	return nil
}
