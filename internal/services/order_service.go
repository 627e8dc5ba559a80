package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gerai/internal/inventory"
	"gerai/internal/models"
	"gerai/internal/repositories"
	"gerai/pkg/kmutex"

	"github.com/google/uuid"
)

// EventPublisher publishes order lifecycle events to a message broker. A
// publish failure never fails the order operation; it is logged and the
// event dropped.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderService composes the inventory ledger and the order store into the
// order operations exposed to the boundary layer. It owns the compensation
// logic: any stock reserved before a failure is released again on every
// exit path, so a failed call leaves stock exactly as it found it.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	ledger      *inventory.Ledger
	publisher   EventPublisher
	orderLocks  *kmutex.KMutex
}

// NewOrderService creates a new OrderService. publisher may be nil, in
// which case no events are emitted.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, ledger *inventory.Ledger, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ledger:      ledger,
		publisher:   publisher,
		orderLocks:  kmutex.New(),
	}
}

// reservation records one committed ledger decrement so it can be undone.
type reservation struct {
	productID string
	quantity  int
}

// releaseAll compensates a list of committed reservations, most recent
// first. A failed release means stock stays conservatively low; it can
// never cause an overdraw, so we log and keep going.
func (s *OrderService) releaseAll(reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.ledger.Release(r.productID, r.quantity); err != nil {
			log.Printf("Failed to release %d of product %s during compensation: %v", r.quantity, r.productID, err)
		}
	}
}

func validateItems(items []models.OrderItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("order must contain at least one item: %w", models.ErrValidation)
	}
	for _, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("item product id is required: %w", models.ErrValidation)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item quantity must be positive, got %d: %w", item.Quantity, models.ErrValidation)
		}
	}
	return nil
}

// CreateOrder validates the requested items, reserves stock for each of
// them in the given order, and persists the resulting pending order. Items
// are checked one at a time, aborting at the first failure; every
// reservation already made for this call is then released, so the call is
// all-or-nothing with respect to stock.
func (s *OrderService) CreateOrder(ownerID string, items []models.OrderItemRequest) (*models.OrderResponse, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	var reserved []reservation
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.ledger.Reserve(item.ProductID, item.Quantity)
		if err != nil {
			s.releaseAll(reserved)
			return nil, err
		}
		reserved = append(reserved, reservation{productID: item.ProductID, quantity: item.Quantity})
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price, // Price snapshot at order-creation time
		})
	}

	order := &models.Order{
		ID:     uuid.New().String(),
		UserID: ownerID,
		Items:  orderItems,
		Status: models.StatusPending,
	}
	order.TotalAmount = order.ComputeTotal()

	if err := s.orderRepo.Create(order); err != nil {
		s.releaseAll(reserved)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.publishEvent("order.created", order)
	return s.materialize(order), nil
}

// GetOrder returns one order with full item and product detail.
func (s *OrderService) GetOrder(id string) (*models.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.materialize(order), nil
}

// ListOrders returns all orders belonging to ownerID.
func (s *OrderService) ListOrders(ownerID string) ([]models.OrderResponse, error) {
	orders, err := s.orderRepo.GetAllByUser(ownerID)
	if err != nil {
		return nil, err
	}
	return s.materializeAll(orders), nil
}

// ListAllOrders returns every order in the store. Restricting this to
// admins is the boundary layer's job.
func (s *OrderService) ListAllOrders() ([]models.OrderResponse, error) {
	orders, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}
	return s.materializeAll(orders), nil
}

// UpdateOrder replaces the item set of a pending order owned by callerID.
//
// The release of the old items and the reservation of the new set form one
// logical unit. Rather than releasing first and hoping to re-reserve on
// failure (which another order could make impossible), the new set is
// staged against net deltas: quantity the order already holds for a product
// counts as credit, only the excess is reserved from the ledger, and
// leftover old quantity is released only after the replacement has been
// fully staged and persisted. A failure at any point therefore rolls back
// to the exact pre-update stock.
func (s *OrderService) UpdateOrder(id, callerID string, items []models.OrderItemRequest) (*models.OrderResponse, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	s.orderLocks.Lock(id)
	defer s.orderLocks.Unlock(id)

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if !order.Mutable() {
		return nil, fmt.Errorf("order %s has status %q: %w", id, order.Status, models.ErrInvalidState)
	}

	// Quantity already held per product by the current items.
	credit := make(map[string]int)
	for _, item := range order.Items {
		credit[item.ProductID] += item.Quantity
	}

	var reserved []reservation
	newItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		use := item.Quantity
		if use > credit[item.ProductID] {
			use = credit[item.ProductID]
		}
		toReserve := item.Quantity - use

		var product *models.Product
		if toReserve > 0 {
			product, err = s.ledger.Reserve(item.ProductID, toReserve)
		} else {
			product, err = s.productRepo.GetByID(item.ProductID)
		}
		if err != nil {
			s.releaseAll(reserved)
			return nil, err
		}
		if toReserve > 0 {
			reserved = append(reserved, reservation{productID: item.ProductID, quantity: toReserve})
		}
		credit[item.ProductID] -= use

		newItems = append(newItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price, // Fresh snapshot for the replacement set
		})
	}

	order.Items = newItems
	order.TotalAmount = order.ComputeTotal()
	if err := s.orderRepo.Update(order); err != nil {
		s.releaseAll(reserved)
		return nil, fmt.Errorf("failed to persist order update: %w", err)
	}

	// The replacement is committed; return the old quantity the new set no
	// longer needs. See releaseAll for why failures here only log.
	for productID, quantity := range credit {
		if quantity <= 0 {
			continue
		}
		if err := s.ledger.Release(productID, quantity); err != nil {
			log.Printf("Failed to release %d of product %s after order %s update: %v", quantity, productID, id, err)
		}
	}

	s.publishEvent("order.updated", order)
	return s.materialize(order), nil
}

// CancelOrder deletes a pending order owned by callerID and restores the
// stock held by its items. The order is removed before stock is returned
// so a failure between the two steps can never leave the same units both
// held by the order and back on the shelf. The trade-off: a crash between
// the delete and the releases leaves stock under-counted until it is
// reconciled by hand, since failed releases are only logged, not retried.
func (s *OrderService) CancelOrder(id, callerID string) error {
	s.orderLocks.Lock(id)
	defer s.orderLocks.Unlock(id)

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if order.UserID != callerID {
		return fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if !order.Mutable() {
		return fmt.Errorf("order %s has status %q: %w", id, order.Status, models.ErrInvalidState)
	}

	if err := s.orderRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	for _, item := range order.Items {
		if err := s.ledger.Release(item.ProductID, item.Quantity); err != nil {
			log.Printf("Failed to release %d of product %s for canceled order %s: %v", item.Quantity, item.ProductID, id, err)
		}
	}

	s.publishEvent("order.cancelled", order)
	return nil
}

// materialize builds the boundary-facing view of an order, embedding the
// current product detail for each line item. A product deleted since the
// order was placed simply has no detail; the captured price and quantity
// remain.
func (s *OrderService) materialize(order *models.Order) *models.OrderResponse {
	resp := &models.OrderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		Items:       make([]models.OrderItemResponse, 0, len(order.Items)),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
	for _, item := range order.Items {
		itemResp := models.OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if product, err := s.productRepo.GetByID(item.ProductID); err == nil {
			detail := &models.ProductDetail{
				ID:          product.ID,
				Name:        product.Name,
				Description: product.Description,
				Price:       product.Price,
				CategoryID:  product.CategoryID,
				ImageURL:    product.ImageURL,
			}
			if product.Category != nil {
				detail.CategoryName = product.Category.Name
			}
			itemResp.Product = detail
		} else if !errors.Is(err, models.ErrNotFound) {
			log.Printf("Failed to load product %s for order %s: %v", item.ProductID, order.ID, err)
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}

func (s *OrderService) materializeAll(orders []models.Order) []models.OrderResponse {
	responses := make([]models.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *s.materialize(&orders[i]))
	}
	return responses
}

// publishEvent emits an order lifecycle event. Fire-and-forget: a broker
// problem must not fail an order operation that already committed.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.TotalAmount,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.publisher.Publish("order", routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
