package services_test

import (
	"sync"
	"testing"

	"gerai/internal/inventory"
	"gerai/internal/models"
	"gerai/internal/repositories"
	"gerai/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

type orderFixture struct {
	service     *services.OrderService
	productRepo *repositories.MockProductRepository
	orderRepo   *repositories.MockOrderRepository
}

func newOrderFixture(t *testing.T, products ...models.Product) *orderFixture {
	t.Helper()
	productRepo := repositories.NewMockProductRepository()
	for i := range products {
		require.NoError(t, productRepo.Create(&products[i]))
	}
	orderRepo := repositories.NewMockOrderRepository()
	ledger := inventory.NewLedger(productRepo)
	return &orderFixture{
		service:     services.NewOrderService(orderRepo, productRepo, ledger, nil),
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

func (f *orderFixture) stock(t *testing.T, productID string) int {
	t.Helper()
	product, err := f.productRepo.GetByID(productID)
	require.NoError(t, err)
	return product.Stock
}

func product(id string, price float64, stock int) models.Product {
	return models.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t,
		product("p1", 10.00, 5),
		product("p2", 2.50, 8),
	)

	order, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p2", Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	// Total is the sum of quantity times captured unit price.
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(35.00)),
		"expected total 35.00, got %s", order.TotalAmount)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromFloat(10.00)))
	// Embedded product detail is present for existing products.
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Product p1", order.Items[0].Product.Name)

	assert.Equal(t, 2, f.stock(t, "p1"))
	assert.Equal(t, 6, f.stock(t, "p2"))
}

func TestOrderService_CreateOrderEmptyItems(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	_, err := f.service.CreateOrder("user-1", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 5, f.stock(t, "p1"))

	orders, err := f.orderRepo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_CreateOrderNonPositiveQuantity(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	_, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 0},
	})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 5, f.stock(t, "p1"))
}

// A missing product aborts the create at that item and releases every
// reservation already made for the call.
func TestOrderService_CreateOrderUnknownProductCompensates(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	_, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "missing", Quantity: 1},
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 5, f.stock(t, "p1"))

	orders, err := f.orderRepo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_CreateOrderInsufficientStockCompensates(t *testing.T) {
	f := newOrderFixture(t,
		product("p1", 10.00, 5),
		product("p2", 4.00, 1),
	)

	_, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 4},
		{ProductID: "p2", Quantity: 3},
	})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	// The p1 reservation made before the failure is rolled back.
	assert.Equal(t, 5, f.stock(t, "p1"))
	assert.Equal(t, 1, f.stock(t, "p2"))
}

func TestOrderService_CreateOrderPublishesEvent(t *testing.T) {
	productRepo := repositories.NewMockProductRepository()
	p := product("p1", 10.00, 5)
	require.NoError(t, productRepo.Create(&p))
	orderRepo := repositories.NewMockOrderRepository()
	publisher := new(MockPublisher)
	publisher.On("Publish", "order", "order.created", mock.Anything).Return(nil).Once()

	service := services.NewOrderService(orderRepo, productRepo, inventory.NewLedger(productRepo), publisher)
	_, err := service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

// The unit price is captured at order time; a later product price change
// must not alter the order.
func TestOrderService_PriceSnapshotIsStable(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 3},
	})
	require.NoError(t, err)

	p, err := f.productRepo.GetByID("p1")
	require.NoError(t, err)
	p.Price = decimal.NewFromFloat(99.00)
	require.NoError(t, f.productRepo.Update(p))

	fetched, err := f.service.GetOrder(created.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Items[0].Price.Equal(decimal.NewFromFloat(10.00)))
	assert.True(t, fetched.TotalAmount.Equal(decimal.NewFromFloat(30.00)))
	// The embedded detail shows the current price.
	require.NotNil(t, fetched.Items[0].Product)
	assert.True(t, fetched.Items[0].Product.Price.Equal(decimal.NewFromFloat(99.00)))
}

func TestOrderService_GetOrderNotFound(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.service.GetOrder("no-such-order")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOrderService_ListOrdersScopedToOwner(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 20))

	_, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	_, err = f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	_, err = f.service.CreateOrder("user-2", []models.OrderItemRequest{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)

	mine, err := f.service.ListOrders("user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.service.ListAllOrders()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrderService_UpdateOrderOwnerMismatch(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	_, err = f.service.UpdateOrder(created.ID, "someone-else", []models.OrderItemRequest{{ProductID: "p1", Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 3, f.stock(t, "p1"))
}

func TestOrderService_UpdateOrderInvalidState(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	// Force the order out of the pending state behind the service's back.
	stored, err := f.orderRepo.GetByID(created.ID)
	require.NoError(t, err)
	stored.Status = "shipped"
	require.NoError(t, f.orderRepo.Update(stored))

	_, err = f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, 3, f.stock(t, "p1"))

	err = f.service.CancelOrder(created.ID, "user-1")
	assert.ErrorIs(t, err, models.ErrInvalidState)

	unchanged, err := f.orderRepo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Len(t, unchanged.Items, 1)
	assert.Equal(t, 2, unchanged.Items[0].Quantity)
}

// Shrinking a line item releases only the difference; growing one reserves
// only the difference.
func TestOrderService_UpdateOrderNetDeltas(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(t, "p1"))

	updated, err := f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(20.00)))
	assert.Equal(t, 3, f.stock(t, "p1"))

	updated, err = f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 4}})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(40.00)))
	assert.Equal(t, 1, f.stock(t, "p1"))
}

// An update can grow a line item past the free stock as long as the order's
// own holding covers the difference.
func TestOrderService_UpdateOrderReusesOwnHolding(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 3))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)
	require.Equal(t, 0, f.stock(t, "p1"))

	// Free stock is zero, but shrinking to 2 only needs the order's own units.
	updated, err := f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(20.00)))
	assert.Equal(t, 1, f.stock(t, "p1"))
}

// A failed update must leave both the order and all stock exactly as they
// were, including reservations staged earlier in the same call.
func TestOrderService_UpdateOrderFailureRollsBack(t *testing.T) {
	f := newOrderFixture(t,
		product("p1", 10.00, 5),
		product("p2", 4.00, 2),
	)

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	require.Equal(t, 3, f.stock(t, "p1"))

	_, err = f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 3}, // stages one more unit of p1
		{ProductID: "p2", Quantity: 5}, // fails: only 2 in stock
	})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	assert.Equal(t, 3, f.stock(t, "p1"))
	assert.Equal(t, 2, f.stock(t, "p2"))

	unchanged, err := f.orderRepo.GetByID(created.ID)
	require.NoError(t, err)
	require.Len(t, unchanged.Items, 1)
	assert.Equal(t, "p1", unchanged.Items[0].ProductID)
	assert.Equal(t, 2, unchanged.Items[0].Quantity)
	assert.True(t, unchanged.TotalAmount.Equal(decimal.NewFromFloat(20.00)))
}

func TestOrderService_CancelOrderRestoresStock(t *testing.T) {
	f := newOrderFixture(t,
		product("p1", 10.00, 5),
		product("p2", 4.00, 8),
	)

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.CancelOrder(created.ID, "user-1"))

	_, err = f.service.GetOrder(created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 5, f.stock(t, "p1"))
	assert.Equal(t, 8, f.stock(t, "p2"))
}

func TestOrderService_CancelOrderOwnerMismatch(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	err = f.service.CancelOrder(created.ID, "someone-else")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 3, f.stock(t, "p1"))
}

// Walkthrough: create, failed second create, shrink via update, cancel.
func TestOrderService_FullLifecycleScenario(t *testing.T) {
	f := newOrderFixture(t, product("p1", 10.00, 5))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromFloat(30.00)))
	assert.Equal(t, 2, f.stock(t, "p1"))

	_, err = f.service.CreateOrder("user-2", []models.OrderItemRequest{{ProductID: "p1", Quantity: 3}})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, 2, f.stock(t, "p1"))

	updated, err := f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(20.00)))
	assert.Equal(t, 3, f.stock(t, "p1"))

	require.NoError(t, f.service.CancelOrder(created.ID, "user-1"))
	assert.Equal(t, 5, f.stock(t, "p1"))
}

// N concurrent creates racing for the last unit: exactly one wins, the
// rest fail with insufficient stock and no stock is lost.
func TestOrderService_ConcurrentCreatesLastUnit(t *testing.T) {
	const racers = 16
	f := newOrderFixture(t, product("p1", 10.00, 1))

	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 1}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, f.stock(t, "p1"))

	orders, err := f.orderRepo.GetAll()
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// Concurrent updates against the same order serialize; stock is conserved
// whatever the winning interleaving.
func TestOrderService_ConcurrentUpdatesSameOrder(t *testing.T) {
	const racers = 8
	f := newOrderFixture(t, product("p1", 10.00, 20))

	created, err := f.service.CreateOrder("user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: 5}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			_, err := f.service.UpdateOrder(created.ID, "user-1", []models.OrderItemRequest{{ProductID: "p1", Quantity: quantity}})
			assert.NoError(t, err)
		}(i + 1)
	}
	wg.Wait()

	final, err := f.orderRepo.GetByID(created.ID)
	require.NoError(t, err)
	require.Len(t, final.Items, 1)
	// Whichever update landed last, held + free must equal the baseline.
	assert.Equal(t, 20, final.Items[0].Quantity+f.stock(t, "p1"))
}
