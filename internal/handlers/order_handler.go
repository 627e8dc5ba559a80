package handlers

import (
	"errors"
	"log"

	"gerai/internal/middleware"
	"gerai/internal/models"
	"gerai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. All of
// them sit behind AuthRequired; /all additionally requires the admin role.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/all", middleware.RoleRequired(models.RoleAdmin), h.HandleGetAllOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleCancelOrder)
}

// statusForOrderError maps the service error taxonomy to HTTP statuses.
func statusForOrderError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidState):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleGetMyOrders retrieves the authenticated caller's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)
	if callerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}

	orders, err := h.service.ListOrders(callerID)
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", callerID, err)
		return c.Status(statusForOrderError(err)).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetAllOrders retrieves every order in the store (admin only).
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(statusForOrderError(err)).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(statusForOrderError(err)).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order owned by the authenticated caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)
	if callerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}

	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Order must contain at least one item with a positive quantity",
			"error":   err.Error(),
		})
	}

	createdOrder, err := h.service.CreateOrder(callerID, req.Items)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", callerID, err)
		return c.Status(statusForOrderError(err)).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleUpdateOrder replaces the item set of a pending order owned by the
// caller.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)
	if callerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}
	orderID := c.Params("id")

	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Order must contain at least one item with a positive quantity",
			"error":   err.Error(),
		})
	}

	updatedOrder, err := h.service.UpdateOrder(orderID, callerID, req.Items)
	if err != nil {
		log.Printf("Error updating order %s: %v", orderID, err)
		return c.Status(statusForOrderError(err)).JSON(fiber.Map{
			"message": "Could not update order",
			"error":   err.Error(),
		})
	}

	return c.JSON(updatedOrder)
}

// HandleCancelOrder cancels a pending order owned by the caller, restoring
// its reserved stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)
	if callerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}
	orderID := c.Params("id")

	if err := h.service.CancelOrder(orderID, callerID); err != nil {
		log.Printf("Error canceling order %s: %v", orderID, err)
		return c.Status(statusForOrderError(err)).JSON(fiber.Map{
			"message": "Could not cancel order",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Order canceled successfully",
		"order_id": orderID,
	})
}
