package handlers

import (
	"errors"
	"fmt"
	"log"

	"gerai/internal/middleware"
	"gerai/internal/models"
	"gerai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the category routes with the Fiber app.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)

	admin := middleware.RoleRequired(models.RoleAdmin)
	categoryRoutes.Post("/", admin, h.HandleCreateCategory)
	categoryRoutes.Delete("/:id", admin, h.HandleDeleteCategory)
}

// HandleGetCategories retrieves all categories.
func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories()
	if err != nil {
		log.Printf("Error getting all categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve categories",
			"error":   err.Error(),
		})
	}
	return c.JSON(categories)
}

// HandleCreateCategory creates a new category (admin only).
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		log.Printf("Error parsing create category request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if err := h.service.CreateCategory(&category); err != nil {
		log.Printf("Error creating category: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create category",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleDeleteCategory deletes a category (admin only).
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	categoryID := c.Params("id")
	if err := h.service.DeleteCategory(categoryID); err != nil {
		log.Printf("Error deleting category %s: %v", categoryID, err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Category with ID %s not found", categoryID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete category",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Category %s deleted successfully", categoryID),
	})
}
