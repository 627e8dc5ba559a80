package handlers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gerai/internal/middleware"
	"gerai/internal/models"
	"gerai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service   *services.ProductService
	validate  *validator.Validate
	uploadDir string
}

// NewProductHandler creates a new ProductHandler. uploadDir is where
// product images are stored.
func NewProductHandler(service *services.ProductService, uploadDir string) *ProductHandler {
	return &ProductHandler{
		service:   service,
		validate:  validator.New(),
		uploadDir: uploadDir,
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Reads
// are open to any authenticated user; writes require the admin role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	admin := middleware.RoleRequired(models.RoleAdmin)
	productRoutes.Post("/", admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", admin, h.HandleDeleteProduct)
	productRoutes.Post("/:id/image", admin, h.HandleUploadImage)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		log.Printf("Error getting product by ID %s: %v", productID, err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product (admin only).
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	if product.Price.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Price must not be negative",
		})
	}

	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid category",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product (admin only).
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")

	existing, err := h.service.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing update product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = productID
	product.ImageURL = existing.ImageURL
	product.Model = existing.Model

	if err := h.validate.Struct(product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	if product.Price.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Price must not be negative",
		})
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		log.Printf("Error updating product %s: %v", productID, err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}

	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID (admin only).
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(productID); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", productID),
	})
}

// HandleUploadImage attaches an image to a product (admin only). The file
// is stored under the upload directory with a generated name and served
// statically.
func (h *ProductHandler) HandleUploadImage(c *fiber.Ctx) error {
	productID := c.Params("id")

	product, err := h.service.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Image file is required",
			"error":   err.Error(),
		})
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		log.Printf("Error creating upload directory %s: %v", h.uploadDir, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not store image",
			"error":   err.Error(),
		})
	}

	fileName := uuid.New().String() + filepath.Ext(file.Filename)
	if err := c.SaveFile(file, filepath.Join(h.uploadDir, fileName)); err != nil {
		log.Printf("Error saving image for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not store image",
			"error":   err.Error(),
		})
	}

	product.ImageURL = "/images/" + fileName
	if err := h.service.UpdateProduct(product); err != nil {
		log.Printf("Error updating product %s with image: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product image",
			"error":   err.Error(),
		})
	}

	return c.JSON(product)
}
