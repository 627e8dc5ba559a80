package services

import (
	"fmt"

	"gerai/internal/models"
	"gerai/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo         repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product. The referenced category must exist.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(product.CategoryID); err != nil {
			return fmt.Errorf("invalid category %s: %w", product.CategoryID, err)
		}
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if product.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(product.CategoryID); err != nil {
			return fmt.Errorf("invalid category %s: %w", product.CategoryID, err)
		}
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
