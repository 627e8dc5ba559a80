package services

import (
	"gerai/internal/models"
	"gerai/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{
		repo: repo,
	}
}

// GetAllCategories retrieves all categories.
func (s *CategoryService) GetAllCategories() ([]models.Category, error) {
	return s.repo.GetAll()
}

// GetCategoryByID retrieves a single category by its ID.
func (s *CategoryService) GetCategoryByID(id string) (*models.Category, error) {
	return s.repo.GetByID(id)
}

// CreateCategory creates a new category.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	return s.repo.Create(category)
}

// DeleteCategory deletes a category by its ID.
func (s *CategoryService) DeleteCategory(id string) error {
	return s.repo.Delete(id)
}
