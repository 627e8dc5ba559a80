package services_test

import (
	"testing"

	"gerai/internal/models"
	"gerai/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepo is a mock implementation of repositories.ProductRepository
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepo) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepo) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepo) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockCategoryRepo is a mock implementation of repositories.CategoryRepository
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) GetAll() ([]models.Category, error) {
	args := m.Called()
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetByID(id string) (*models.Category, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepo) Create(category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepo)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromFloat(10.0), Stock: 100},
		{ID: "2", Name: "Product B", Price: decimal.NewFromFloat(20.0), Stock: 50},
	}

	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()
	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepo)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	expected := &models.Product{ID: "1", Name: "Product A", Price: decimal.NewFromFloat(10.0), Stock: 100}
	mockRepo.On("GetByID", "1").Return(expected, nil).Once()

	productFound, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expected, productFound)

	mockRepo.On("GetByID", "missing").Return(nil, models.ErrNotFound).Once()
	_, err = service.GetProductByID("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepo)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	// Without a category the repository is called directly.
	productNoCategory := &models.Product{Name: "Product A", Price: decimal.NewFromFloat(10.0), Stock: 5}
	mockRepo.On("Create", productNoCategory).Return(nil).Once()
	assert.NoError(t, service.CreateProduct(productNoCategory))

	// With a category, the category must exist.
	withCategory := &models.Product{Name: "Product B", Price: decimal.NewFromFloat(5.0), Stock: 2, CategoryID: "cat-1"}
	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1", Name: "Gadgets"}, nil).Once()
	mockRepo.On("Create", withCategory).Return(nil).Once()
	assert.NoError(t, service.CreateProduct(withCategory))

	// Unknown category is rejected before touching the product repository.
	badCategory := &models.Product{Name: "Product C", Price: decimal.NewFromFloat(5.0), Stock: 2, CategoryID: "cat-x"}
	mockCategories.On("GetByID", "cat-x").Return(nil, models.ErrNotFound).Once()
	err := service.CreateProduct(badCategory)
	assert.ErrorIs(t, err, models.ErrNotFound)

	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepo)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	mockRepo.On("Delete", "1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct("1"))

	mockRepo.On("Delete", "missing").Return(models.ErrNotFound).Once()
	assert.ErrorIs(t, service.DeleteProduct("missing"), models.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
