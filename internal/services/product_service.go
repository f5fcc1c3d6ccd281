package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"gorm.io/gorm"
)

// ProductService handles catalog business logic. Stock reservations do not
// pass through here; manual stock corrections and discount changes do, and
// both feed the side-effect dispatcher.
type ProductService struct {
	repo       repositories.ProductRepository
	dispatcher *Dispatcher
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, dispatcher *Dispatcher) *ProductService {
	return &ProductService{
		repo:       repo,
		dispatcher: dispatcher,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, productError(id, err)
	}
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates a product's catalog fields. A manual stock edit that
// crosses the zero boundary notifies wishlist holders like a ledger movement
// would.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	existing, err := s.repo.GetByID(product.ID)
	if err != nil {
		return productError(product.ID, err)
	}

	if err := s.repo.Update(product); err != nil {
		return productError(product.ID, err)
	}

	if (existing.Stock == 0) != (product.Stock == 0) {
		s.dispatcher.StockChanged([]StockTransition{{Before: *existing, After: *product}})
	}
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return productError(id, err)
	}
	return nil
}

// ApplyDiscount activates a percentage discount on the given products and
// notifies wishlist holders of the price drop.
func (s *ProductService) ApplyDiscount(ids []string, rate float64) ([]models.Product, error) {
	products, err := s.repo.SetDiscount(ids, rate)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no products matched the provided IDs: %w", ErrNotFound)
	}
	s.dispatcher.DiscountChanged(products, true, rate)
	return products, nil
}

// ClearDiscount deactivates any discount on the given products and notifies
// wishlist holders.
func (s *ProductService) ClearDiscount(ids []string) ([]models.Product, error) {
	products, err := s.repo.ClearDiscount(ids)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no products matched the provided IDs: %w", ErrNotFound)
	}
	s.dispatcher.DiscountChanged(products, false, 0)
	return products, nil
}

func productError(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return err
}
