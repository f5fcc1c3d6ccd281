package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
// Stock reservations do not go through this interface; they are owned by the
// inventory ledger, which locks product rows inside its own transaction.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	SetDiscount(ids []string, rate float64) ([]models.Product, error)
	ClearDiscount(ids []string) ([]models.Product, error)
}
