package repositories

import (
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// GORM's Save doesn't return ErrRecordNotFound for an update that
		// matched nothing, so we check RowsAffected.
		return fmt.Errorf("product with ID %s: %w", product.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// SetDiscount marks the given products as discounted at the given rate
// without touching the base price, and returns the updated rows.
func (r *GORMProductRepository) SetDiscount(ids []string, rate float64) ([]models.Product, error) {
	if rate <= 0 || rate > 100 {
		return nil, fmt.Errorf("discount rate must be between 0 and 100, got %v", rate)
	}
	res := r.db.Model(&models.Product{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"discount_rate": rate, "discount_active": true})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to apply discount: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.byIDs(ids)
}

// ClearDiscount removes any active discount from the given products and
// returns the updated rows.
func (r *GORMProductRepository) ClearDiscount(ids []string) ([]models.Product, error) {
	res := r.db.Model(&models.Product{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"discount_rate": 0.0, "discount_active": false})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to clear discount: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.byIDs(ids)
}

func (r *GORMProductRepository) byIDs(ids []string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products, "id IN ?", ids).Error; err != nil {
		return nil, fmt.Errorf("failed to reload products: %w", err)
	}
	return products, nil
}
