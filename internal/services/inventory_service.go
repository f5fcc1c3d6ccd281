package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryLedger owns per-product stock counts. Reserve and Release run
// inside the caller's transaction and read the product row with an exclusive
// row lock, so concurrent reservations against the same product serialize
// instead of both observing stale stock. All-or-nothing across an order's
// lines comes from the enclosing transaction rolling back on any failure.
type InventoryLedger struct{}

// NewInventoryLedger creates a new InventoryLedger.
func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{}
}

// StockTransition records a stock movement that crossed the zero boundary,
// with the product's pre- and post-state. The caller forwards transitions to
// the side-effect dispatcher after its transaction commits.
type StockTransition struct {
	Before models.Product
	After  models.Product
}

// Depleted reports a >0 to 0 crossing.
func (t StockTransition) Depleted() bool {
	return t.Before.Stock > 0 && t.After.Stock == 0
}

// Restocked reports a 0 to >0 crossing.
func (t StockTransition) Restocked() bool {
	return t.Before.Stock == 0 && t.After.Stock > 0
}

// Reserve decrements a product's stock by quantity inside tx. The product row
// stays locked until tx commits or rolls back. Returns the post-reservation
// product and, when the movement crossed zero, a transition for the
// dispatcher.
func (l *InventoryLedger) Reserve(tx *gorm.DB, productID string, quantity int) (*models.Product, *StockTransition, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("reserve quantity must be positive, got %d", quantity)
	}

	product, err := l.lockProduct(tx, productID)
	if err != nil {
		return nil, nil, err
	}

	if product.Stock < quantity {
		return nil, nil, fmt.Errorf("product %s (requested: %d, available: %d): %w",
			product.Name, quantity, product.Stock, ErrInsufficientStock)
	}

	return l.writeStock(tx, product, product.Stock-quantity)
}

// Release adds previously reserved quantity back to a product's stock inside
// tx. The caller passes exactly the cancelled or refunded quantities.
func (l *InventoryLedger) Release(tx *gorm.DB, productID string, quantity int) (*models.Product, *StockTransition, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("release quantity must be positive, got %d", quantity)
	}

	product, err := l.lockProduct(tx, productID)
	if err != nil {
		return nil, nil, err
	}

	return l.writeStock(tx, product, product.Stock+quantity)
}

func (l *InventoryLedger) lockProduct(tx *gorm.DB, productID string) (*models.Product, error) {
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", productID, err)
	}
	return &product, nil
}

func (l *InventoryLedger) writeStock(tx *gorm.DB, product *models.Product, newStock int) (*models.Product, *StockTransition, error) {
	before := *product
	err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", newStock).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update stock for product %s: %w", product.ID, err)
	}
	product.Stock = newStock

	var transition *StockTransition
	if (before.Stock == 0) != (product.Stock == 0) {
		transition = &StockTransition{Before: before, After: *product}
	}
	return product, transition, nil
}
