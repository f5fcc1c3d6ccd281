package repositories

import (
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is the GORM-backed store for orders and their line
// items. The order service binds it to a transaction with WithTx so that an
// order write and its inventory movements commit or roll back together.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *GORMOrderRepository) WithTx(tx *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: tx}
}

// GetAll retrieves orders newest-first, optionally filtered by customer.
func (r *GORMOrderRepository) GetAll(customerID string) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Preload("Items").Preload("RefundItems").Order("created_at DESC")
	if customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items by ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("RefundItems").First(&order, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByIDForUpdate retrieves an order with its row locked for the duration of
// the surrounding transaction. Used by the state transitions so two callers
// cannot act on the same order concurrently.
func (r *GORMOrderRepository) GetByIDForUpdate(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").Preload("RefundItems").
		First(&order, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to lock order %s: %w", id, err)
	}
	return &order, nil
}

// Create persists a new order together with its line items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Save writes the mutable order fields (status, timestamps, refund columns).
// Line items are immutable after creation and deliberately not written here.
func (r *GORMOrderRepository) Save(order *models.Order) error {
	res := r.db.Omit(clause.Associations).Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", order.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// ReplaceRefundItems rewrites the persisted refund scope rows for an order.
func (r *GORMOrderRepository) ReplaceRefundItems(order *models.Order) error {
	if err := r.db.Where("order_id = ?", order.ID).Delete(&models.RefundItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear refund items for order %s: %w", order.ID, err)
	}
	if len(order.RefundItems) == 0 {
		return nil
	}
	for i := range order.RefundItems {
		order.RefundItems[i].ID = 0
		order.RefundItems[i].OrderID = order.ID
	}
	if err := r.db.Create(&order.RefundItems).Error; err != nil {
		return fmt.Errorf("failed to save refund items for order %s: %w", order.ID, err)
	}
	return nil
}

// Delete removes an order and its dependent rows. This bypasses the state
// machine and exists for operational tooling only.
func (r *GORMOrderRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.RefundItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete refund items for order %s: %w", id, err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete items for order %s: %w", id, err)
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %s: %w", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
}
