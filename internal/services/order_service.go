package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultRefundWindowDays is how long after delivery a refund may be
// requested. Day 30 is still eligible; day 31 is not.
const DefaultRefundWindowDays = 30

// OrderLineRequest is one requested line in a new order.
type OrderLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// OrderService drives the order lifecycle: creation with atomic stock
// reservation and purchase-time pricing, cancellation, status management and
// the refund workflow. Every mutating operation runs in a single transaction;
// notification dispatch happens only after that transaction has committed.
type OrderService struct {
	db               *gorm.DB
	orders           *repositories.GORMOrderRepository
	ledger           *InventoryLedger
	pricing          PricingConfig
	dispatcher       *Dispatcher
	refundWindowDays int
}

// NewOrderService creates a new OrderService.
func NewOrderService(db *gorm.DB, ledger *InventoryLedger, pricing PricingConfig, dispatcher *Dispatcher, refundWindowDays int) *OrderService {
	if refundWindowDays <= 0 {
		refundWindowDays = DefaultRefundWindowDays
	}
	return &OrderService{
		db:               db,
		orders:           repositories.NewGORMOrderRepository(db),
		ledger:           ledger,
		pricing:          pricing,
		dispatcher:       dispatcher,
		refundWindowDays: refundWindowDays,
	}
}

// GetAllOrders retrieves orders, optionally filtered by customer.
func (s *OrderService) GetAllOrders(customerID string) ([]models.Order, error) {
	return s.orders.GetAll(customerID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	order, err := s.orders.GetByID(id)
	if err != nil {
		return nil, orderError(id, err)
	}
	return order, nil
}

// CreateOrder validates and reserves stock for every line inside one
// transaction, prices the order once, and persists it in PROCESSING state.
// If any line cannot be reserved the whole transaction rolls back and no
// partial reservations survive.
func (s *OrderService) CreateOrder(customerID, deliveryAddress string, lines []OrderLineRequest) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	var created *models.Order
	var transitions []StockTransition

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pricedInput := make([]OrderLine, 0, len(lines))
		for _, line := range lines {
			product, transition, err := s.ledger.Reserve(tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if transition != nil {
				transitions = append(transitions, *transition)
			}
			pricedInput = append(pricedInput, OrderLine{Product: *product, Quantity: line.Quantity})
		}

		quote := s.pricing.Price(pricedInput)

		order := &models.Order{
			ID:              uuid.New().String(),
			CustomerID:      customerID,
			Status:          models.StatusProcessing,
			TotalAmount:     quote.TotalAmount,
			TaxAmount:       quote.TaxAmount,
			ShippingAmount:  quote.ShippingAmount,
			DeliveryAddress: deliveryAddress,
		}
		for _, priced := range quote.Lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:    priced.Product.ID,
				ProductName:  priced.Product.Name,
				ProductPrice: priced.UnitPrice,
				Quantity:     priced.Quantity,
				Subtotal:     priced.Subtotal,
			})
		}

		if err := s.orders.WithTx(tx).Create(order); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.StockChanged(transitions)
	return created, nil
}

// UpdateOrderStatus is the free-form manager status write. It stamps the
// matching lifecycle timestamp but performs no inventory or notification
// side effects; the guarded operations below exist for those.
func (s *OrderService) UpdateOrderStatus(id string, status models.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid order status: %s", status)
	}

	var updated *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return orderError(id, err)
		}
		order.ApplyStatus(status, time.Now())
		if err := repo.Save(order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelOrder cancels an order still in PROCESSING, releasing the full
// reserved quantity of every line back to the ledger. A requesterID other
// than the order's customer is rejected; pass an empty requesterID for
// operator-initiated cancellation.
func (s *OrderService) CancelOrder(orderID, requesterID string) (*models.Order, error) {
	var cancelled *models.Order
	var transitions []StockTransition

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return orderError(orderID, err)
		}
		if requesterID != "" && order.CustomerID != requesterID {
			return fmt.Errorf("order %s: %w", orderID, ErrNotOwner)
		}
		if order.Status != models.StatusProcessing {
			return fmt.Errorf("cancel requires %s status, order %s is %s: %w",
				models.StatusProcessing, orderID, order.Status, ErrWrongState)
		}

		for _, item := range order.Items {
			transition, err := s.releaseLine(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if transition != nil {
				transitions = append(transitions, *transition)
			}
		}

		order.ApplyStatus(models.StatusCancelled, time.Now())
		if err := repo.Save(order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.StockChanged(transitions)
	return cancelled, nil
}

// RequestRefund moves a DELIVERED order within the eligibility window to
// REFUND_REQUESTED, recording the reason and the refund scope. A nil item
// list means the entire order; an explicit list is validated against the
// purchased lines.
func (s *OrderService) RequestRefund(orderID, requesterID, reason string, items []models.RefundLine) (*models.Order, error) {
	var requested *models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return orderError(orderID, err)
		}
		if requesterID != "" && order.CustomerID != requesterID {
			return fmt.Errorf("order %s: %w", orderID, ErrNotOwner)
		}
		if order.Status != models.StatusDelivered {
			return fmt.Errorf("refund request requires %s status, order %s is %s: %w",
				models.StatusDelivered, orderID, order.Status, ErrWrongState)
		}
		if order.DeliveredAt != nil {
			// Whole-day truncation; day 30 is eligible, day 31 is not.
			daysSinceDelivery := int(time.Since(*order.DeliveredAt).Hours() / 24)
			if daysSinceDelivery > s.refundWindowDays {
				return fmt.Errorf("order %s delivered %d days ago: %w",
					orderID, daysSinceDelivery, ErrRefundWindowExpired)
			}
		}

		scope := models.WholeOrder()
		if items != nil {
			if err := validateRefundItems(order, items); err != nil {
				return err
			}
			scope = models.ItemScope(items)
		}

		order.ApplyStatus(models.StatusRefundRequested, time.Now())
		order.RefundReason = reason
		order.SetRefundScope(scope)
		if err := repo.Save(order); err != nil {
			return err
		}
		if err := repo.ReplaceRefundItems(order); err != nil {
			return err
		}
		requested = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requested, nil
}

// ApproveRefund settles a pending refund request. The refund amount is the
// explicit override when given (trusted input from an authorized caller),
// otherwise the sum of purchase-time unit price times refunded quantity over
// the refund scope. Exactly the refunded quantities are released back to the
// ledger, never the full original quantities.
func (s *OrderService) ApproveRefund(orderID string, overrideAmount *decimal.Decimal) (*models.Order, error) {
	var approved *models.Order
	var transitions []StockTransition

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return orderError(orderID, err)
		}
		if order.Status != models.StatusRefundRequested {
			return fmt.Errorf("refund approval requires %s status, order %s is %s: %w",
				models.StatusRefundRequested, orderID, order.Status, ErrWrongState)
		}

		refundLines := order.RefundLines()
		amount := decimal.Zero
		for _, line := range refundLines {
			item := order.ItemByProduct(line.ProductID)
			if item == nil {
				return fmt.Errorf("order %s has no line for product %s: %w",
					orderID, line.ProductID, ErrInvalidRefundItems)
			}
			amount = amount.Add(item.ProductPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if overrideAmount != nil {
			amount = *overrideAmount
		}

		if err := s.settleRefund(orderID, amount); err != nil {
			return fmt.Errorf("refund settlement failed for order %s: %w", orderID, err)
		}

		for _, line := range refundLines {
			transition, err := s.releaseLine(tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if transition != nil {
				transitions = append(transitions, *transition)
			}
		}

		order.ApplyStatus(models.StatusRefunded, time.Now())
		order.RefundAmount = &amount
		if err := repo.Save(order); err != nil {
			return err
		}
		approved = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.StockChanged(transitions)
	return approved, nil
}

// RejectRefund reverts a pending refund request back to DELIVERED with no
// inventory change. The original delivery timestamp is kept.
func (s *OrderService) RejectRefund(orderID string) (*models.Order, error) {
	var rejected *models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return orderError(orderID, err)
		}
		if order.Status != models.StatusRefundRequested {
			return fmt.Errorf("refund rejection requires %s status, order %s is %s: %w",
				models.StatusRefundRequested, orderID, order.Status, ErrWrongState)
		}

		order.Status = models.StatusDelivered
		if err := repo.Save(order); err != nil {
			return err
		}
		rejected = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// DeleteOrder removes an order outright, bypassing the state machine. Used
// only by operational tooling.
func (s *OrderService) DeleteOrder(id string) error {
	if err := s.orders.Delete(id); err != nil {
		return orderError(id, err)
	}
	return nil
}

// releaseLine restocks one line, tolerating products removed from the
// catalog since purchase: the order's snapshot fields keep it durable, but
// there is no longer a row to restock.
func (s *OrderService) releaseLine(tx *gorm.DB, productID string, quantity int) (*StockTransition, error) {
	_, transition, err := s.ledger.Release(tx, productID, quantity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("Warning: product %s no longer exists, skipping restock of %d units", productID, quantity)
			return nil, nil
		}
		return nil, err
	}
	return transition, nil
}

// settleRefund settles the refund with the payment provider. Gateway
// integration is out of scope; settlement always succeeds here.
func (s *OrderService) settleRefund(orderID string, amount decimal.Decimal) error {
	log.Printf("Settled refund of %s for order %s", amount.StringFixed(2), orderID)
	return nil
}

// validateRefundItems checks an explicit refund item list against the
// purchased lines: non-empty, no duplicates, every product on the order,
// every quantity positive and within the purchased quantity.
func validateRefundItems(order *models.Order, items []models.RefundLine) error {
	if len(items) == 0 {
		return fmt.Errorf("refund item list is empty: %w", ErrInvalidRefundItems)
	}
	seen := make(map[string]bool, len(items))
	for _, line := range items {
		if line.Quantity <= 0 {
			return fmt.Errorf("refund quantity for product %s must be positive: %w",
				line.ProductID, ErrInvalidRefundItems)
		}
		if seen[line.ProductID] {
			return fmt.Errorf("product %s listed twice in refund request: %w",
				line.ProductID, ErrInvalidRefundItems)
		}
		seen[line.ProductID] = true

		item := order.ItemByProduct(line.ProductID)
		if item == nil {
			return fmt.Errorf("product %s is not on order %s: %w",
				line.ProductID, order.ID, ErrInvalidRefundItems)
		}
		if line.Quantity > item.Quantity {
			return fmt.Errorf("refund quantity %d exceeds purchased quantity %d for product %s: %w",
				line.Quantity, item.Quantity, line.ProductID, ErrInvalidRefundItems)
		}
	}
	return nil
}

// orderError maps the repository's record-not-found onto the caller-facing
// taxonomy and passes everything else through.
func orderError(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return err
}
