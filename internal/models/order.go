package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusProcessing      OrderStatus = "processing"
	StatusInTransit       OrderStatus = "in-transit"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRefundRequested OrderStatus = "refund_requested"
	StatusRefunded        OrderStatus = "refunded"
)

// IsValid reports whether s is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusInTransit, StatusDelivered,
		StatusCancelled, StatusRefundRequested, StatusRefunded:
		return true
	}
	return false
}

// OrderItem represents a single line within an order. The product name and
// unit price are snapshots taken at purchase time and never recomputed, so
// the order stays durable even if the product changes or is removed later.
type OrderItem struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	OrderID      string          `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID    string          `json:"product_id" gorm:"type:varchar(36)"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price" gorm:"type:decimal(12,2)"` // effective unit price at purchase time
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2)"`
}

// RefundItem is a persisted (product, quantity) pair under refund for an order.
type RefundItem struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	OrderID   string `json:"-" gorm:"type:varchar(36);index"`
	ProductID string `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int    `json:"quantity"`
}

// RefundLine is one (product, quantity) pair inside a refund scope.
type RefundLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// RefundScope identifies which purchased quantities a refund covers.
// Whole means every line at its full purchased quantity; otherwise Items
// holds the explicit subset.
type RefundScope struct {
	Whole bool
	Items []RefundLine
}

// WholeOrder returns the scope covering the entire order.
func WholeOrder() RefundScope {
	return RefundScope{Whole: true}
}

// ItemScope returns the scope covering an explicit item subset.
func ItemScope(items []RefundLine) RefundScope {
	return RefundScope{Items: items}
}

// Order represents a customer order. Monetary fields and line items are
// computed once at creation time and never silently recomputed afterwards.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID      string          `json:"customer_id" gorm:"type:varchar(36);index"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20)"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2)"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2)"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount" gorm:"type:decimal(12,2)"`
	DeliveryAddress string          `json:"delivery_address"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	DeliveredAt       *time.Time       `json:"delivered_at"`
	CancelledAt       *time.Time       `json:"cancelled_at"`
	RefundRequestedAt *time.Time       `json:"refund_requested_at"`
	RefundedAt        *time.Time       `json:"refunded_at"`
	RefundAmount      *decimal.Decimal `json:"refund_amount" gorm:"type:decimal(12,2)"`
	RefundReason      string           `json:"refund_reason"`
	RefundWhole       bool             `json:"refund_whole"`
	RefundItems       []RefundItem     `json:"refund_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyStatus sets the status and stamps the matching lifecycle timestamp.
func (o *Order) ApplyStatus(status OrderStatus, now time.Time) {
	o.Status = status
	switch status {
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
	case StatusRefundRequested:
		o.RefundRequestedAt = &now
	case StatusRefunded:
		o.RefundedAt = &now
	}
}

// RefundScope reconstructs the tagged refund scope from the persisted fields.
func (o *Order) RefundScope() RefundScope {
	if o.RefundWhole || len(o.RefundItems) == 0 {
		return WholeOrder()
	}
	lines := make([]RefundLine, 0, len(o.RefundItems))
	for _, item := range o.RefundItems {
		lines = append(lines, RefundLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return ItemScope(lines)
}

// SetRefundScope persists the tagged refund scope onto the order.
func (o *Order) SetRefundScope(scope RefundScope) {
	if scope.Whole {
		o.RefundWhole = true
		o.RefundItems = nil
		return
	}
	o.RefundWhole = false
	items := make([]RefundItem, 0, len(scope.Items))
	for _, line := range scope.Items {
		items = append(items, RefundItem{OrderID: o.ID, ProductID: line.ProductID, Quantity: line.Quantity})
	}
	o.RefundItems = items
}

// RefundLines resolves the refund scope to concrete (product, quantity)
// pairs against the order's own line items. A whole-order scope resolves to
// every line at its full purchased quantity.
func (o *Order) RefundLines() []RefundLine {
	scope := o.RefundScope()
	if scope.Whole {
		lines := make([]RefundLine, 0, len(o.Items))
		for _, item := range o.Items {
			lines = append(lines, RefundLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		return lines
	}
	return scope.Items
}

// ItemByProduct returns the order line for a product, or nil if the product
// was not part of the order.
func (o *Order) ItemByProduct(productID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}
