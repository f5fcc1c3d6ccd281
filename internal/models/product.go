package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store catalog.
// Stock is mutated only through the inventory ledger's reserve/release calls;
// price and discount fields are owned by catalog management.
type Product struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name           string          `json:"name" validate:"required,min=3,max=100"`
	Description    string          `json:"description" validate:"omitempty,max=500"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	Stock          int             `json:"stock" validate:"gte=0"`
	DiscountRate   float64         `json:"discount_rate" validate:"gte=0,lte=100"`
	DiscountActive bool            `json:"discount_active"`
	gorm.Model                     // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// FinalPrice returns the effective unit price: the base price reduced by the
// discount rate when a discount is active, rounded to 2 decimal places.
func (p *Product) FinalPrice() decimal.Decimal {
	if p.DiscountActive && p.DiscountRate > 0 {
		multiplier := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p.DiscountRate).Div(decimal.NewFromInt(100)))
		return p.Price.Mul(multiplier).Round(2)
	}
	return p.Price
}
