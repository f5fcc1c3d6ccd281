package services

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// PricingConfig holds the rates the pricing engine applies at order creation.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
}

// DefaultPricingConfig returns the standard rates: 8% tax, free shipping
// from 100.00, flat 10.00 shipping below that.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TaxRate:               decimal.NewFromFloat(0.08),
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingCost:          decimal.NewFromInt(10),
	}
}

// OrderLine pairs a product with a requested quantity for pricing.
type OrderLine struct {
	Product  models.Product
	Quantity int
}

// PricedLine is one order line with its purchase-time price resolved.
type PricedLine struct {
	Product   models.Product
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Quote is the complete pricing result for an order. Its outputs become
// immutable Order and OrderItem fields.
type Quote struct {
	Lines          []PricedLine
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Price computes the quote for a list of (product, quantity) pairs. The unit
// price honored per line is the product's effective price at this instant,
// discount included. Rounding to 2 places is applied only where a rate is
// multiplied, never cumulatively re-applied.
func (cfg PricingConfig) Price(lines []OrderLine) Quote {
	quote := Quote{
		Lines:    make([]PricedLine, 0, len(lines)),
		Subtotal: decimal.Zero,
	}

	for _, line := range lines {
		unitPrice := line.Product.FinalPrice()
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		quote.Lines = append(quote.Lines, PricedLine{
			Product:   line.Product,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
		})
		quote.Subtotal = quote.Subtotal.Add(subtotal)
	}

	quote.TaxAmount = quote.Subtotal.Mul(cfg.TaxRate).Round(2)
	if quote.Subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		quote.ShippingAmount = decimal.Zero
	} else {
		quote.ShippingAmount = cfg.ShippingCost
	}
	quote.TotalAmount = quote.Subtotal.Add(quote.TaxAmount).Add(quote.ShippingAmount)

	return quote
}
