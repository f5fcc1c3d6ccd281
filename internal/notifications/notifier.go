package notifications

import (
	"log"

	"storefront/internal/models"
)

// WishlistNotifier delivers product-state events to users who wishlisted the
// product. Implementations are pluggable and chosen by configuration; the
// core only guarantees these are called, not that delivery succeeds.
type WishlistNotifier interface {
	NotifyRestock(userIDs []string, product models.Product) error
	NotifyDepleted(userIDs []string, product models.Product) error
	NotifyDiscountChange(userIDs []string, product models.Product, active bool, rate float64) error
}

// ConsoleNotifier logs notifications to stdout. It stands in for a real
// delivery channel in development and tests.
type ConsoleNotifier struct{}

// NewConsoleNotifier creates a new ConsoleNotifier.
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (n *ConsoleNotifier) NotifyRestock(userIDs []string, product models.Product) error {
	log.Printf("[NOTIFY] back-in-stock product=%s name=%q users=%v price=%s",
		product.ID, product.Name, userIDs, product.FinalPrice())
	return nil
}

func (n *ConsoleNotifier) NotifyDepleted(userIDs []string, product models.Product) error {
	log.Printf("[NOTIFY] out-of-stock product=%s name=%q users=%v",
		product.ID, product.Name, userIDs)
	return nil
}

func (n *ConsoleNotifier) NotifyDiscountChange(userIDs []string, product models.Product, active bool, rate float64) error {
	log.Printf("[NOTIFY] discount-changed product=%s name=%q users=%v active=%v rate=%.1f price=%s",
		product.ID, product.Name, userIDs, active, rate, product.FinalPrice())
	return nil
}
