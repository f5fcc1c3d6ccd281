package services

import (
	"log"

	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/repositories"
)

// Dispatcher observes product-state crossing events (stock 0<->positive,
// discount activation changes) and forwards them, batched per product, to
// every user who has the product wishlisted. It runs after the owning
// transaction has committed and never propagates failures to the caller:
// a broken notification channel must not affect order correctness.
type Dispatcher struct {
	wishlistRepo repositories.WishlistRepository
	notifier     notifications.WishlistNotifier
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(wishlistRepo repositories.WishlistRepository, notifier notifications.WishlistNotifier) *Dispatcher {
	return &Dispatcher{
		wishlistRepo: wishlistRepo,
		notifier:     notifier,
	}
}

// StockChanged reports zero-boundary stock transitions.
func (d *Dispatcher) StockChanged(transitions []StockTransition) {
	for _, transition := range transitions {
		userIDs, ok := d.audience(transition.After.ID)
		if !ok {
			continue
		}

		var err error
		switch {
		case transition.Restocked():
			err = d.notifier.NotifyRestock(userIDs, transition.After)
		case transition.Depleted():
			err = d.notifier.NotifyDepleted(userIDs, transition.After)
		}
		if err != nil {
			log.Printf("Warning: failed to notify stock change for product %s: %v", transition.After.ID, err)
		}
	}
}

// DiscountChanged reports a discount activation or deactivation for the
// given products.
func (d *Dispatcher) DiscountChanged(products []models.Product, active bool, rate float64) {
	for _, product := range products {
		userIDs, ok := d.audience(product.ID)
		if !ok {
			continue
		}
		if err := d.notifier.NotifyDiscountChange(userIDs, product, active, rate); err != nil {
			log.Printf("Warning: failed to notify discount change for product %s: %v", product.ID, err)
		}
	}
}

func (d *Dispatcher) audience(productID string) ([]string, bool) {
	userIDs, err := d.wishlistRepo.ListUserIDs(productID)
	if err != nil {
		log.Printf("Warning: failed to resolve wishlist audience for product %s: %v", productID, err)
		return nil, false
	}
	if len(userIDs) == 0 {
		return nil, false
	}
	return userIDs, true
}
