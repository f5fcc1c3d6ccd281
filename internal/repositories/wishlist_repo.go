package repositories

import (
	"storefront/internal/models"
)

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	ListItems(userID string) ([]models.WishlistItem, error)
	ListUserIDs(productID string) ([]string, error)
	Exists(userID, productID string) (bool, error)
	Add(userID, productID string) error
	Remove(userID, productID string) error
	Clear(userID string) (int64, error)
}
