package models

import "time"

// WishlistItem links a user to a product they want to be notified about.
type WishlistItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex:idx_wishlist_user_product"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_wishlist_user_product"`
	CreatedAt time.Time `json:"created_at"`
}
