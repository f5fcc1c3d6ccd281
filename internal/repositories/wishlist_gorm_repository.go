package repositories

import (
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMWishlistRepository is a GORM implementation of WishlistRepository.
type GORMWishlistRepository struct {
	db *gorm.DB
}

// NewGORMWishlistRepository creates a new instance of GORMWishlistRepository.
func NewGORMWishlistRepository(db *gorm.DB) *GORMWishlistRepository {
	return &GORMWishlistRepository{
		db: db,
	}
}

// ListItems returns all wishlist entries for a user.
func (r *GORMWishlistRepository) ListItems(userID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.db.Where("user_id = ?", userID).Order("created_at").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list wishlist for user %s: %w", userID, err)
	}
	return items, nil
}

// ListUserIDs returns the IDs of every user who has the product wishlisted.
func (r *GORMWishlistRepository) ListUserIDs(productID string) ([]string, error) {
	var userIDs []string
	err := r.db.Model(&models.WishlistItem{}).
		Where("product_id = ?", productID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist users for product %s: %w", productID, err)
	}
	return userIDs, nil
}

// Exists reports whether the user already has the product wishlisted.
func (r *GORMWishlistRepository) Exists(userID, productID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist entry: %w", err)
	}
	return count > 0, nil
}

// Add inserts a wishlist entry.
func (r *GORMWishlistRepository) Add(userID, productID string) error {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	if err := r.db.Create(&item).Error; err != nil {
		return fmt.Errorf("failed to add wishlist entry: %w", err)
	}
	return nil
}

// Remove deletes a wishlist entry.
func (r *GORMWishlistRepository) Remove(userID, productID string) error {
	res := r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove wishlist entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("wishlist entry for product %s: %w", productID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Clear removes every wishlist entry for a user and returns the count removed.
func (r *GORMWishlistRepository) Clear(userID string) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear wishlist for user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}
