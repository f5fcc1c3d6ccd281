package services

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"gorm.io/gorm"
)

// WishlistService manages per-user wishlists, the audience source for the
// side-effect dispatcher.
type WishlistService struct {
	wishlistRepo repositories.WishlistRepository
	productRepo  repositories.ProductRepository
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(wishlistRepo repositories.WishlistRepository, productRepo repositories.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// ListWishlist resolves a user's wishlist entries to products. Entries whose
// product has since been removed are skipped.
func (s *WishlistService) ListWishlist(userID string) ([]models.Product, error) {
	items, err := s.wishlistRepo.ListItems(userID)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Warning: wishlist of user %s references removed product %s", userID, item.ProductID)
				continue
			}
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

// AddToWishlist adds a product to a user's wishlist.
func (s *WishlistService) AddToWishlist(userID, productID string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, productError(productID, err)
	}

	exists, err := s.wishlistRepo.Exists(userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("product %s is already in the wishlist", productID)
	}

	if err := s.wishlistRepo.Add(userID, productID); err != nil {
		return nil, err
	}
	return product, nil
}

// RemoveFromWishlist removes a product from a user's wishlist.
func (s *WishlistService) RemoveFromWishlist(userID, productID string) error {
	if err := s.wishlistRepo.Remove(userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("wishlist entry for product %s: %w", productID, ErrNotFound)
		}
		return err
	}
	return nil
}

// ClearWishlist removes every entry from a user's wishlist and returns the
// number removed.
func (s *WishlistService) ClearWishlist(userID string) (int64, error) {
	return s.wishlistRepo.Clear(userID)
}
