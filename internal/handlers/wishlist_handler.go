package handlers

import (
	"log"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WishlistHandler handles HTTP requests for the authenticated user's
// wishlist.
type WishlistHandler struct {
	service *services.WishlistService
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(service *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{
		service: service,
	}
}

// RegisterRoutes registers the wishlist routes with the Fiber app.
func (h *WishlistHandler) RegisterRoutes(router fiber.Router) {
	wishlistRoutes := router.Group("/wishlist")
	wishlistRoutes.Get("/", h.HandleListWishlist)
	wishlistRoutes.Post("/:productId", h.HandleAddToWishlist)
	wishlistRoutes.Delete("/:productId", h.HandleRemoveFromWishlist)
	wishlistRoutes.Delete("/", h.HandleClearWishlist)
}

// HandleListWishlist lists the caller's wishlisted products.
func (h *WishlistHandler) HandleListWishlist(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	products, err := h.service.ListWishlist(userID)
	if err != nil {
		log.Printf("Error listing wishlist for user %s: %v", userID, err)
		return serviceError(c, "Could not retrieve wishlist", err)
	}
	return c.JSON(products)
}

// HandleAddToWishlist adds a product to the caller's wishlist.
func (h *WishlistHandler) HandleAddToWishlist(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	productID := c.Params("productId")

	product, err := h.service.AddToWishlist(userID, productID)
	if err != nil {
		log.Printf("Error adding product %s to wishlist of user %s: %v", productID, userID, err)
		return serviceError(c, "Could not add product to wishlist", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleRemoveFromWishlist removes a product from the caller's wishlist.
func (h *WishlistHandler) HandleRemoveFromWishlist(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	productID := c.Params("productId")

	if err := h.service.RemoveFromWishlist(userID, productID); err != nil {
		log.Printf("Error removing product %s from wishlist of user %s: %v", productID, userID, err)
		return serviceError(c, "Could not remove product from wishlist", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleClearWishlist removes every entry from the caller's wishlist.
func (h *WishlistHandler) HandleClearWishlist(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	removed, err := h.service.ClearWishlist(userID)
	if err != nil {
		log.Printf("Error clearing wishlist for user %s: %v", userID, err)
		return serviceError(c, "Could not clear wishlist", err)
	}
	return c.JSON(fiber.Map{
		"message": "Wishlist cleared",
		"removed": removed,
	})
}
