package handlers

import (
	"log"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	managerOnly := middleware.RequireRoles(models.RoleProductManager, models.RoleSalesManager)
	productRoutes.Post("/", managerOnly, h.HandleCreateProduct)
	productRoutes.Put("/:id", managerOnly, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", managerOnly, h.HandleDeleteProduct)
	productRoutes.Patch("/discount", middleware.RequireRoles(models.RoleSalesManager), h.HandleApplyDiscount)
	productRoutes.Patch("/discount/clear", middleware.RequireRoles(models.RoleSalesManager), h.HandleClearDiscount)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return serviceError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		log.Printf("Error getting product by ID %s: %v", productID, err)
		return serviceError(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new catalog product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(product); err != nil {
		return validationError(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return serviceError(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing catalog product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing update product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = c.Params("id")
	if err := h.validate.Struct(product); err != nil {
		return validationError(c, err)
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		log.Printf("Error updating product %s: %v", product.ID, err)
		return serviceError(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(productID); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		return serviceError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ProductDiscountRequest is the request body for applying a discount to a
// set of products.
type ProductDiscountRequest struct {
	ProductIDs   []string `json:"product_ids" validate:"required,min=1"`
	DiscountRate float64  `json:"discount_rate" validate:"required,gt=0,lte=100"`
}

// HandleApplyDiscount applies a percentage discount to multiple products and
// returns the updated products.
func (h *ProductHandler) HandleApplyDiscount(c *fiber.Ctx) error {
	var req ProductDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing discount request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	products, err := h.service.ApplyDiscount(req.ProductIDs, req.DiscountRate)
	if err != nil {
		log.Printf("Error applying discount: %v", err)
		return serviceError(c, "Could not apply discount", err)
	}
	return c.JSON(products)
}

// ProductDiscountClearRequest is the request body for clearing discounts.
type ProductDiscountClearRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1"`
}

// HandleClearDiscount removes any active discount from the given products.
func (h *ProductHandler) HandleClearDiscount(c *fiber.Ctx) error {
	var req ProductDiscountClearRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing discount clear request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	products, err := h.service.ClearDiscount(req.ProductIDs)
	if err != nil {
		log.Printf("Error clearing discount: %v", err)
		return serviceError(c, "Could not clear discount", err)
	}
	return c.JSON(products)
}
