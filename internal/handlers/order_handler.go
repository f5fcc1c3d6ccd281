package handlers

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", middleware.RequireRoles(models.RoleCustomer), h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", middleware.RequireRoles(models.RoleProductManager), h.HandleUpdateOrderStatus)
	orderRoutes.Post("/:id/cancel", middleware.RequireRoles(models.RoleCustomer), h.HandleCancelOrder)
	orderRoutes.Post("/:id/refund/request", middleware.RequireRoles(models.RoleCustomer), h.HandleRequestRefund)
	orderRoutes.Post("/:id/refund/approve", middleware.RequireRoles(models.RoleSalesManager), h.HandleApproveRefund)
	orderRoutes.Delete("/:id", middleware.RequireRoles(models.RoleProductManager, models.RoleSalesManager), h.HandleDeleteOrder)
}

// CreateOrderRequest is the request body for placing an order.
type CreateOrderRequest struct {
	DeliveryAddress string                      `json:"delivery_address" validate:"required"`
	Items           []services.OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleCreateOrder creates a new order for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	customerID, _ := c.Locals("user_id").(string)
	order, err := h.service.CreateOrder(customerID, req.DeliveryAddress, req.Items)
	if err != nil {
		log.Printf("Error creating order for customer %s: %v", customerID, err)
		return serviceError(c, "Could not create order", err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrders retrieves orders. Customers see only their own orders;
// managers see all of them.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	customerID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)

	filter := customerID
	if role == models.RoleProductManager || role == models.RoleSalesManager {
		filter = ""
	}

	orders, err := h.service.GetAllOrders(filter)
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return serviceError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order. Customers can only view their
// own orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return serviceError(c, "Could not retrieve order", err)
	}

	role, _ := c.Locals("role").(string)
	customerID, _ := c.Locals("user_id").(string)
	if role == models.RoleCustomer && order.CustomerID != customerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You can only view your own orders",
		})
	}

	return c.JSON(order)
}

// OrderStatusUpdateRequest is the request body for the manager status write.
type OrderStatusUpdateRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus is the free-form manager status write. It stamps
// lifecycle timestamps but performs no inventory or notification side
// effects.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req OrderStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	order, err := h.service.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		if !errors.Is(err, services.ErrNotFound) && err.Error() == fmt.Sprintf("invalid order status: %s", req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid order status",
				"error":   err.Error(),
			})
		}
		return serviceError(c, "Could not update order status", err)
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels the caller's own order while it is still
// processing, restoring reserved stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	customerID, _ := c.Locals("user_id").(string)

	order, err := h.service.CancelOrder(orderID, customerID)
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		return serviceError(c, "Could not cancel order", err)
	}
	return c.JSON(order)
}

// OrderRefundRequest is the request body for a refund request. A missing
// items field means the entire order.
type OrderRefundRequest struct {
	Reason string              `json:"reason"`
	Items  []models.RefundLine `json:"items" validate:"omitempty,dive"`
}

// HandleRequestRefund requests a refund for a delivered order within the
// eligibility window, optionally for a subset of the purchased items.
func (h *OrderHandler) HandleRequestRefund(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req OrderRefundRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing refund request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for refund request",
			"error":   err.Error(),
		})
	}

	customerID, _ := c.Locals("user_id").(string)
	order, err := h.service.RequestRefund(orderID, customerID, req.Reason, req.Items)
	if err != nil {
		log.Printf("Error requesting refund for order %s: %v", orderID, err)
		return serviceError(c, "Could not request refund", err)
	}
	return c.JSON(order)
}

// OrderRefundApproval is the request body for the sales manager's refund
// decision. The optional refund_amount overrides the computed sum.
type OrderRefundApproval struct {
	Approved     bool             `json:"approved"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
}

// HandleApproveRefund approves or rejects a pending refund request.
func (h *OrderHandler) HandleApproveRefund(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req OrderRefundApproval
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing refund approval body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for refund approval",
			"error":   err.Error(),
		})
	}

	var order *models.Order
	var err error
	if req.Approved {
		order, err = h.service.ApproveRefund(orderID, req.RefundAmount)
	} else {
		order, err = h.service.RejectRefund(orderID)
	}
	if err != nil {
		log.Printf("Error processing refund decision for order %s: %v", orderID, err)
		return serviceError(c, "Could not process refund decision", err)
	}
	return c.JSON(order)
}

// HandleDeleteOrder removes an order outright. Operational tooling only;
// bypasses the state machine.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.DeleteOrder(orderID); err != nil {
		log.Printf("Error deleting order %s: %v", orderID, err)
		return serviceError(c, "Could not delete order", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
