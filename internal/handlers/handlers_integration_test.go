package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/notifications"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// setupApp builds the full HTTP surface against a per-test in-memory SQLite
// database, wired the same way main does.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.RefundItem{},
		&models.WishlistItem{},
		&models.User{},
	))

	productRepo := repositories.NewGORMProductRepository(db)
	wishlistRepo := repositories.NewGORMWishlistRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	dispatcher := services.NewDispatcher(wishlistRepo, notifications.NewConsoleNotifier())
	orderService := services.NewOrderService(db, services.NewInventoryLedger(), services.DefaultPricingConfig(), dispatcher, 0)
	productService := services.NewProductService(productRepo, dispatcher)
	wishlistService := services.NewWishlistService(wishlistRepo, productRepo)
	authService := services.NewAuthService(userRepo, "integration-test-secret")

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewWishlistHandler(wishlistService).RegisterRoutes(protected)

	return app, db
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin creates a user with the given role and returns a bearer
// token for it.
func registerAndLogin(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func createProduct(t *testing.T, app *fiber.App, token, name, price string, stock int) models.Product {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", token, fiber.Map{
		"name":  name,
		"price": price,
		"stock": stock,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var product models.Product
	decodeJSON(t, resp, &product)
	require.NotEmpty(t, product.ID)
	return product
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := setupApp(t)

	token := registerAndLogin(t, app, "alice", models.RoleCustomer)
	assert.NotEmpty(t, token)

	// Duplicate username.
	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Wrong password.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "nope-wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := setupApp(t)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders", "garbage-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	customer := registerAndLogin(t, app, "buyer", models.RoleCustomer)
	stranger := registerAndLogin(t, app, "stranger", models.RoleCustomer)
	productMgr := registerAndLogin(t, app, "prodmgr", models.RoleProductManager)
	salesMgr := registerAndLogin(t, app, "salesmgr", models.RoleSalesManager)

	product := createProduct(t, app, productMgr, "Mug", "20.00", 5)

	// Customers may not create products.
	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", customer, fiber.Map{
		"name": "Nope", "price": "1.00", "stock": 1,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Place the order.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders", customer, fiber.Map{
		"delivery_address": "123 Fashion St",
		"items":            []fiber.Map{{"product_id": product.ID, "quantity": 2}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var order models.Order
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.StatusProcessing, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("53.20")), "total: %s", order.TotalAmount)

	// The reservation is visible in the catalog.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+product.ID, customer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var catalogProduct models.Product
	decodeJSON(t, resp, &catalogProduct)
	assert.Equal(t, 3, catalogProduct.Stock)

	// Another customer cannot view the order.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, stranger, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Customers cannot drive the status machine.
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", customer, fiber.Map{
		"status": "delivered",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// The product manager can.
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", productMgr, fiber.Map{
		"status": "delivered",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.StatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredAt)

	// Unknown statuses are rejected.
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", productMgr, fiber.Map{
		"status": "shipped",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Partial refund: one unit of the two purchased.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders/"+order.ID+"/refund/request", customer, fiber.Map{
		"reason": "one was chipped",
		"items":  []fiber.Map{{"product_id": product.ID, "quantity": 1}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.StatusRefundRequested, order.Status)

	// Only the sales manager may decide.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders/"+order.ID+"/refund/approve", customer, fiber.Map{
		"approved": true,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders/"+order.ID+"/refund/approve", salesMgr, fiber.Map{
		"approved": true,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.StatusRefunded, order.Status)
	require.NotNil(t, order.RefundAmount)
	assert.True(t, order.RefundAmount.Equal(decimal.RequireFromString("20.00")), "refund: %s", order.RefundAmount)

	// The refunded unit is back in stock.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+product.ID, customer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &catalogProduct)
	assert.Equal(t, 4, catalogProduct.Stock)
}

func TestCancelOrderOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	customer := registerAndLogin(t, app, "buyer", models.RoleCustomer)
	productMgr := registerAndLogin(t, app, "prodmgr", models.RoleProductManager)
	product := createProduct(t, app, productMgr, "Mug", "20.00", 2)

	// Over-ordering is rejected and leaves stock untouched.
	resp := doRequest(t, app, http.MethodPost, "/api/v1/orders", customer, fiber.Map{
		"delivery_address": "addr",
		"items":            []fiber.Map{{"product_id": product.ID, "quantity": 3}},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders", customer, fiber.Map{
		"delivery_address": "addr",
		"items":            []fiber.Map{{"product_id": product.ID, "quantity": 2}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeJSON(t, resp, &order)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", customer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.StatusCancelled, order.Status)

	// Cancelling twice hits the state guard.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", customer, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+product.ID, customer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var catalogProduct models.Product
	decodeJSON(t, resp, &catalogProduct)
	assert.Equal(t, 2, catalogProduct.Stock)
}

func TestOrderListingIsScopedByRole(t *testing.T) {
	app, _ := setupApp(t)

	buyerOne := registerAndLogin(t, app, "buyerone", models.RoleCustomer)
	buyerTwo := registerAndLogin(t, app, "buyertwo", models.RoleCustomer)
	productMgr := registerAndLogin(t, app, "prodmgr", models.RoleProductManager)
	product := createProduct(t, app, productMgr, "Mug", "20.00", 10)

	for _, token := range []string{buyerOne, buyerTwo} {
		resp := doRequest(t, app, http.MethodPost, "/api/v1/orders", token, fiber.Map{
			"delivery_address": "addr",
			"items":            []fiber.Map{{"product_id": product.ID, "quantity": 1}},
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	var orders []models.Order
	resp := doRequest(t, app, http.MethodGet, "/api/v1/orders", buyerOne, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &orders)
	assert.Len(t, orders, 1)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders", productMgr, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &orders)
	assert.Len(t, orders, 2)
}

func TestDiscountEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	customer := registerAndLogin(t, app, "buyer", models.RoleCustomer)
	productMgr := registerAndLogin(t, app, "prodmgr", models.RoleProductManager)
	salesMgr := registerAndLogin(t, app, "salesmgr", models.RoleSalesManager)
	product := createProduct(t, app, productMgr, "Mug", "80.00", 5)

	// Only sales managers set discounts.
	resp := doRequest(t, app, http.MethodPatch, "/api/v1/products/discount", customer, fiber.Map{
		"product_ids":   []string{product.ID},
		"discount_rate": 25,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/discount", salesMgr, fiber.Map{
		"product_ids":   []string{product.ID},
		"discount_rate": 25,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var products []models.Product
	decodeJSON(t, resp, &products)
	require.Len(t, products, 1)
	assert.True(t, products[0].DiscountActive)
	assert.Equal(t, 25.0, products[0].DiscountRate)

	// A discounted order prices at the discounted unit price.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders", customer, fiber.Map{
		"delivery_address": "addr",
		"items":            []fiber.Map{{"product_id": product.ID, "quantity": 1}},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeJSON(t, resp, &order)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].ProductPrice.Equal(decimal.RequireFromString("60.00")),
		"unit price: %s", order.Items[0].ProductPrice)

	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/discount/clear", salesMgr, fiber.Map{
		"product_ids": []string{product.ID},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &products)
	require.Len(t, products, 1)
	assert.False(t, products[0].DiscountActive)
}

func TestWishlistOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	customer := registerAndLogin(t, app, "buyer", models.RoleCustomer)
	productMgr := registerAndLogin(t, app, "prodmgr", models.RoleProductManager)
	product := createProduct(t, app, productMgr, "Mug", "20.00", 5)

	resp := doRequest(t, app, http.MethodPost, "/api/v1/wishlist/"+product.ID, customer, nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/wishlist", customer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var products []models.Product
	decodeJSON(t, resp, &products)
	require.Len(t, products, 1)
	assert.Equal(t, product.ID, products[0].ID)

	// Unknown products cannot be wishlisted.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/wishlist/no-such-product", customer, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/wishlist/"+product.ID, customer, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/wishlist/"+product.ID, customer, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/wishlist", customer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &products)
	assert.Empty(t, products)
}
