package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/pkg/rabbitmq"
)

// Event kinds published to the notification queue.
const (
	EventRestock        = "wishlist.restock"
	EventDepleted       = "wishlist.depleted"
	EventDiscountChange = "wishlist.discount_changed"
)

// Event is the wire format for a wishlist notification. The delivery worker
// consumes these and talks to the actual channel (email, log).
type Event struct {
	Kind           string    `json:"kind"`
	UserIDs        []string  `json:"user_ids"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Price          string    `json:"price"`
	Stock          int       `json:"stock"`
	DiscountActive bool      `json:"discount_active"`
	DiscountRate   float64   `json:"discount_rate"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// AMQPNotifier publishes wishlist notification events to RabbitMQ, decoupling
// delivery from the transaction that produced the event.
type AMQPNotifier struct {
	client *rabbitmq.Client
}

// NewAMQPNotifier creates a new AMQPNotifier.
func NewAMQPNotifier(client *rabbitmq.Client) *AMQPNotifier {
	return &AMQPNotifier{
		client: client,
	}
}

func (n *AMQPNotifier) NotifyRestock(userIDs []string, product models.Product) error {
	return n.publish(EventRestock, userIDs, product, product.DiscountActive, product.DiscountRate)
}

func (n *AMQPNotifier) NotifyDepleted(userIDs []string, product models.Product) error {
	return n.publish(EventDepleted, userIDs, product, product.DiscountActive, product.DiscountRate)
}

func (n *AMQPNotifier) NotifyDiscountChange(userIDs []string, product models.Product, active bool, rate float64) error {
	return n.publish(EventDiscountChange, userIDs, product, active, rate)
}

func (n *AMQPNotifier) publish(kind string, userIDs []string, product models.Product, active bool, rate float64) error {
	event := Event{
		Kind:           kind,
		UserIDs:        userIDs,
		ProductID:      product.ID,
		ProductName:    product.Name,
		Price:          product.FinalPrice().StringFixed(2),
		Stock:          product.Stock,
		DiscountActive: active,
		DiscountRate:   rate,
		OccurredAt:     time.Now(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", kind, err)
	}
	if err := n.client.Publish(body); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", kind, err)
	}
	return nil
}
