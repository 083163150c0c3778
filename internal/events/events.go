// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = "orders.placed"
	TopicOrderStatusChanged = "orders.status_changed"
)

// Publisher sends an event to a topic, keyed for partitioning
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
	Close() error
}

// OrderPlaced is emitted once an order and its items are committed
type OrderPlaced struct {
	OrderID       string          `json:"orderId"`
	UserID        string          `json:"userId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	PaymentMethod string          `json:"paymentMethod"`
	ItemCount     int             `json:"itemCount"`
	PlacedAt      time.Time       `json:"placedAt"`
}

// OrderStatusChanged is emitted after an admin status write
type OrderStatusChanged struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

// Nop discards every event
type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }
func (Nop) Close() error                                            { return nil }
