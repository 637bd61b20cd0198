// Package consumer empties carts asynchronously when checkout completes
// outside the gateway (payment webhooks, back-office order entry). It is the
// second leg of the checkout-success transition; the synchronous leg lives in
// the checkout handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// CartClearer is satisfied by *cart.Service.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// messageReader abstracts *kafka.Reader for tests.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type CheckoutCompletedEvent struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

type Consumer struct {
	carts  CartClearer
	reader messageReader
}

func NewConsumer(carts CartClearer, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{carts: carts, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

// processMessage handles one event. Malformed events are logged and skipped;
// they must never wedge the consumer loop.
func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event CheckoutCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing checkout event: %v", err)
		return
	}
	if event.UserID == "" {
		log.Printf("checkout event missing user_id, skipping")
		return
	}

	if err := c.carts.Clear(ctx, event.UserID); err != nil {
		log.Printf("failed to clear cart for user %s: %v", event.UserID, err)
		return
	}

	log.Printf("cleared cart for user %s after checkout %s", event.UserID, event.OrderID)
}
