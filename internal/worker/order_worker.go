package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/cardmarket-api/internal/logger"
	"github.com/flicky/cardmarket-api/internal/model"
)

// OrderCacheInvalidator drops cached order lists touched by a new order.
type OrderCacheInvalidator interface {
	InvalidateOrderLists(ctx context.Context, customerID, sellerID int64) error
}

// OrderWorker consumes order.created events. Invalidation is idempotent, so
// redelivered messages need no deduplication.
type OrderWorker struct {
	channel *amqp.Channel
	caches  OrderCacheInvalidator
	log     *logger.Logger
	done    chan struct{}
}

func NewOrderWorker(ch *amqp.Channel, caches OrderCacheInvalidator, log *logger.Logger) *OrderWorker {
	return &OrderWorker{
		channel: ch,
		caches:  caches,
		log:     log,
		done:    make(chan struct{}),
	}
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started", "queue", orderQueueName)
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order event", "error", err, "message_id", msg.MessageId)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	log := w.log.With("order_id", event.OrderID, "customer_id", event.CustomerID, "seller_id", event.SellerID)

	if err := w.caches.InvalidateOrderLists(ctx, event.CustomerID, event.SellerID); err != nil {
		log.Warn("invalidate order lists", "error", err, "redelivered", msg.Redelivered)
		// one retry, then the DLQ
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	_ = msg.Ack(false)
	log.Debug("order lists invalidated")
}
