package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type AMQPPublisher struct {
	pool  *ChannelPool
	queue string
}

func NewAMQPPublisher(pool *ChannelPool, queue string) *AMQPPublisher {
	return &AMQPPublisher{pool: pool, queue: queue}
}

func (p *AMQPPublisher) PublishSaleCompleted(ctx context.Context, e SaleCompleted) error {
	e.Type = TypeSaleCompleted

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("can't marshal event: %w", err)
	}

	ch, err := p.pool.Get()
	if err != nil {
		return fmt.Errorf("can't get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         e.Type,
		Timestamp:    e.At,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("can't publish %s for invoice %d: %w", e.Type, e.InvoiceID, err)
	}

	return nil
}
