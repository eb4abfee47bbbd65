package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrPoolExhausted = errors.New("no channels available in pool")
	ErrPoolClosed    = errors.New("channel pool is closed")
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelPool hands out channels on a single connection, each with the queue declared.
type ChannelPool struct {
	conn     *amqp.Connection
	channels chan channel
	open     func() (channel, error)
	mu       sync.Mutex
	closed   bool
}

func NewChannelPool(url, queue string, size int) (*ChannelPool, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("can't connect to rabbitmq: %w", err)
	}

	open := func() (channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}

		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("can't declare queue %s: %w", queue, err)
		}

		return ch, nil
	}

	p, err := newChannelPool(open, size)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn

	slog.Info("rabbitmq channel pool created", slog.Int("size", size), slog.String("queue", queue))
	return p, nil
}

func newChannelPool(open func() (channel, error), size int) (*ChannelPool, error) {
	p := &ChannelPool{
		channels: make(chan channel, size),
		open:     open,
	}

	for i := 0; i < size; i++ {
		ch, err := open()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("can't create channel %d: %w", i, err)
		}
		p.channels <- ch
	}

	return p, nil
}

// Get takes a channel from the pool, replacing it if the broker closed it.
func (p *ChannelPool) Get() (channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, ErrPoolClosed
		}
		if ch.IsClosed() {
			return p.open()
		}
		return ch, nil
	default:
		return nil, ErrPoolExhausted
	}
}

func (p *ChannelPool) Put(ch channel) {
	if ch == nil || ch.IsClosed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = ch.Close()
		return
	}

	select {
	case p.channels <- ch:
	default:
		_ = ch.Close()
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		_ = ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
