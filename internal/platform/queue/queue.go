package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrClosed = errors.New("queue client closed")

// Client owns one AMQP connection and channel bound to a single durable queue.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func Open(url, queue string, publishTimeout time.Duration) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	if publishTimeout <= 0 {
		publishTimeout = 10 * time.Second
	}
	return &Client{conn: conn, channel: ch, queue: queue, timeout: publishTimeout}, nil
}

func (c *Client) Queue() string {
	return c.queue
}

// Publish sends a persistent JSON message. Channels are not safe for
// concurrent publishing, so calls are serialized.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.channel.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Consume starts a manual-ack consumer on the queue.
func (c *Client) Consume(consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if prefetch > 0 {
		if err := c.channel.Qos(prefetch, 0, false); err != nil {
			return nil, err
		}
	}
	return c.channel.Consume(c.queue, consumer, false, false, false, false, nil)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	chErr := c.channel.Close()
	connErr := c.conn.Close()
	return errors.Join(chErr, connErr)
}
