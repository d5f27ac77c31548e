// connection.go implements the per-world broker connection described in
// spec §4.2. Grounded on _examples/original_source/src/new-login/MQConnection.cpp
// for the declare/bind/consume lifecycle, and on the teacher's Server/Session
// goroutine-pair idiom (internal/net/server.go, internal/net/session.go) for
// how the consume loop and publish path are split across goroutines.
//
// No example repo in the retrieval pack uses an AMQP client; this is an
// out-of-pack dependency (github.com/rabbitmq/amqp091-go, the maintained
// successor to the archived streadway/amqp) — see SPEC_FULL.md and
// DESIGN.md.
package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const queueName = "LOGIN_MQ"

// Handler is the capability MQHandler corresponds to: inspect a delivery
// and report whether it was handled. Connection calls registered handlers
// in registration order until one returns true (spec §4.2, §9 "Polymorphism").
type Handler func(body []byte) (handled bool)

// Options configures a single world's broker connection.
type Options struct {
	WorldID  uint32
	URL      string
	VHost    string
	Exchange string
	RouteKey string
}

// Connection is one long-lived session to a world's broker, exposing a
// single AMQP channel shared by the consume loop and concurrent publishers.
type Connection struct {
	worldID uint32
	opts    Options
	log     *zap.Logger

	conn *amqp.Connection
	ch   *amqp.Channel

	mu       sync.Mutex // protects ch access; outermost lock is never held across this
	handlers []Handler

	sendersWaiting atomic.Int32

	closeCh chan struct{}
	once    sync.Once
}

// Connect dials the broker, declares LOGIN_MQ, optionally binds it to an
// exchange/route key, and starts consuming. Mirrors
// MQConnection::MQConnection's declare/bind/consume sequence.
func Connect(ctx context.Context, opts Options, log *zap.Logger) (*Connection, error) {
	conn, err := amqp.DialConfig(opts.URL, amqp.Config{Vhost: opts.VHost})
	if err != nil {
		return nil, fmt.Errorf("dial broker for world %d: %w", opts.WorldID, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel for world %d: %w", opts.WorldID, err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue for world %d: %w", opts.WorldID, err)
	}
	if opts.Exchange != "" {
		if err := ch.QueueBind(queueName, opts.RouteKey, opts.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("bind queue for world %d: %w", opts.WorldID, err)
		}
	}

	c := &Connection{
		worldID: opts.WorldID,
		opts:    opts,
		log:     log.With(zap.Uint32("world_id", opts.WorldID)),
		conn:    conn,
		ch:      ch,
		closeCh: make(chan struct{}),
	}
	return c, nil
}

// RegisterHandler appends a handler to the ordered dispatch chain.
func (c *Connection) RegisterHandler(h Handler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

// Send publishes bytes on the configured exchange/route key. Safe to call
// concurrently from any goroutine; increments the waiters counter first so
// Run() yields the channel to publishers (spec §4.2/§5 fairness rule).
func (c *Connection) Send(body []byte) error {
	c.sendersWaiting.Add(1)
	defer c.sendersWaiting.Add(-1)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ch.Publish(c.opts.Exchange, c.opts.RouteKey, false, false, amqp.Publishing{
		ContentType: "application/octet-stream",
		Body:        body,
	})
}

// Run consumes LOGIN_MQ until ctx is cancelled or a fatal broker error
// occurs. It yields 100ms to waiting publishers before polling, and treats
// a 1ms-ish poll timeout as non-fatal, matching spec §4.2's consume loop.
func (c *Connection) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume for world %d: %w", c.worldID, err)
	}

	closeNotify := c.conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		if c.sendersWaiting.Load() > 0 {
			time.Sleep(100 * time.Millisecond)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closeCh:
			return nil
		case amqpErr, ok := <-closeNotify:
			if !ok {
				return nil
			}
			return fmt.Errorf("broker connection closed for world %d: %w", c.worldID, amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for world %d", c.worldID)
			}
			c.dispatch(d.Body)
		case <-time.After(time.Millisecond):
			// 1ms poll timeout; not an error.
		}
	}
}

func (c *Connection) dispatch(body []byte) {
	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		if h(body) {
			return
		}
	}
	c.log.Debug("broker message not handled by any registered handler")
}

// Close tears down the channel and connection. Idempotent.
func (c *Connection) Close() {
	c.once.Do(func() {
		close(c.closeCh)
		c.ch.Close()
		c.conn.Close()
	})
}

// WorldID returns the world this connection serves.
func (c *Connection) WorldID() uint32 { return c.worldID }
