package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
)

const publishTimeout = 5 * time.Second

// AMQPBus broadcasts state snapshots over a fanout exchange. Every consumer
// binds its own exclusive queue, so a publish reaches all live contexts,
// including ones on other machines. Messages are transient: a context that
// was offline catches up from storage, not from the bus.
type AMQPBus struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	log          *slog.Logger
}

// NewAMQPBus connects to the broker and declares the fanout exchange.
func NewAMQPBus(url, exchangeName string, logger *slog.Logger) (*AMQPBus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	bus := &AMQPBus{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		log:          logger,
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"fanout",     // type
		false,        // durable
		true,         // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return bus, nil
}

// Publish sends a state snapshot to every bound queue.
func (b *AMQPBus) Publish(ctx context.Context, state *model.State) error {
	body, err := Encode(state)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName, // exchange
		"",             // routing key ignored by fanout
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish state: %w", err)
	}

	b.log.Debug("state broadcast", "exchange", b.exchangeName, "lastUpdated", state.LastUpdated)
	return nil
}

// Subscribe binds an exclusive queue to the exchange and delivers incoming
// snapshots to handler until ctx is done.
func (b *AMQPBus) Subscribe(ctx context.Context, handler func(*model.State)) error {
	queue, err := b.channel.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := b.channel.QueueBind(queue.Name, "", b.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := b.channel.Consume(
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack: lost messages are recovered from storage
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	b.log.Info("subscribed to state broadcasts", "exchange", b.exchangeName, "queue", queue.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return common.ErrBusClosed
			}
			state, err := Decode(delivery.Body)
			if err != nil {
				b.log.Warn("dropping malformed broadcast message", "error", err)
				continue
			}
			if state != nil {
				handler(state)
			}
		}
	}
}

// Close tears down the channel and connection.
func (b *AMQPBus) Close() error {
	if b.channel != nil {
		_ = b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
