package feed

import (
	"context"
	"fmt"
	"sync"

	"restoflow-api/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPExchange is the fanout exchange every process binds a private queue to
const AMQPExchange = "restoflow.changes"

// AMQP fans events out through a RabbitMQ fanout exchange
type AMQP struct {
	conn *amqp.Connection
	mu   sync.Mutex // amqp channels are not safe for concurrent publishing
	ch   *amqp.Channel
}

func NewAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(AMQPExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{conn: conn, ch: ch}, nil
}

func (a *AMQP) Publish(ctx context.Context, ev Event) error {
	body, err := encode(ev)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.ch.PublishWithContext(ctx, AMQPExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe binds an exclusive auto-delete queue that disappears with the subscription
func (a *AMQP) Subscribe(ctx context.Context, tables ...string) (<-chan Event, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", AMQPExchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		log := logger.Component("feed.amqp")
		defer close(out)
		defer ch.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				ev, err := decode(d.Body)
				if err != nil {
					log.WithError(err).Warn("dropping malformed message")
					continue
				}
				if !wants(tables, ev) {
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (a *AMQP) Close() error {
	if a.ch != nil && !a.ch.IsClosed() {
		if err := a.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if a.conn != nil && !a.conn.IsClosed() {
		if err := a.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
