package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

type AMQP struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	declared map[string]bool
	mux      sync.Mutex
}

func DialAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	return &AMQP{
		conn:     conn,
		channel:  ch,
		declared: make(map[string]bool),
	}, nil
}

func (a *AMQP) declare(queue string) error {
	if a.declared[queue] {
		return nil
	}
	_, err := a.channel.QueueDeclare(
		queue, // queue name
		true,  // durable
		false, // auto delete
		false, // exclusive
		false, // no wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	a.declared[queue] = true

	return nil
}

func (a *AMQP) Publish(_ context.Context, queue string, msg Message) error {
	a.mux.Lock()
	defer a.mux.Unlock()
	if err := a.declare(queue); err != nil {
		return err
	}

	return a.channel.Publish(
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			MessageId:     msg.ID,
			CorrelationId: msg.CorrelationID,
			ReplyTo:       msg.ReplyTo,
			Body:          msg.Body,
		},
	)
}

func (a *AMQP) Consume(ctx context.Context, queue string) (<-chan Message, error) {
	a.mux.Lock()
	if err := a.declare(queue); err != nil {
		a.mux.Unlock()
		return nil, err
	}
	deliveries, err := a.channel.Consume(
		queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil)
	a.mux.Unlock()
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				msg := Message{
					ID:            d.MessageId,
					CorrelationID: d.CorrelationId,
					ReplyTo:       d.ReplyTo,
					Body:          d.Body,
					receipt:       d,
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (a *AMQP) Ack(_ context.Context, msg Message) error {
	d, ok := msg.receipt.(amqp.Delivery)
	if !ok {
		return fmt.Errorf("ack %s: not an amqp delivery", msg.ID)
	}
	return d.Ack(false)
}

func (a *AMQP) Close() error {
	a.mux.Lock()
	defer a.mux.Unlock()
	if err := a.channel.Close(); err != nil {
		a.conn.Close()
		return err
	}
	return a.conn.Close()
}
