// Package transport moves item requests and results between clients and the
// server. AMQP and SQS brokers are supported, plus an in-process queue for
// local runs.
package transport

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("transport closed")

type Message struct {
	ID            string
	CorrelationID string
	ReplyTo       string
	Body          []byte

	// broker specific handle used by Ack
	receipt any
}

type Transport interface {
	// Publish sends msg to queue, declaring the queue if the broker needs it.
	Publish(ctx context.Context, queue string, msg Message) error
	// Consume delivers messages from queue until ctx is done. The channel is
	// closed when consuming stops.
	Consume(ctx context.Context, queue string) (<-chan Message, error)
	// Ack marks a consumed message as processed.
	Ack(ctx context.Context, msg Message) error
	Close() error
}
