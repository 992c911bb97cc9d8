package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const memoryQueueSize = 128

// Memory is an in-process broker. Queues are created on first use and
// buffer up to memoryQueueSize messages.
type Memory struct {
	queues map[string]chan Message
	closed bool
	mux    sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{queues: make(map[string]chan Message)}
}

func (m *Memory) queue(name string) (chan Message, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	q, ok := m.queues[name]
	if !ok {
		q = make(chan Message, memoryQueueSize)
		m.queues[name] = q
	}

	return q, nil
}

func (m *Memory) Publish(ctx context.Context, queue string, msg Message) error {
	q, err := m.queue(queue)
	if err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Body = append([]byte(nil), msg.Body...)

	select {
	case q <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Consume(ctx context.Context, queue string) (<-chan Message, error) {
	q, err := m.queue(queue)
	if err != nil {
		return nil, err
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-q:
				select {
				case out <- msg:
				case <-ctx.Done():
					// put it back for the next consumer
					select {
					case q <- msg:
					default:
					}
					return
				}
			}
		}
	}()

	return out, nil
}

func (m *Memory) Ack(context.Context, Message) error {
	return nil
}

func (m *Memory) Close() error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.closed = true
	return nil
}
