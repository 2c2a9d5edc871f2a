package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/kproc/internal/clock"
	"github.com/viant/kproc/internal/idgen"
	"github.com/viant/kproc/service/messaging"
)

// Config for memory queue implementation
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
	// DropOnFull makes Publish fail fast with messaging.ErrQueueFull instead of blocking
	DropOnFull bool
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message implements messaging.Message for in-memory queue
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	createdAt  time.Time
}

// ID returns message id
func (m *Message[T]) ID() string {
	return m.id
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack indicates a failure in processing the message
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %v already processed", m.id)
	}
	m.processed = true
	m.retryCount++
	if m.retryCount <= m.queue.config.MaxRetries {
		retry := &Message[T]{
			id:         m.id,
			payload:    m.payload,
			queue:      m.queue,
			retryCount: m.retryCount,
			createdAt:  clock.Now(),
		}
		time.AfterFunc(m.queue.config.RetryDelay, func() {
			if m.queue.enqueue(retry) != nil {
				m.queue.deadLetter(retry)
			}
		})
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.deadLetter(m)
	}
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	config   Config
	dlqMu    sync.Mutex
	dropped  atomic.Int64
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a new item to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		queue:     q,
		createdAt: clock.Now(),
	}
	if q.config.DropOnFull {
		return q.enqueue(msg)
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) enqueue(msg *Message[T]) error {
	select {
	case q.messages <- msg:
		return nil
	default:
		q.dropped.Add(1)
		return messaging.ErrQueueFull
	}
}

func (q *Queue[T]) deadLetter(msg *Message[T]) {
	q.dlqMu.Lock()
	q.dlq = append(q.dlq, msg)
	q.dlqMu.Unlock()
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// Dropped returns the number of messages rejected because the queue was full
func (q *Queue[T]) Dropped() int64 {
	return q.dropped.Load()
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
