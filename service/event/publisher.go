package event

import (
	"context"

	"github.com/viant/kproc/internal/clock"
	"github.com/viant/kproc/service/messaging"
)

// Publisher writes events of one payload type. Events accepted by the typed queue are
// mirrored to the service wide untyped queue when the publisher was obtained from a Service.
type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	anyQueue messaging.Queue[Event[any]]
}

// NewPublisher creates a publisher over queue
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish stamps and enqueues event. With a drop on full queue a rejected event is not mirrored
// and messaging.ErrQueueFull is returned.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = clock.Now()
	}
	if err := p.queue.Publish(ctx, event); err != nil {
		return err
	}
	if p.anyQueue != nil {
		// the untyped queue often has no consumer, a full mirror is not an error
		_ = p.anyQueue.Publish(ctx, &Event[any]{Context: event.Context, CreatedAt: event.CreatedAt, Metadata: event.Metadata, Data: event.Data})
	}
	return nil
}

// Consume takes and acknowledges the next event, it blocks until one is available or ctx is done.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
