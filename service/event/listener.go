package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/kproc/service/messaging"
)

// Listener feeds events of one payload type to a handler. A panicking handler nacks the event,
// the queue redelivers it until its retries run out and then dead letters it.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop stops consuming and waits for the in-flight handler
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.queue.Consume(l.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				slog.Warn("failed to consume event", "error", err)
				continue
			}
			if msg == nil {
				continue
			}
			if err = l.handle(msg); err != nil {
				slog.Warn("event handler failed", "error", err)
				if nackErr := msg.Nack(err); nackErr != nil {
					slog.Warn("failed to nack event", "error", nackErr)
				}
				continue
			}
			if err = msg.Ack(); err != nil {
				slog.Warn("failed to ack event", "error", err)
			}
		}
	}()
}

func (l *Listener[T]) handle(msg messaging.Message[Event[T]]) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("listener panic: %v", recovered)
		}
	}()
	l.handler(msg.T())
	return nil
}
