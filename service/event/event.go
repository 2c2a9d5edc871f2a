package event

import (
	"time"

	"github.com/viant/kproc/internal/clock"
)

// Context identifies the kernel instance an event comes from
type Context struct {
	BootID    string `json:"bootID"`
	Source    string `json:"source"`
	EventType string `json:"eventType"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}
