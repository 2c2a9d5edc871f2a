package event

import (
	"github.com/viant/kproc/service/messaging/memory"
)

type Option func(s *Service)

// WithNewMemoryQueueConfig sets the new memory queue configuration
func WithNewMemoryQueueConfig(newQueue func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newQueue
	}
}

// WithBootID sets the identifier stamped on every event context
func WithBootID(id string) Option {
	return func(s *Service) {
		s.bootID = id
	}
}
