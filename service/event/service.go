package event

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/viant/kproc/internal/idgen"
	"github.com/viant/kproc/service/messaging"
	"github.com/viant/kproc/service/messaging/memory"
)

type Service struct {
	publisher         *Publisher[any]
	listener          *Listener[any]
	typedPublishers   map[reflect.Type]any
	typedListener     map[reflect.Type]any
	mux               *sync.RWMutex
	queueVendor       messaging.Vendor
	bootID            string
	memNewQueueConfig func(name string) memory.Config
}

// BootID returns the identifier of the kernel instance the service publishes for
func (s *Service) BootID() string {
	return s.bootID
}

// NewContext creates an event context for source
func (s *Service) NewContext(source, eventType string) *Context {
	return &Context{BootID: s.bootID, Source: source, EventType: eventType}
}

func (s *Service) SetListener(handler func(*Event[any])) {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler)
	s.listener.Start()
}

// Close stops all listeners
func (s *Service) Close() {
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	for key, listener := range s.typedListener {
		listener.(interface{ Stop() }).Stop()
		delete(s.typedListener, key)
	}
}

func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListener:   make(map[reflect.Type]any),
		mux:             &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.bootID == "" {
		ret.bootID = idgen.New()
	}
	switch queueVendor {
	case messaging.VendorMemory:
		if ret.memNewQueueConfig == nil {
			ret.memNewQueueConfig = func(string) memory.Config {
				config := memory.DefaultConfig()
				config.DropOnFull = true
				return config
			}
		}
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}

	queue, err := QueueOf[Event[any]](ret, "any")
	if err != nil {
		return nil, err
	}
	ret.publisher = NewPublisher[any](queue)
	return ret, nil
}

func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case messaging.VendorMemory:
		return memory.NewQueue[T](s.memNewQueueConfig(name)), nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	rType := reflect.TypeOf((*T)(nil)).Elem()
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

func SetListenerOf[T any](s *Service, handler func(*Event[T])) error {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedListener[key]
	s.mux.RUnlock()
	if ok {
		ret.(*Listener[T]).Stop()
	}
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	listener := NewListener[T](publisher, handler)
	s.mux.Lock()
	s.typedListener[key] = listener
	listener.Start()
	s.mux.Unlock()
	return nil
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T]), nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.typedPublishers[key]; ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](s, key.String())
	if err != nil {
		return nil, err
	}
	publisher := NewPublisher[T](queue)
	publisher.anyQueue = s.publisher.queue
	s.typedPublishers[key] = publisher
	return publisher, nil
}
