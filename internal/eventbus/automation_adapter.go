package eventbus

import (
	"context"
	"sync"
)

// Adapter implements ports.EventBusPort (declared in the automation package;
// not imported here to avoid a cycle, see ports.EventBusPort's doc comment)
// on top of a Publisher. Subscribe is purely in-process: Publisher has no
// delivery-side contract of its own, so fan-out to local subscribers happens
// here rather than round-tripping through the broker.
type Adapter struct {
	publisher Publisher

	mu          sync.RWMutex
	subscribers map[string]map[int]func(ctx context.Context, payload any)
	nextID      int
}

// NewAdapter wraps publisher (NoOpPublisher is a valid default) into the
// automation core's EventBusPort shape.
func NewAdapter(publisher Publisher) *Adapter {
	return &Adapter{
		publisher:   publisher,
		subscribers: make(map[string]map[int]func(ctx context.Context, payload any)),
	}
}

// Publish sends the event to the wrapped Publisher and fans it out to any
// local subscribers registered under name.
func (a *Adapter) Publish(ctx context.Context, name string, payload any) error {
	if err := a.publisher.Publish(ctx, name, Event{Type: name, Payload: payload}); err != nil {
		return err
	}

	a.mu.RLock()
	handlers := make([]func(ctx context.Context, payload any), 0, len(a.subscribers[name]))
	for _, h := range a.subscribers[name] {
		handlers = append(handlers, h)
	}
	a.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, payload)
	}
	return nil
}

// Subscribe registers handler for every Publish call under name, returning
// an unsubscribe func.
func (a *Adapter) Subscribe(name string, handler func(ctx context.Context, payload any)) func() {
	a.mu.Lock()
	if a.subscribers[name] == nil {
		a.subscribers[name] = make(map[int]func(ctx context.Context, payload any))
	}
	id := a.nextID
	a.nextID++
	a.subscribers[name][id] = handler
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subscribers[name], id)
		a.mu.Unlock()
	}
}
