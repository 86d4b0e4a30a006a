package usecase

import (
	"sort"
	"sync"

	"github.com/fastygo/assettrack/domain"
)

// EventHandler receives session events. Handlers run synchronously on the
// publishing goroutine and must not call back into the publisher.
type EventHandler func(event domain.Event)

// Broadcaster fans session events out to named subscribers, typically the
// navigation gate.
type Broadcaster struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		handlers: make(map[string]EventHandler),
	}
}

// Subscribe registers handler under name, replacing any previous handler with
// the same name. It returns a function that removes the subscription.
func (b *Broadcaster) Subscribe(name string, handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, name)
	}
}

// Publish delivers event to every subscriber in name order.
func (b *Broadcaster) Publish(event domain.Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	handlers := make([]EventHandler, 0, len(names))
	for _, name := range names {
		handlers = append(handlers, b.handlers[name])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
