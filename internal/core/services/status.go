package services

import (
	"slices"
	"sync"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// Ensure StatusBus implements the interfaces.
var (
	_ driving.StatusObserver = (*StatusBus)(nil)
	_ driving.StatusSource   = (*StatusBus)(nil)
)

// StatusBus fans status events out to any number of subscribers.
// Safe for concurrent use.
type StatusBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]driving.StatusObserver
}

// NewStatusBus creates an empty bus.
func NewStatusBus() *StatusBus {
	return &StatusBus{subs: make(map[int]driving.StatusObserver)}
}

// Subscribe registers observer and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *StatusBus) Subscribe(observer driving.StatusObserver) (unsubscribe func()) {
	if observer == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = observer
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// OnStatus delivers event to every subscriber in subscription order.
func (b *StatusBus) OnStatus(event domain.StatusEvent) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	slices.Sort(ids)
	for _, id := range ids {
		b.mu.RLock()
		observer, ok := b.subs[id]
		b.mu.RUnlock()
		if ok {
			observer.OnStatus(event)
		}
	}
}

// Len returns the number of subscribers.
func (b *StatusBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// multiObserver forwards to each non-nil observer.
type multiObserver []driving.StatusObserver

func (m multiObserver) OnStatus(event domain.StatusEvent) {
	for _, o := range m {
		if o != nil {
			o.OnStatus(event)
		}
	}
}

// notify sends event to observer if there is one.
func notify(observer driving.StatusObserver, event domain.StatusEvent) {
	if observer != nil {
		observer.OnStatus(event)
	}
}
