package events

import (
	"sync"
	"time"
)

type Entity string

const (
	EntityProfile     Entity = "profiles"
	EntityOffer       Entity = "offers"
	EntityApplication Entity = "applications"
	EntityTimeBalance Entity = "time_balances"
	EntityTransaction Entity = "transactions"
)

type Type string

const (
	TypeInsert Type = "insert"
	TypeUpdate Type = "update"
	TypeDelete Type = "delete"
)

// Event describes one committed entity mutation. Old is nil for inserts,
// New is nil for deletes.
type Event struct {
	Entity     Entity    `json:"entity"`
	Type       Type      `json:"type"`
	Old        any       `json:"old,omitempty"`
	New        any       `json:"new,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Handler func(Event)

// Bus fans committed change events out to subscribers. Publish is
// synchronous; handlers must not block.
type Bus struct {
	mu   sync.RWMutex
	subs map[Entity][]Handler
	all  []Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Entity][]Handler)}
}

func (b *Bus) Subscribe(entity Entity, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.subs[entity] = append(b.subs[entity], handler)
	b.mu.Unlock()
}

func (b *Bus) SubscribeAll(handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.all = append(b.all, handler)
	b.mu.Unlock()
}

func (b *Bus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Entity])+len(b.all))
	handlers = append(handlers, b.subs[event.Entity]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
