package library

import "sync"

type EventType string

const (
	EventBookAdded          EventType = "book_added"
	EventBookUpdated        EventType = "book_updated"
	EventBookRemoved        EventType = "book_removed"
	EventPersistenceWarning EventType = "persistence_warning"
)

type Event struct {
	Type   EventType
	BookID string
	Err    error
}

type events struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(Event)
}

func (e *events) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[int]func(Event))
	}
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *events) emit(ev Event) {
	e.mu.RLock()
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
