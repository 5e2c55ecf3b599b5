package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
	"github.com/mrlokans/readtrack/internal/library"
)

// Library is what the manager needs from the book repository.
type Library interface {
	Recorder
	GetBook(id string) (entities.Book, bool)
}

// Manager owns at most one tracker per book.
type Manager struct {
	library Library
	opts    Options

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewManager(library Library, opts Options) *Manager {
	return &Manager{
		library:  library,
		opts:     opts.withDefaults(),
		trackers: make(map[string]*Tracker),
	}
}

// Start begins a session for bookID. The start page must not exceed a known
// page count.
func (m *Manager) Start(bookID string, startPage int) (Status, error) {
	book, ok := m.library.GetBook(bookID)
	if !ok {
		return Status{}, errors.NotFoundf("book %s not found", bookID)
	}
	if book.PageCount > 0 && startPage > book.PageCount {
		return Status{}, errors.ValidationField("start_page", fmt.Sprintf("must be at most %d", book.PageCount))
	}

	t := m.tracker(bookID, true)
	if err := t.Start(startPage); err != nil {
		return Status{}, err
	}
	return t.Status(), nil
}

func (m *Manager) Pause(bookID string) (Status, error) {
	t, err := m.active(bookID)
	if err != nil {
		return Status{}, err
	}
	if err := t.Pause(); err != nil {
		return Status{}, err
	}
	return t.Status(), nil
}

func (m *Manager) Resume(bookID string) (Status, error) {
	t, err := m.active(bookID)
	if err != nil {
		return Status{}, err
	}
	if err := t.Resume(); err != nil {
		return Status{}, err
	}
	return t.Status(), nil
}

// End finishes the session for bookID and returns the updated book.
func (m *Manager) End(bookID string, endPage int, notes string) (entities.Book, error) {
	t, err := m.active(bookID)
	if err != nil {
		return entities.Book{}, err
	}
	book, err := t.End(endPage, notes)
	if err != nil {
		return entities.Book{}, err
	}

	m.mu.Lock()
	if m.trackers[bookID] == t && t.State() == StateIdle {
		delete(m.trackers, bookID)
	}
	m.mu.Unlock()
	return book, nil
}

// Status reports the session for bookID; books without a session are Idle.
func (m *Manager) Status(bookID string) Status {
	if t := m.tracker(bookID, false); t != nil {
		return t.Status()
	}
	return Status{BookID: bookID, State: StateIdle}
}

// Ticks streams elapsed time for bookID's session.
func (m *Manager) Ticks(ctx context.Context, bookID string) (<-chan time.Duration, error) {
	t, err := m.active(bookID)
	if err != nil {
		return nil, err
	}
	return t.Ticks(ctx), nil
}

// Active lists the books with a running or paused session.
func (m *Manager) Active() []Status {
	m.mu.Lock()
	trackers := make([]*Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		trackers = append(trackers, t)
	}
	m.mu.Unlock()

	var out []Status
	for _, t := range trackers {
		if s := t.Status(); s.State == StateRunning || s.State == StatePaused {
			out = append(out, s)
		}
	}
	return out
}

// SuspendAll stops every ticker, e.g. when the app goes to the background.
func (m *Manager) SuspendAll() {
	for _, t := range m.all() {
		t.Suspend()
	}
}

func (m *Manager) ForegroundAll() {
	for _, t := range m.all() {
		t.Foreground()
	}
}

// Forget discards the tracker for bookID and any session in progress, e.g.
// after the book was removed.
func (m *Manager) Forget(bookID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trackers[bookID]; ok {
		t.Suspend()
		delete(m.trackers, bookID)
	}
}

// BookEvents is the subscription side of the book repository.
type BookEvents interface {
	Subscribe(fn func(library.Event)) func()
}

// FollowRemovals forgets the session of every book removed from events. The
// returned func unsubscribes.
func (m *Manager) FollowRemovals(events BookEvents) func() {
	return events.Subscribe(func(ev library.Event) {
		if ev.Type == library.EventBookRemoved {
			m.Forget(ev.BookID)
		}
	})
}

func (m *Manager) all() []*Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		out = append(out, t)
	}
	return out
}

func (m *Manager) tracker(bookID string, create bool) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trackers[bookID]
	if !ok && create {
		t = NewTracker(bookID, m.library, m.opts)
		m.trackers[bookID] = t
	}
	return t
}

func (m *Manager) active(bookID string) (*Tracker, error) {
	t := m.tracker(bookID, false)
	if t == nil {
		return nil, errors.InvalidStatef("no reading session in progress for book %s", bookID)
	}
	return t, nil
}
