package library

import (
	"context"
	"log"
	"sync"

	"github.com/mrlokans/readtrack/internal/errors"
)

// writer serializes durable writes: at most one SaveAll runs at a time and
// requests that arrive meanwhile collapse into a single follow-up write of
// the latest cache snapshot.
type writer struct {
	repo *Repository

	mu        sync.Mutex
	requested uint64
	completed uint64
	lastErr   error
	settled   chan struct{}

	signal  chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func newWriter(repo *Repository) *writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &writer{
		repo:    repo,
		settled: make(chan struct{}),
		signal:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// schedule requests a write of the current cache.
func (w *writer) schedule() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.requested++
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.signal:
			w.write()
		}
	}
}

func (w *writer) write() {
	w.mu.Lock()
	generation := w.requested
	w.mu.Unlock()

	// Snapshot after reading the generation so it covers every mutation up
	// to and including it.
	r := w.repo
	r.mu.RLock()
	snapshot := r.snapshotLocked()
	r.mu.RUnlock()

	err := r.store.SaveAll(w.ctx, snapshot)
	if err != nil {
		err = errors.Persistence(err, "failed to save library")
		log.Printf("[STORE] Durable write of %d books failed: %v", len(snapshot), err)
		if r.auditor != nil {
			if path, dumpErr := r.auditor.Dump("save_failed", snapshot); dumpErr != nil {
				log.Printf("[STORE] Failed to dump snapshot: %v", dumpErr)
			} else {
				log.Printf("[STORE] Snapshot written to %s", path)
			}
		}
	}

	w.mu.Lock()
	w.completed = generation
	w.lastErr = err
	close(w.settled)
	w.settled = make(chan struct{})
	w.mu.Unlock()

	if err != nil {
		r.events.emit(Event{Type: EventPersistenceWarning, Err: err})
	}
}

func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.requested
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.completed >= target || w.stopped {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		settled := w.settled
		w.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *writer) lastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *writer) stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	w.cancel()
	<-w.done
}
