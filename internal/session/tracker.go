// Package session tracks timed reading sessions. A Tracker moves through
// Idle -> Running <-> Paused -> Ended and hands the finished session to the
// library, then returns to Idle.
//
// Elapsed time is always derived from timestamps, so time spent while the
// process was suspended is accounted for on the next read.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/errors"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// DefaultTickInterval is the elapsed-time display cadence.
const DefaultTickInterval = time.Second

// Recorder receives finished sessions.
type Recorder interface {
	RecordReadingSession(bookID string, in entities.SessionInput) (entities.Book, error)
}

// Ticker is the subset of time.Ticker the tracker needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type Options struct {
	Now          func() time.Time
	NewTicker    TickerFactory
	TickInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewTicker == nil {
		o.NewTicker = NewRealTicker
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	return o
}

// Status is a point-in-time view of a tracker.
type Status struct {
	BookID      string     `json:"book_id"`
	State       State      `json:"state"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	StartPage   int        `json:"start_page"`
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	TotalPaused int64      `json:"total_paused_ms"`
	Elapsed     int64      `json:"elapsed_ms"`
	Suspended   bool       `json:"suspended"`
}

// Tracker is the state machine for one book's reading session.
type Tracker struct {
	bookID   string
	recorder Recorder
	opts     Options

	mu          sync.Mutex
	state       State
	startTime   time.Time
	startPage   int
	pausedAt    time.Time
	totalPaused time.Duration
	suspended   bool

	stopTick    chan struct{}
	subscribers map[chan time.Duration]struct{}
}

func NewTracker(bookID string, recorder Recorder, opts Options) *Tracker {
	return &Tracker{
		bookID:      bookID,
		recorder:    recorder,
		opts:        opts.withDefaults(),
		state:       StateIdle,
		subscribers: make(map[chan time.Duration]struct{}),
	}
}

func (t *Tracker) BookID() string { return t.bookID }

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start begins a running session at startPage.
func (t *Tracker) Start(startPage int) error {
	if startPage < 0 {
		return errors.ValidationField("start_page", "must be a non-negative integer")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateIdle {
		return errors.InvalidStatef("session for book %s is already %s", t.bookID, t.state)
	}

	t.state = StateRunning
	t.startTime = t.opts.Now()
	t.startPage = startPage
	t.pausedAt = time.Time{}
	t.totalPaused = 0
	t.startTickingLocked()

	log.Printf("[SESSION] Started session for book %s at page %d", t.bookID, startPage)
	return nil
}

func (t *Tracker) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return errors.InvalidStatef("cannot pause a session that is %s", t.state)
	}

	t.state = StatePaused
	t.pausedAt = t.opts.Now()
	t.stopTickingLocked()
	return nil
}

func (t *Tracker) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePaused {
		return errors.InvalidStatef("cannot resume a session that is %s", t.state)
	}

	t.totalPaused += nonNegative(t.opts.Now().Sub(t.pausedAt))
	t.pausedAt = time.Time{}
	t.state = StateRunning
	t.startTickingLocked()
	return nil
}

// End finishes the session and records it. On success the tracker is Idle
// again; if recording fails the session keeps its previous state so the
// caller can retry with corrected input. The recorder runs without the
// tracker lock held, so its listeners may query the tracker.
func (t *Tracker) End(endPage int, notes string) (entities.Book, error) {
	if endPage < 0 {
		return entities.Book{}, errors.ValidationField("end_page", "must be a non-negative integer")
	}

	t.mu.Lock()
	if t.state != StateRunning && t.state != StatePaused {
		state := t.state
		t.mu.Unlock()
		return entities.Book{}, errors.InvalidStatef("cannot end a session that is %s", state)
	}
	if endPage < t.startPage {
		startPage := t.startPage
		t.mu.Unlock()
		return entities.Book{}, errors.ValidationField("end_page", fmt.Sprintf("must be at least start page %d", startPage))
	}

	now := t.opts.Now()
	paused := t.totalPaused
	if t.state == StatePaused {
		paused += nonNegative(now.Sub(t.pausedAt))
	}
	duration := nonNegative(now.Sub(t.startTime) - paused)

	// Ended blocks other transitions while the recorder runs.
	previous := t.state
	t.state = StateEnded
	t.stopTickingLocked()
	in := entities.SessionInput{
		StartTime:     t.startTime,
		EndTime:       &now,
		StartPage:     t.startPage,
		EndPage:       endPage,
		TotalPausedMs: paused.Milliseconds(),
		DurationMs:    duration.Milliseconds(),
		Notes:         notes,
	}
	t.mu.Unlock()

	book, err := t.recorder.RecordReadingSession(t.bookID, in)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = previous
		t.startTickingLocked()
		return entities.Book{}, err
	}

	log.Printf("[SESSION] Ended session for book %s: pages %d-%d, %s active, %s paused",
		t.bookID, in.StartPage, endPage, duration.Round(time.Second), paused.Round(time.Second))

	t.state = StateIdle
	t.startTime = time.Time{}
	t.startPage = 0
	t.pausedAt = time.Time{}
	t.totalPaused = 0
	return book, nil
}

// Elapsed returns active reading time so far.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked(t.opts.Now())
}

func (t *Tracker) elapsedLocked(now time.Time) time.Duration {
	switch t.state {
	case StateRunning:
		return nonNegative(now.Sub(t.startTime) - t.totalPaused)
	case StatePaused:
		return nonNegative(t.pausedAt.Sub(t.startTime) - t.totalPaused)
	}
	return 0
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.opts.Now()
	s := Status{
		BookID:    t.bookID,
		State:     t.state,
		StartPage: t.startPage,
		Elapsed:   t.elapsedLocked(now).Milliseconds(),
		Suspended: t.suspended,
	}
	if t.state == StateRunning || t.state == StatePaused {
		start := t.startTime
		s.StartTime = &start
		paused := t.totalPaused
		if t.state == StatePaused {
			at := t.pausedAt
			s.PausedAt = &at
		}
		s.TotalPaused = paused.Milliseconds()
	}
	return s
}

// Suspend stops ticking while the app is in the background. Wall-clock time
// keeps counting toward a running session.
func (t *Tracker) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspended = true
	t.stopTickingLocked()
}

// Foreground resumes ticking after Suspend.
func (t *Tracker) Foreground() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspended = false
	t.startTickingLocked()
}

// Ticks delivers the elapsed time on every tick while the session is running
// and not suspended. The channel is closed when ctx is done.
func (t *Tracker) Ticks(ctx context.Context) <-chan time.Duration {
	ch := make(chan time.Duration, 1)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		delete(t.subscribers, ch)
		close(ch)
		t.mu.Unlock()
	}()
	return ch
}

func (t *Tracker) startTickingLocked() {
	if t.stopTick != nil || t.suspended || t.state != StateRunning {
		return
	}

	ticker := t.opts.NewTicker(t.opts.TickInterval)
	stop := make(chan struct{})
	t.stopTick = stop

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C():
				t.broadcast(stop, now)
			}
		}
	}()
}

func (t *Tracker) stopTickingLocked() {
	if t.stopTick != nil {
		close(t.stopTick)
		t.stopTick = nil
	}
}

func (t *Tracker) broadcast(stop chan struct{}, _ time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A tick that raced with pause, suspend or end is dropped.
	if t.stopTick != stop || t.state != StateRunning || t.suspended {
		return
	}
	elapsed := t.elapsedLocked(t.opts.Now())
	for ch := range t.subscribers {
		select {
		case ch <- elapsed:
		default:
		}
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
