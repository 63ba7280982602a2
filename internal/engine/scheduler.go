package engine

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// SaveFunc pushes one category's local snapshot to the remote store.
type SaveFunc func(ctx context.Context) error

// SessionChecker gates remote writes on an active session.
type SessionChecker interface {
	HasActiveSession() bool
}

// SchedulerConfig holds scheduler tuning.
type SchedulerConfig struct {
	// Debounce is the quiet interval after the last mutation to a category
	// before its save fires.
	Debounce time.Duration

	// Clock is the timer source. Tests inject a fake.
	Clock Clock

	// Logger for scheduler activity.
	Logger *log.Logger
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Debounce: 2 * time.Second,
		Clock:    NewClock(),
		Logger:   log.New(os.Stderr, "[sched] ", log.LstdFlags),
	}
}

type pendingSave struct {
	timer Timer
	fn    SaveFunc
}

// Scheduler debounces per-category saves. Each category is an independent
// key: a mutation while its timer is pending cancels the timer and replaces
// the remembered save function, so within a quiet window the last writer
// wins and earlier mutations are superseded rather than queued.
//
// A failed save is not retried by the scheduler. The failure is counted and
// its reason recorded; the next mutation to that category reschedules it
// naturally.
type Scheduler struct {
	sessions SessionChecker
	config   *SchedulerConfig

	mu       sync.Mutex
	pending  map[model.Category]*pendingSave
	failures map[model.Category]int
	lastErr  map[model.Category]string
}

// NewScheduler creates a scheduler. If config is nil, defaults are used.
func NewScheduler(sessions SessionChecker, config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if config.Clock == nil {
		config.Clock = NewClock()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[sched] ", log.LstdFlags)
	}
	return &Scheduler{
		sessions: sessions,
		config:   config,
		pending:  make(map[model.Category]*pendingSave),
		failures: make(map[model.Category]int),
		lastErr:  make(map[model.Category]string),
	}
}

// Schedule queues fn to run after the debounce interval. A pending timer for
// the same category is cancelled and its save function replaced.
func (s *Scheduler) Schedule(cat model.Category, fn SaveFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[cat]; ok {
		p.timer.Stop()
	}
	p := &pendingSave{fn: fn}
	p.timer = s.config.Clock.AfterFunc(s.config.Debounce, func() {
		s.fire(cat)
	})
	s.pending[cat] = p
}

// fire runs one category's pending save when its timer expires. Bookkeeping
// is cleared before the save runs so a failure cannot wedge the category.
func (s *Scheduler) fire(cat model.Category) {
	s.mu.Lock()
	p, ok := s.pending[cat]
	if ok {
		delete(s.pending, cat)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.run(context.Background(), cat, p.fn)
}

// run checks the session and executes one save, recording the outcome.
func (s *Scheduler) run(ctx context.Context, cat model.Category, fn SaveFunc) {
	if !s.sessions.HasActiveSession() {
		s.config.Logger.Printf("WARNING: skipping %s save: no active session", cat)
		return
	}

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.failures[cat]++
		s.lastErr[cat] = err.Error()
		s.mu.Unlock()
		s.config.Logger.Printf("WARNING: %s save failed: %v", cat, err)
		return
	}

	s.mu.Lock()
	s.failures[cat] = 0
	delete(s.lastErr, cat)
	s.mu.Unlock()
}

// FlushAll cancels every pending timer and runs every remembered save
// immediately, in category order. Individual errors are recorded but do not
// stop the remaining flushes. Call before process teardown, where no further
// debounce window will occur.
func (s *Scheduler) FlushAll(ctx context.Context) {
	s.mu.Lock()
	drained := make(map[model.Category]SaveFunc, len(s.pending))
	for cat, p := range s.pending {
		p.timer.Stop()
		drained[cat] = p.fn
	}
	s.pending = make(map[model.Category]*pendingSave)
	s.mu.Unlock()

	for _, cat := range model.Categories() {
		if fn, ok := drained[cat]; ok {
			s.run(ctx, cat, fn)
		}
	}
}

// CancelAll drops every pending timer without running the saves. Used by a
// full save, which is about to write every category anyway.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		p.timer.Stop()
	}
	s.pending = make(map[model.Category]*pendingSave)
}

// Pending returns the categories with a timer currently pending, in category
// order.
func (s *Scheduler) Pending() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Category
	for _, cat := range model.Categories() {
		if _, ok := s.pending[cat]; ok {
			out = append(out, cat)
		}
	}
	return out
}

// FailureCount returns the consecutive-failure count for a category.
func (s *Scheduler) FailureCount(cat model.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[cat]
}

// LastError returns the most recent failure reason for a category, or "".
func (s *Scheduler) LastError(cat model.Category) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr[cat]
}
