package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/amelia-mara/hairandmakeuppro-sub009/internal/model"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	fireAt  time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, fireAt: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires due timers synchronously.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.fireAt <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type stubSessions struct{ active bool }

func (s *stubSessions) HasActiveSession() bool { return s.active }

func newTestScheduler(clock Clock, sessions SessionChecker) *Scheduler {
	return NewScheduler(sessions, &SchedulerConfig{
		Debounce: time.Second,
		Clock:    clock,
		Logger:   log.New(io.Discard, "", 0),
	})
}

func TestScheduleCoalescesWithinWindow(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &stubSessions{active: true})

	calls := 0
	last := ""
	for _, payload := range []string{"a", "b", "c"} {
		p := payload
		s.Schedule(model.CategoryScenes, func(ctx context.Context) error {
			calls++
			last = p
			return nil
		})
		clock.Advance(200 * time.Millisecond)
	}
	clock.Advance(time.Second)

	if calls != 1 {
		t.Errorf("save calls = %d, want 1", calls)
	}
	if last != "c" {
		t.Errorf("winning payload = %q, want c (last writer)", last)
	}
	if pending := s.Pending(); len(pending) != 0 {
		t.Errorf("pending after fire = %v, want none", pending)
	}
}

func TestScheduleIndependentCategories(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &stubSessions{active: true})

	calls := map[model.Category]int{}
	for _, cat := range []model.Category{model.CategoryScenes, model.CategoryLooks} {
		c := cat
		s.Schedule(c, func(ctx context.Context) error {
			calls[c]++
			return nil
		})
	}
	clock.Advance(time.Second)

	if calls[model.CategoryScenes] != 1 || calls[model.CategoryLooks] != 1 {
		t.Errorf("calls = %v, want one per category", calls)
	}
}

func TestFireSkipsWithoutSession(t *testing.T) {
	clock := &fakeClock{}
	sessions := &stubSessions{active: false}
	s := newTestScheduler(clock, sessions)

	calls := 0
	s.Schedule(model.CategoryScenes, func(ctx context.Context) error {
		calls++
		return nil
	})
	clock.Advance(time.Second)

	if calls != 0 {
		t.Errorf("save calls = %d, want 0 without a session", calls)
	}
	// Not an error, so no failure is recorded.
	if n := s.FailureCount(model.CategoryScenes); n != 0 {
		t.Errorf("failure count = %d, want 0", n)
	}
}

func TestFailureAccounting(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &stubSessions{active: true})

	boom := errors.New("remote rejected batch")
	s.Schedule(model.CategoryLooks, func(ctx context.Context) error { return boom })
	clock.Advance(time.Second)

	if n := s.FailureCount(model.CategoryLooks); n != 1 {
		t.Errorf("failure count = %d, want 1", n)
	}
	if msg := s.LastError(model.CategoryLooks); msg != boom.Error() {
		t.Errorf("last error = %q, want %q", msg, boom.Error())
	}

	// A later success resets the counter.
	s.Schedule(model.CategoryLooks, func(ctx context.Context) error { return nil })
	clock.Advance(time.Second)

	if n := s.FailureCount(model.CategoryLooks); n != 0 {
		t.Errorf("failure count after success = %d, want 0", n)
	}
	if msg := s.LastError(model.CategoryLooks); msg != "" {
		t.Errorf("last error after success = %q, want empty", msg)
	}
}

func TestFlushAllRunsEveryPendingSave(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &stubSessions{active: true})

	calls := map[model.Category]int{}
	cats := []model.Category{model.CategoryScenes, model.CategoryCaptures, model.CategoryScript}
	for _, cat := range cats {
		c := cat
		s.Schedule(c, func(ctx context.Context) error {
			calls[c]++
			return nil
		})
	}

	s.FlushAll(context.Background())

	for _, cat := range cats {
		if calls[cat] != 1 {
			t.Errorf("%s flushed %d times, want 1", cat, calls[cat])
		}
	}
	if pending := s.Pending(); len(pending) != 0 {
		t.Errorf("pending after flush = %v, want none", pending)
	}

	// Timers were cancelled, so advancing must not fire them again.
	clock.Advance(time.Second)
	for _, cat := range cats {
		if calls[cat] != 1 {
			t.Errorf("%s fired again after flush", cat)
		}
	}
}

func TestFlushAllContinuesPastFailures(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &stubSessions{active: true})

	ran := map[model.Category]bool{}
	s.Schedule(model.CategoryScenes, func(ctx context.Context) error {
		ran[model.CategoryScenes] = true
		return errors.New("boom")
	})
	s.Schedule(model.CategoryScript, func(ctx context.Context) error {
		ran[model.CategoryScript] = true
		return nil
	})

	s.FlushAll(context.Background())

	if !ran[model.CategoryScenes] || !ran[model.CategoryScript] {
		t.Errorf("ran = %v, want both categories attempted", ran)
	}
	if n := s.FailureCount(model.CategoryScenes); n != 1 {
		t.Errorf("scenes failure count = %d, want 1", n)
	}
}

func TestCancelAllDropsTimers(t *testing.T) {
	clock := &fakeClock{}
	s := newTestScheduler(clock, &stubSessions{active: true})

	calls := 0
	s.Schedule(model.CategoryScenes, func(ctx context.Context) error {
		calls++
		return nil
	})
	s.CancelAll()
	clock.Advance(time.Second)

	if calls != 0 {
		t.Errorf("save calls = %d, want 0 after cancel", calls)
	}
	if pending := s.Pending(); len(pending) != 0 {
		t.Errorf("pending = %v, want none", pending)
	}
}
