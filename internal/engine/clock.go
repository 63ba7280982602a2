package engine

import "time"

// Clock abstracts timer creation so the scheduler is testable with a fake
// clock instead of real sleeps.
type Clock interface {
	// AfterFunc schedules fn to run after d on its own goroutine and
	// returns a handle that can cancel it.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the cancellable handle returned by Clock.AfterFunc.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was stopped
	// before firing.
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewClock returns the wall clock.
func NewClock() Clock {
	return realClock{}
}
