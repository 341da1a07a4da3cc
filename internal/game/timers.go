package game

import "time"

// =============================================================================
// TIMER SCHEDULING
// =============================================================================

// Cancelable is the handle stored for every armed timer. Cancel reports
// whether the timer was stopped before firing.
type Cancelable interface {
	Cancel() bool
}

// Scheduler arms one-shot callbacks. The production implementation wraps
// time.AfterFunc; tests substitute a manual scheduler so every timer path
// runs deterministically.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancelable
}

type realScheduler struct{}

func NewScheduler() Scheduler {
	return realScheduler{}
}

type timerHandle struct {
	t *time.Timer
}

func (realScheduler) After(d time.Duration, fn func()) Cancelable {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

func (h timerHandle) Cancel() bool {
	return h.t.Stop()
}

func cancelTimer(c *Cancelable) {
	if *c != nil {
		(*c).Cancel()
		*c = nil
	}
}
