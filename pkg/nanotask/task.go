package nanotask

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Work is a task's bound unit of work. Any inputs the work needs are
// captured by the closure when the task is built; Poll invokes it with
// no further arguments. Whatever error the work returns is passed
// through Poll unmodified.
type Work func() error

// Task is a unit of deferred work that repeats on an interval.
//
// A task never fires on its own: the owner must call Poll, and the task
// compares the clock against its next-due instant to decide whether to
// run. The zero value is unarmed and inert.
type Task struct {
	clock Clock
	work  Work

	interval time.Duration
	next     time.Time
	sched    cron.Schedule // non-nil for cron-spec tasks
	armed    bool
}

// New builds a task that runs work every interval, starting one full
// interval from now, on the system clock.
func New(interval time.Duration, work Work) *Task {
	return NewWithClock(System, interval, work)
}

// NewWithClock is New with an explicit time source.
func NewWithClock(clock Clock, interval time.Duration, work Work) *Task {
	t := &Task{clock: clock, work: work}
	t.SetInterval(interval)
	return t
}

// SetInterval replaces the execution interval and arms the task. The
// next firing is rescheduled relative to now, not the last firing: a
// just-fired task whose interval shrinks becomes due sooner.
//
// On a cron-spec task this drops the cron schedule and converts it to a
// fixed-interval task. Arming a zero-value Task adopts the system
// clock.
func (t *Task) SetInterval(d time.Duration) {
	if t.clock == nil {
		t.clock = System
	}
	t.interval = d
	t.sched = nil
	t.armed = true
	t.next = t.clock.Now().Add(d)
}

// SetIntervalSecs sets the interval in whole seconds.
func (t *Task) SetIntervalSecs(secs uint64) {
	t.SetInterval(time.Duration(secs) * time.Second)
}

// SetIntervalMillis sets the interval in whole milliseconds.
func (t *Task) SetIntervalMillis(millis uint64) {
	t.SetInterval(time.Duration(millis) * time.Millisecond)
}

// SetIntervalNanos sets the interval in nanoseconds.
func (t *Task) SetIntervalNanos(nanos uint64) {
	t.SetInterval(time.Duration(nanos))
}

// Interval returns the current execution interval. Zero for cron-spec
// tasks.
func (t *Task) Interval() time.Duration { return t.interval }

// Next returns the instant the task next becomes due.
func (t *Task) Next() time.Time { return t.next }

// Poll runs the bound work if the task is due and returns its error.
// When the task is unarmed or not yet due, Poll is a no-op and returns
// nil.
//
// A due task is rearmed before the work runs, rebased at the firing
// instant: an arbitrarily overdue task fires once per Poll, never
// twice, and missed firings collapse into a single catch-up firing.
func (t *Task) Poll() error {
	if !t.fire() {
		return nil
	}
	return t.work()
}

// fire reports whether the task is due, rearming it when it is.
func (t *Task) fire() bool {
	if !t.armed {
		return false
	}
	now := t.clock.Now()
	if now.Before(t.next) {
		return false
	}
	if t.sched != nil {
		t.next = t.sched.Next(now)
	} else {
		t.next = now.Add(t.interval)
	}
	return true
}
