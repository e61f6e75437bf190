package nanotask

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard five-field specs plus descriptors such as
// "@hourly" and "@every 30s".
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewCron builds a task driven by a cron expression instead of a fixed
// interval. The task becomes due at each instant the schedule produces;
// as with interval tasks, firings the owner never polled for are
// skipped, not replayed.
func NewCron(spec string, work Work) (*Task, error) {
	return NewCronWithClock(System, spec, work)
}

// NewCronWithClock is NewCron with an explicit time source.
func NewCronWithClock(clock Clock, spec string, work Work) (*Task, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	t := &Task{clock: clock, work: work, sched: sched, armed: true}
	t.next = sched.Next(clock.Now())
	return t, nil
}
