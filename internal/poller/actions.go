package poller

import (
	"strings"

	"github.com/pinwhell/NanoTask/internal/config"
	"github.com/pinwhell/NanoTask/internal/eventbus"
	logx "github.com/pinwhell/NanoTask/pkg/logx"
	"github.com/pinwhell/NanoTask/pkg/nanotask"
)

// addTaskLocked builds a task from its definition and registers it.
// Definitions come pre-validated by config.Validate; anything that
// still fails to build is logged and skipped rather than aborting.
func (s *Service) addTaskLocked(def config.TaskConfig) {
	id := strings.TrimSpace(def.ID)
	work := s.buildWork(id, def)

	var t *nanotask.Task
	if spec := strings.TrimSpace(def.Cron); spec != "" {
		var err error
		t, err = nanotask.NewCronWithClock(s.clock, spec, work)
		if err != nil {
			s.log.Warn("skipping task with bad cron spec",
				logx.String("task", id), logx.Err(err))
			return
		}
	} else {
		d, err := config.ParseEvery("tasks."+id+".every", def.Every)
		if err != nil {
			s.log.Warn("skipping task with bad interval",
				logx.String("task", id), logx.Err(err))
			return
		}
		t = nanotask.NewWithClock(s.clock, d, work)
	}

	s.reg.AddNamed(id, t)
	s.defs[id] = def
}

// buildWork binds a task definition's inputs into the work closure.
// The id, message and target are captured here, once; the closure runs
// with no further inputs on every firing.
func (s *Service) buildWork(id string, def config.TaskConfig) nanotask.Work {
	switch def.ActionOrDefault() {
	case config.ActionRemove:
		target := strings.TrimSpace(def.Target)
		return func() error {
			s.log.Info("requesting task removal",
				logx.String("task", id), logx.String("target", target))
			s.bus.Publish(eventbus.Event{Type: eventbus.EventRemoveTask, Data: target})
			return nil
		}
	default:
		msg := strings.TrimSpace(def.Message)
		if msg == "" {
			msg = id
		}
		return func() error {
			s.log.Info(msg, logx.String("task", id))
			return nil
		}
	}
}
