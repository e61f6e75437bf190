package poller

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/pinwhell/NanoTask/internal/config"
	"github.com/pinwhell/NanoTask/internal/eventbus"
	logx "github.com/pinwhell/NanoTask/pkg/logx"
	"github.com/pinwhell/NanoTask/pkg/nanotask"
)

type Service struct {
	mu sync.Mutex

	log   logx.Logger
	bus   eventbus.Bus
	clock nanotask.Clock

	cfg  Config
	reg  *nanotask.Registry
	defs map[string]config.TaskConfig // configured tasks, by id

	limiter *rate.Limiter
	events  <-chan eventbus.Event
	unsub   func()

	runCancel context.CancelFunc
	wg        sync.WaitGroup

	polls atomic.Uint64
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Service {
	return &Service{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		clock: nanotask.System,
	}
}

// Start builds the registry from the configured tasks and launches the
// poll loop. Starting twice is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel

	s.reg = nanotask.NewRegistry(s.log)
	s.defs = make(map[string]config.TaskConfig, len(s.cfg.Tasks))
	for _, def := range s.cfg.Tasks {
		s.addTaskLocked(def)
	}

	s.limiter = rate.NewLimiter(pollRate(s.cfg.RatePerSec), 1)
	s.events, s.unsub = s.bus.Subscribe(16)

	s.wg.Add(1)
	go s.loop(runCtx)
	s.log.Info("poller started",
		logx.Int("tasks", s.reg.Len()),
		logx.Float64("rate_per_sec", float64(pollRate(s.cfg.RatePerSec))),
	)
}

// Stop halts the poll loop and waits for it to exit.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel := s.runCancel
	s.runCancel = nil
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	if unsub != nil {
		unsub()
	}
	s.log.Info("poller stopped")
}

// Apply diffs a reloaded config against the live task set: intervals
// are retargeted in place, new tasks are added, dropped tasks removed.
// Tasks registered outside the config (RegisterTask) are untouched.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limiterSetLocked(cfg.RatePerSec)
	if s.reg == nil {
		// not started yet; Start will build from the stored config
		s.cfg = cfg
		return
	}

	next := make(map[string]config.TaskConfig, len(cfg.Tasks))
	for _, def := range cfg.Tasks {
		next[strings.TrimSpace(def.ID)] = def
	}

	for id := range s.defs {
		if _, ok := next[id]; !ok {
			s.reg.Remove(id)
		}
	}

	for _, def := range cfg.Tasks {
		id := strings.TrimSpace(def.ID)
		old, exists := s.defs[id]
		switch {
		case !exists:
			s.addTaskLocked(def)
		case def == old:
			// unchanged; a task removed at runtime stays removed
		case onlyIntervalChanged(old, def):
			if t, ok := s.reg.Lookup(id); ok {
				d, err := config.ParseEvery("tasks."+id+".every", def.Every)
				if err == nil {
					t.SetInterval(d)
					s.log.Info("task interval updated",
						logx.String("task", id), logx.Duration("every", d))
				}
			}
		default:
			// action/spec changed; rebuild the task
			s.reg.Remove(id)
			s.addTaskLocked(def)
		}
	}

	s.defs = next
	s.cfg = cfg
}

// RegisterTask adds a task that is not part of the configured set (for
// example the systemd watchdog task). Config reloads never remove it.
func (s *Service) RegisterTask(id string, t *nanotask.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg == nil {
		return false
	}
	return s.reg.AddNamed(id, t)
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Enabled:    s.cfg.Enabled,
		RatePerSec: int(pollRate(s.cfg.RatePerSec)),
		Polls:      s.polls.Load(),
	}
	if s.reg == nil {
		return snap
	}
	for _, id := range s.reg.IDs() {
		t, ok := s.reg.Lookup(id)
		if !ok {
			continue
		}
		snap.Tasks = append(snap.Tasks, TaskInfo{
			ID:       id,
			Interval: t.Interval(),
			Next:     t.Next(),
		})
	}
	return snap
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		s.pollOnce()
	}
}

// pollOnce runs one cycle: drain pending removal requests, then poll
// every task. A task error aborts the cycle; the next cycle picks the
// remaining tasks back up.
func (s *Service) pollOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		return
	}
	s.drainRemovalsLocked()
	s.polls.Add(1)
	if err := s.reg.PollAll(); err != nil {
		s.log.Warn("poll cycle aborted", logx.Err(err))
	}
}

func (s *Service) drainRemovalsLocked() {
	for {
		select {
		case ev := <-s.events:
			if ev.Type != eventbus.EventRemoveTask {
				continue
			}
			id, ok := ev.Data.(string)
			if !ok || strings.TrimSpace(id) == "" {
				continue
			}
			s.log.Info("task removal requested", logx.String("task", id))
			s.reg.Remove(id)
		default:
			return
		}
	}
}

func (s *Service) limiterSetLocked(perSec int) {
	if s.limiter == nil {
		return
	}
	s.limiter.SetLimit(pollRate(perSec))
}

func onlyIntervalChanged(old, cur config.TaskConfig) bool {
	old.Every = cur.Every
	return old == cur && strings.TrimSpace(cur.Every) != ""
}

func pollRate(perSec int) rate.Limit {
	if perSec <= 0 {
		perSec = DefaultRatePerSec
	}
	return rate.Limit(perSec)
}
