package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pinwhell/NanoTask/internal/config"
	"github.com/pinwhell/NanoTask/internal/eventbus"
	"github.com/pinwhell/NanoTask/internal/poller"
	logx "github.com/pinwhell/NanoTask/pkg/logx"
)

// App wires the config manager, logging service, event bus and poller
// together and owns their lifecycle.
type App struct {
	mgr    *config.Manager
	logSvc *logx.Service
	log    logx.Logger
	bus    eventbus.Bus
	poller *poller.Service

	lastCfg *config.Config

	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(toLogxConfig(cfg.Logging))
	mgr.SetLogger(log.With(logx.String("component", "config")))

	bus := eventbus.New()
	p := poller.New(poller.FromConfig(cfg), log.With(logx.String("component", "poller")), bus)

	return &App{
		mgr:     mgr,
		logSvc:  logSvc,
		log:     log,
		bus:     bus,
		poller:  p,
		lastCfg: cfg,
	}, nil
}

func (a *App) Logger() logx.Logger     { return a.log }
func (a *App) Poller() *poller.Service { return a.poller }
func (a *App) Config() *config.Config  { return a.mgr.Get() }

// Start launches the poller, the config file watcher and the reload
// applier. It returns once everything is running.
func (a *App) Start(ctx context.Context) error {
	a.poller.Start(ctx)

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel

	updates := a.mgr.Subscribe(4)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.mgr.Watch(wctx)
		a.mgr.Unsubscribe(updates)
	}()
	go func() {
		defer a.wg.Done()
		for cfg := range updates {
			a.applyReload(cfg)
		}
	}()

	a.log.Info("nanopolld started", logx.Int("tasks", len(a.lastCfg.Tasks)))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	a.wg.Wait()
	a.poller.Stop(ctx)
	a.log.Info("nanopolld stopped")
	return a.logSvc.Close()
}

func (a *App) applyReload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	changed, attrs := config.SummarizeConfigChange(a.lastCfg, cfg)
	if len(changed) == 0 {
		return
	}

	a.logSvc.Apply(toLogxConfig(cfg.Logging))
	a.poller.Apply(poller.FromConfig(cfg))
	a.lastCfg = cfg

	attrs = append(attrs, logx.String("sections", strings.Join(changed, ",")))
	a.log.Info("config reloaded", attrs...)
}

func toLogxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
	}
}
