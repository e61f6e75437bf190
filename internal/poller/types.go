package poller

import (
	"time"

	"github.com/pinwhell/NanoTask/internal/config"
)

// DefaultRatePerSec is the poll cadence used when the config omits one.
const DefaultRatePerSec = 100

// Config controls the poller service.
type Config struct {
	Enabled    bool
	RatePerSec int
	Tasks      []config.TaskConfig
}

// FromConfig extracts the poller's slice of the root config.
func FromConfig(cfg *config.Config) Config {
	if cfg == nil {
		return Config{Enabled: true}
	}
	return Config{
		Enabled:    cfg.Poller.IsEnabled(),
		RatePerSec: cfg.Poller.RatePerSec,
		Tasks:      cfg.Tasks,
	}
}

type TaskInfo struct {
	ID       string
	Interval time.Duration
	Next     time.Time
}

type Snapshot struct {
	Enabled    bool
	RatePerSec int
	Polls      uint64
	Tasks      []TaskInfo
}
