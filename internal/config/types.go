package config

import (
	"fmt"
	"strings"

	"github.com/pinwhell/NanoTask/pkg/nanotask"
)

type Config struct {
	Logging LoggingConfig `json:"logging"`
	Poller  PollerConfig  `json:"poller"`
	Tasks   []TaskConfig  `json:"tasks,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// PollerConfig controls the poll loop.
//
// Enabled is a pointer so we can distinguish "omitted" (default true)
// from an explicit false.
type PollerConfig struct {
	Enabled *bool `json:"enabled,omitempty"`

	// RatePerSec caps how many poll cycles run per second (default 100).
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

func (p PollerConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// TaskConfig declares one scheduled task.
//
// Exactly one of Every (Go duration string, e.g. "1s", "500ms") or Cron
// (five-field spec or descriptor like "@every 30s") must be set.
type TaskConfig struct {
	ID    string `json:"id"`
	Every string `json:"every,omitempty"`
	Cron  string `json:"cron,omitempty"`

	// Action is "log" (default) or "remove".
	Action string `json:"action,omitempty"`

	// Message is logged when a "log" task fires.
	Message string `json:"message,omitempty"`

	// Target is the id of the task a "remove" task unregisters.
	Target string `json:"target,omitempty"`
}

const (
	ActionLog    = "log"
	ActionRemove = "remove"
)

func (t TaskConfig) ActionOrDefault() string {
	if strings.TrimSpace(t.Action) == "" {
		return ActionLog
	}
	return t.Action
}

// Validate checks the whole config for structural problems. It is run
// on every load, so a broken edit never reaches the running services.
func (c *Config) Validate() error {
	if c.Poller.RatePerSec < 0 {
		return fmt.Errorf("poller.rate_per_sec: must be >= 0")
	}

	seen := make(map[string]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)

		id := strings.TrimSpace(t.ID)
		if id == "" {
			return fmt.Errorf("%s: id is required", path)
		}
		if seen[id] {
			return fmt.Errorf("%s: duplicate id %q", path, id)
		}
		seen[id] = true

		hasEvery := strings.TrimSpace(t.Every) != ""
		hasCron := strings.TrimSpace(t.Cron) != ""
		switch {
		case hasEvery && hasCron:
			return fmt.Errorf("%s: every and cron are mutually exclusive", path)
		case hasEvery:
			if _, err := ParseEvery(path+".every", t.Every); err != nil {
				return err
			}
		case hasCron:
			if _, err := nanotask.NewCron(t.Cron, func() error { return nil }); err != nil {
				return fmt.Errorf("%s.cron: %w", path, err)
			}
		default:
			return fmt.Errorf("%s: one of every or cron is required", path)
		}

		switch t.ActionOrDefault() {
		case ActionLog:
		case ActionRemove:
			if strings.TrimSpace(t.Target) == "" {
				return fmt.Errorf("%s: action remove requires target", path)
			}
		default:
			return fmt.Errorf("%s: unknown action %q", path, t.Action)
		}
	}
	return nil
}
