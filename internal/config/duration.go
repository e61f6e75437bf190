package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseEvery parses a task's "every" field: a Go duration string (e.g.
// "1s", "500ms") that must be strictly positive, since it spaces
// repeated executions.
func ParseEvery(path, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be > 0", path)
	}
	return d, nil
}
