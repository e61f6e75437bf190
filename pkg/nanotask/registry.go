package nanotask

import (
	"fmt"

	"github.com/google/uuid"

	logx "github.com/pinwhell/NanoTask/pkg/logx"
)

// Registry owns a collection of tasks keyed by identifier and polls
// them as a group.
//
// Identifiers are unique; registering a duplicate is a no-op that
// leaves the existing task untouched. PollAll visits tasks in
// registration order. The registry is not synchronized: Add, Remove and
// PollAll must be serialized by the caller.
type Registry struct {
	log   logx.Logger
	tasks map[string]*Task
	order []string
}

// NewRegistry returns an empty registry. Pass logx.Nop() (or the zero
// Logger) to silence the registry's debug logging.
func NewRegistry(log logx.Logger) *Registry {
	return &Registry{log: log, tasks: map[string]*Task{}}
}

// Add registers a task under a generated identifier and returns the
// identifier. Generated identifiers never collide with each other,
// though a caller-supplied identifier from AddNamed could shadow one in
// principle.
func (r *Registry) Add(t *Task) string {
	id := uuid.NewString()
	r.AddNamed(id, t)
	return id
}

// AddNamed registers a task under id and reports whether it was
// registered. When id is already taken the call is a no-op: the
// registered task is untouched and the caller keeps the rejected one.
func (r *Registry) AddNamed(id string, t *Task) bool {
	if _, ok := r.tasks[id]; ok {
		r.log.Debug("task id already registered, ignoring", logx.String("task", id))
		return false
	}
	r.tasks[id] = t
	r.order = append(r.order, id)
	r.log.Debug("task registered",
		logx.String("task", id),
		logx.Duration("interval", t.Interval()),
	)
	return true
}

// Remove drops the task registered under id. Removing an unknown id is
// a no-op. A removed task is never polled again.
func (r *Registry) Remove(id string) {
	if _, ok := r.tasks[id]; !ok {
		return
	}
	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Debug("task removed", logx.String("task", id))
}

// Lookup returns the task registered under id, if any.
func (r *Registry) Lookup(id string) (*Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int { return len(r.tasks) }

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// PollAll polls every registered task in registration order. The first
// work error aborts the cycle and is returned wrapped with the task's
// identifier; the remaining tasks keep their scheduling state and are
// picked up on the next cycle.
//
// Bound work may call Add or Remove on its own registry. The cycle
// iterates a snapshot of the registration order, so a task removed
// mid-cycle is skipped for the rest of the cycle and a task added
// mid-cycle waits for the next one.
func (r *Registry) PollAll() error {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	for _, id := range ids {
		t, ok := r.tasks[id]
		if !ok {
			continue
		}
		if err := t.Poll(); err != nil {
			return fmt.Errorf("task %s: %w", id, err)
		}
	}
	return nil
}
