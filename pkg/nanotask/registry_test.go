package nanotask

import (
	"errors"
	"testing"
	"time"

	logx "github.com/pinwhell/NanoTask/pkg/logx"
)

func TestAddNamedDuplicateIsNoOp(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	var firstFired, secondFired int
	first := NewWithClock(clk, time.Second, func() error { firstFired++; return nil })
	second := NewWithClock(clk, time.Second, func() error { secondFired++; return nil })

	if !reg.AddNamed("x", first) {
		t.Fatal("first AddNamed rejected")
	}
	if reg.AddNamed("x", second) {
		t.Fatal("duplicate AddNamed accepted")
	}

	got, ok := reg.Lookup("x")
	if !ok || got != first {
		t.Fatal("duplicate AddNamed displaced the registered task")
	}

	clk.Advance(time.Second)
	if err := reg.PollAll(); err != nil {
		t.Fatalf("PollAll error: %v", err)
	}
	if firstFired != 1 || secondFired != 0 {
		t.Fatalf("fired = (%d, %d), want (1, 0)", firstFired, secondFired)
	}
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())
	reg.Remove("missing")

	reg.AddNamed("a", NewWithClock(clk, time.Second, func() error { return nil }))
	reg.Remove("missing")
	if reg.Len() != 1 {
		t.Fatalf("Len = %d after removing a missing id, want 1", reg.Len())
	}
}

func TestAddGeneratesUniqueIDs(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := reg.Add(NewWithClock(clk, time.Second, func() error { return nil }))
		if id == "" || seen[id] {
			t.Fatalf("generated id %q not unique", id)
		}
		seen[id] = true
	}
	if reg.Len() != 50 {
		t.Fatalf("Len = %d, want 50", reg.Len())
	}
}

func TestPollAllRegistrationOrder(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	var order []string
	for _, id := range []string{"c", "a", "b"} {
		id := id
		reg.AddNamed(id, NewWithClock(clk, time.Second, func() error {
			order = append(order, id)
			return nil
		}))
	}

	clk.Advance(time.Second)
	if err := reg.PollAll(); err != nil {
		t.Fatalf("PollAll error: %v", err)
	}
	if len(order) != 3 || order[0] != "c" || order[1] != "a" || order[2] != "b" {
		t.Fatalf("fired order = %v, want [c a b]", order)
	}
}

func TestPollAllStopsAtFirstError(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	boom := errors.New("boom")
	laterFired := 0
	reg.AddNamed("bad", NewWithClock(clk, time.Second, func() error { return boom }))
	reg.AddNamed("good", NewWithClock(clk, time.Second, func() error { laterFired++; return nil }))

	clk.Advance(time.Second)
	err := reg.PollAll()
	if !errors.Is(err, boom) {
		t.Fatalf("PollAll error = %v, want %v", err, boom)
	}
	if laterFired != 0 {
		t.Fatal("task after the failing one was polled in the same cycle")
	}

	// the failing task consumed its interval; the next cycle reaches the rest
	if err := reg.PollAll(); err != nil {
		t.Fatalf("second PollAll error: %v", err)
	}
	if laterFired != 1 {
		t.Fatalf("laterFired = %d, want 1", laterFired)
	}
}

func TestIntervalScenarioCounts(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	counts := map[string]int{}
	add := func(id string, every time.Duration) {
		reg.AddNamed(id, NewWithClock(clk, every, func() error {
			counts[id]++
			return nil
		}))
	}
	add("1s", time.Second)
	add("5s", 5*time.Second)
	add("10s", 10*time.Second)

	// poll every 100ms up to 10.5s of simulated time
	for i := 0; i < 105; i++ {
		clk.Advance(100 * time.Millisecond)
		if err := reg.PollAll(); err != nil {
			t.Fatalf("PollAll error: %v", err)
		}
	}

	if counts["1s"] != 10 || counts["5s"] != 2 || counts["10s"] != 1 {
		t.Fatalf("counts = %v, want map[1s:10 5s:2 10s:1]", counts)
	}
}

func TestRemoveMidLoopStopsFirings(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	fired := 0
	reg.AddNamed("victim", NewWithClock(clk, time.Second, func() error { fired++; return nil }))

	clk.Advance(time.Second)
	_ = reg.PollAll()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	reg.Remove("victim")
	for i := 0; i < 30; i++ {
		clk.Advance(time.Second)
		if err := reg.PollAll(); err != nil {
			t.Fatalf("PollAll error: %v", err)
		}
	}
	if fired != 1 {
		t.Fatalf("removed task fired again: %d total firings", fired)
	}
}

func TestRemoveFromWithinWorkMidCycle(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	counts := map[string]int{}
	fire := func(id string) func() error {
		return func() error {
			counts[id]++
			return nil
		}
	}

	// a removes a later task while the cycle is in flight
	reg.AddNamed("a", NewWithClock(clk, time.Second, func() error {
		counts["a"]++
		reg.Remove("c")
		return nil
	}))
	reg.AddNamed("b", NewWithClock(clk, time.Second, fire("b")))
	reg.AddNamed("c", NewWithClock(clk, time.Second, fire("c")))

	clk.Advance(time.Second)
	if err := reg.PollAll(); err != nil {
		t.Fatalf("PollAll error: %v", err)
	}
	if counts["a"] != 1 || counts["b"] != 1 || counts["c"] != 0 {
		t.Fatalf("counts = %v, want a:1 b:1 c:0", counts)
	}

	// b removes an earlier, already-polled task; the rest of the cycle
	// still runs
	reg.AddNamed("d", NewWithClock(clk, time.Second, fire("d")))
	reg.AddNamed("e", NewWithClock(clk, time.Second, func() error {
		counts["e"]++
		reg.Remove("a")
		return nil
	}))

	clk.Advance(time.Second)
	if err := reg.PollAll(); err != nil {
		t.Fatalf("PollAll error: %v", err)
	}
	if counts["a"] != 2 || counts["b"] != 2 || counts["d"] != 1 || counts["e"] != 1 {
		t.Fatalf("counts = %v, want a:2 b:2 d:1 e:1", counts)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}

	clk.Advance(time.Second)
	if err := reg.PollAll(); err != nil {
		t.Fatalf("PollAll error: %v", err)
	}
	if counts["a"] != 2 {
		t.Fatalf("removed task fired again: counts = %v", counts)
	}
}

func TestIDsReflectRegistrationOrder(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	reg := NewRegistry(logx.Nop())

	reg.AddNamed("b", NewWithClock(clk, time.Second, func() error { return nil }))
	reg.AddNamed("a", NewWithClock(clk, time.Second, func() error { return nil }))
	reg.Remove("b")
	reg.AddNamed("c", NewWithClock(clk, time.Second, func() error { return nil }))

	ids := reg.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("IDs = %v, want [a c]", ids)
	}
}
