package timers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/decred/slog"
)

func TestScheduleFires(t *testing.T) {
	r := New(slog.Disabled)
	fired := make(chan struct{})
	r.Schedule("t1", "betting", 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	if r.Pending() != 0 {
		t.Errorf("expected empty registry after firing, %d pending", r.Pending())
	}
}

func TestScheduleReplacesPrevious(t *testing.T) {
	r := New(slog.Disabled)
	var first, second atomic.Int32
	fired := make(chan struct{})

	r.Schedule("t1", "turn", 50*time.Millisecond, func() { first.Add(1) })
	r.Schedule("t1", "turn", 10*time.Millisecond, func() {
		second.Add(1)
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer never fired")
	}
	// Wait past the first timer's original deadline.
	time.Sleep(100 * time.Millisecond)

	if first.Load() != 0 {
		t.Error("replaced timer must not fire")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", second.Load())
	}
}

func TestCancelStopsTimer(t *testing.T) {
	r := New(slog.Disabled)
	var fired atomic.Int32
	r.Schedule("t1", "turn", 20*time.Millisecond, func() { fired.Add(1) })
	r.Cancel("t1", "turn")

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled timer fired")
	}
	if r.Pending() != 0 {
		t.Errorf("expected empty registry, %d pending", r.Pending())
	}

	// Cancelling again is a no-op.
	r.Cancel("t1", "turn")
	r.Cancel("t1", "unknown")
}

func TestCancelTableDropsAllKinds(t *testing.T) {
	r := New(slog.Disabled)
	var fired atomic.Int32
	bump := func() { fired.Add(1) }

	r.Schedule("t1", "betting", 20*time.Millisecond, bump)
	r.Schedule("t1", "turn", 20*time.Millisecond, bump)
	r.Schedule("t2", "betting", 20*time.Millisecond, bump)

	r.CancelTable("t1")
	if r.Pending() != 1 {
		t.Errorf("expected only t2's timer left, %d pending", r.Pending())
	}

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("expected exactly t2's timer to fire, got %d", fired.Load())
	}
}

func TestPanickingCallbackIsContained(t *testing.T) {
	r := New(slog.Disabled)
	r.Schedule("t1", "turn", 10*time.Millisecond, func() { panic("boom") })

	// The registry must survive the panic and keep scheduling.
	fired := make(chan struct{})
	r.Schedule("t1", "betting", 30*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer scheduled after a panicking callback never fired")
	}
	if r.Pending() != 0 {
		t.Errorf("expected empty registry, %d pending", r.Pending())
	}
}

func TestIndependentKindsCoexist(t *testing.T) {
	r := New(slog.Disabled)
	a := make(chan struct{})
	b := make(chan struct{})

	r.Schedule("t1", "cleanup:alice@x", 10*time.Millisecond, func() { close(a) })
	r.Schedule("t1", "cleanup:bob@x", 10*time.Millisecond, func() { close(b) })

	for name, ch := range map[string]chan struct{}{"alice": a, "bob": b} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s cleanup never fired", name)
		}
	}
}
