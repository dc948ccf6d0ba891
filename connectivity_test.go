package syncbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestProbeConnectivityTransitions(t *testing.T) {
	probe := NewProbeConnectivity(func(context.Context) bool { return true }, time.Hour)

	if probe.Online() {
		t.Fatalf("probe should start offline")
	}

	var fired int32
	cancel := probe.Subscribe(func() {
		atomic.AddInt32(&fired, 1)
	})

	probe.SetOnline(true)
	if !probe.Online() {
		t.Fatalf("expected online after SetOnline(true)")
	}
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("expected one event on offline-to-online transition, got %d", fired)
	}

	// Staying online must not re-fire.
	probe.SetOnline(true)
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("online-to-online should not fire, got %d", fired)
	}

	probe.SetOnline(false)
	probe.SetOnline(true)
	if atomic.LoadInt32(&fired) != 2 {
		t.Fatalf("expected second transition event, got %d", fired)
	}

	cancel()
	probe.SetOnline(false)
	probe.SetOnline(true)
	if atomic.LoadInt32(&fired) != 2 {
		t.Fatalf("cancelled subscriber should not fire, got %d", fired)
	}
}

func TestProbeConnectivityStartStop(t *testing.T) {
	var calls int32
	probe := NewProbeConnectivity(func(context.Context) bool {
		atomic.AddInt32(&calls, 1)
		return true
	}, time.Hour)

	probe.Start()
	probe.Start()
	defer probe.Stop()

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatalf("probe never ran")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if !probe.Online() {
		t.Fatalf("expected online after successful probe")
	}

	probe.Stop()
	probe.Stop()
}

func TestStaticConnectivity(t *testing.T) {
	static := StaticConnectivity{}
	if !static.Online() {
		t.Fatalf("static connectivity should be online")
	}
	cancel := static.Subscribe(func() {})
	cancel()
}
