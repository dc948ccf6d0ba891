package syncbox

import (
	"context"
	"sync"
	"time"
)

// Connectivity exposes the network reachability of the remote store.
type Connectivity interface {
	// Online reports whether the remote is currently reachable.
	Online() bool
	// Subscribe registers fn to be called on each transition to online and
	// returns a cancel function that removes the subscription.
	Subscribe(fn func()) (cancel func())
}

// StaticConnectivity is always online and never fires events. It is the
// default when no connectivity source is configured.
type StaticConnectivity struct{}

// Online implements Connectivity.
func (StaticConnectivity) Online() bool {
	return true
}

// Subscribe implements Connectivity.
func (StaticConnectivity) Subscribe(func()) func() {
	return func() {}
}

// ProbeConnectivity derives online state from a periodic reachability probe
// and fires subscriber callbacks on each offline-to-online transition.
type ProbeConnectivity struct {
	probe    func(ctx context.Context) bool
	interval time.Duration

	mu          sync.Mutex
	online      bool
	subscribers map[int]func()
	nextID      int
	stop        chan struct{}
	done        chan struct{}
}

// NewProbeConnectivity constructs a ProbeConnectivity over a probe function
// (e.g., the remote client's Ping). The probe runs every interval once Start
// is called; until the first probe the state is offline.
func NewProbeConnectivity(probe func(ctx context.Context) bool, interval time.Duration) *ProbeConnectivity {
	if probe == nil {
		panic("syncbox: nil probe")
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &ProbeConnectivity{
		probe:       probe,
		interval:    interval,
		subscribers: make(map[int]func()),
	}
}

// Start launches the probe loop. Starting a running probe is a no-op.
func (p *ProbeConnectivity) Start() {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()

		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go p.run(stop, done)
}

// Stop halts the probe loop. Stopping a stopped probe is a no-op.
func (p *ProbeConnectivity) Stop() {
	p.mu.Lock()
	if p.stop == nil {
		p.mu.Unlock()

		return
	}
	stop, done := p.stop, p.done
	p.stop = nil
	p.done = nil
	p.mu.Unlock()

	close(stop)
	<-done
}

// Online implements Connectivity.
func (p *ProbeConnectivity) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.online
}

// Subscribe implements Connectivity.
func (p *ProbeConnectivity) Subscribe(fn func()) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// SetOnline forces the state, firing subscribers on an offline-to-online
// transition. Exposed for hosts that receive connectivity events from the
// platform instead of probing.
func (p *ProbeConnectivity) SetOnline(online bool) {
	p.mu.Lock()
	wasOnline := p.online
	p.online = online
	var fns []func()
	if online && !wasOnline {
		fns = make([]func(), 0, len(p.subscribers))
		for _, fn := range p.subscribers {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (p *ProbeConnectivity) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.probeOnce(stop)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.probeOnce(stop)
		}
	}
}

func (p *ProbeConnectivity) probeOnce(stop chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.SetOnline(p.probe(ctx))
}
