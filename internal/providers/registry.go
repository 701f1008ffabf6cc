package providers

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/certifier/pkg/lifecycle"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// TTL is how long a probe result is trusted. Zero probes on every read.
	TTL time.Duration
	// ProbeTimeout bounds each availability probe.
	ProbeTimeout time.Duration
	Logger       *slog.Logger
	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

type entry struct {
	adapter Adapter
	state   Provider
}

// Registry owns provider availability. It is the only state shared between
// concurrent pipeline runs; stale probes for the same provider are collapsed
// so concurrent readers never race on one probe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	ttl          time.Duration
	probeTimeout time.Duration
	probes       singleflight.Group
	logger       *slog.Logger
	now          func() time.Time
}

// NewRegistry registers adapters in the given order. Adapters whose name is
// already registered are ignored.
func NewRegistry(opts RegistryOptions, adapters ...Adapter) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}

	r := &Registry{
		entries:      make(map[string]*entry, len(adapters)),
		ttl:          opts.TTL,
		probeTimeout: probeTimeout,
		logger:       logger.With("system", "providers"),
		now:          now,
	}

	for _, a := range adapters {
		name := a.Name()
		if _, dup := r.entries[name]; dup {
			r.logger.Warn("duplicate provider ignored", "provider", name)
			continue
		}
		r.entries[name] = &entry{
			adapter: a,
			state:   Provider{Name: name, Capabilities: slices.Clone(a.Capabilities())},
		}
		r.order = append(r.order, name)
	}

	return r
}

// Start probes every provider once the lifecycle starts.
func (r *Registry) Start(lc *lifecycle.Coordinator) {
	lc.OnStartup(func() {
		available := 0
		for _, p := range r.Refresh(lc.Context()) {
			if p.Available {
				available++
			}
		}
		r.logger.Info("providers probed", "registered", len(r.order), "available", available)
	})
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Adapter returns the adapter registered under name.
func (r *Registry) Adapter(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.adapter, true
}

// Snapshot returns a copy of every provider's state in registration order.
func (r *Registry) Snapshot() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		p := r.entries[name].state
		p.Capabilities = slices.Clone(p.Capabilities)
		out = append(out, p)
	}
	return out
}

// Available re-probes providers whose last probe is older than the TTL and
// returns the available ones in registration order.
func (r *Registry) Available(ctx context.Context) []Provider {
	r.probeAll(ctx, r.stale())

	var out []Provider
	for _, p := range r.Snapshot() {
		if p.Available {
			out = append(out, p)
		}
	}
	return out
}

// Refresh probes every provider regardless of age and returns the new snapshot.
func (r *Registry) Refresh(ctx context.Context) []Provider {
	r.probeAll(ctx, r.Names())
	return r.Snapshot()
}

// MarkUnavailable records a failed call against name.
func (r *Registry) MarkUnavailable(name string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if r.set(name, false, msg) {
		r.logger.Warn("provider marked unavailable", "provider", name, "error", msg)
	}
}

// MarkAvailable records a successful call against name.
func (r *Registry) MarkAvailable(name string) {
	r.set(name, true, "")
}

func (r *Registry) set(name string, available bool, lastErr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return false
	}

	changed := e.state.Available != available
	e.state.Available = available
	e.state.LastProbe = r.now()
	e.state.LastError = lastErr

	gauge := 0.0
	if available {
		gauge = 1
	}
	providerAvailable.WithLabelValues(name).Set(gauge)

	return changed
}

func (r *Registry) stale() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var names []string
	for _, name := range r.order {
		last := r.entries[name].state.LastProbe
		if last.IsZero() || now.Sub(last) >= r.ttl {
			names = append(names, name)
		}
	}
	return names
}

func (r *Registry) probeAll(ctx context.Context, names []string) {
	var g errgroup.Group
	for _, name := range names {
		g.Go(func() error {
			r.probe(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
}

// probe runs one availability check for name, shared by concurrent callers.
// The probe is detached from the caller's cancellation so one abandoned
// request cannot fail the probe for everyone waiting on it.
func (r *Registry) probe(ctx context.Context, name string) {
	adapter, ok := r.Adapter(name)
	if !ok {
		return
	}

	r.probes.Do(name, func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.probeTimeout)
		defer cancel()

		if err := adapter.Probe(pctx); err != nil {
			r.MarkUnavailable(name, err)
			return nil, nil
		}

		r.MarkAvailable(name)
		return nil, nil
	})
}
