package providers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/certifier/internal/providers"
	"github.com/JaimeStill/certifier/pkg/lifecycle"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistryTTL(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := &fakeAdapter{name: "groq"}

	reg := providers.NewRegistry(providers.RegistryOptions{
		TTL:    5 * time.Minute,
		Logger: discard(),
		Clock:  clk.Now,
	}, a)

	ctx := context.Background()

	if got := len(reg.Available(ctx)); got != 1 {
		t.Fatalf("available: got %d, want 1", got)
	}
	reg.Available(ctx)
	if a.probes.Load() != 1 {
		t.Errorf("fresh entry re-probed: %d probes", a.probes.Load())
	}

	clk.Advance(5 * time.Minute)
	reg.Available(ctx)
	if a.probes.Load() != 2 {
		t.Errorf("stale entry not re-probed: %d probes", a.probes.Load())
	}

	reg.MarkUnavailable("groq", errors.New("429"))
	if got := len(reg.Available(ctx)); got != 0 {
		t.Errorf("marked-unavailable provider returned within TTL")
	}

	clk.Advance(5 * time.Minute)
	if got := len(reg.Available(ctx)); got != 1 {
		t.Errorf("provider not restored after TTL: got %d", got)
	}
}

func TestRegistryRefreshForcesProbe(t *testing.T) {
	a := &fakeAdapter{name: "nvidia"}
	reg := providers.NewRegistry(providers.RegistryOptions{TTL: time.Hour, Logger: discard()}, a)

	reg.Available(context.Background())
	a.probeErr = errors.New("dns failure")

	snap := reg.Refresh(context.Background())
	if a.probes.Load() != 2 {
		t.Errorf("probes: got %d, want 2", a.probes.Load())
	}
	if snap[0].Available || snap[0].LastError == "" {
		t.Errorf("refresh did not record failure: %+v", snap[0])
	}
}

type gatedAdapter struct {
	fakeAdapter
	gate chan struct{}
}

func (g *gatedAdapter) Probe(ctx context.Context) error {
	g.probes.Add(1)
	<-g.gate
	return nil
}

func TestRegistryCollapsesConcurrentProbes(t *testing.T) {
	a := &gatedAdapter{fakeAdapter: fakeAdapter{name: "groq"}, gate: make(chan struct{})}
	reg := providers.NewRegistry(providers.RegistryOptions{TTL: time.Hour, Logger: discard()}, a)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Go(func() {
			results[i] = len(reg.Available(context.Background()))
		})
	}

	time.Sleep(20 * time.Millisecond)
	close(a.gate)
	wg.Wait()

	if a.probes.Load() != 1 {
		t.Errorf("probes: got %d, want 1", a.probes.Load())
	}
	for i, n := range results {
		if n != 1 {
			t.Errorf("reader %d saw %d available", i, n)
		}
	}
}

func TestRegistryDuplicateNames(t *testing.T) {
	reg := providers.NewRegistry(providers.RegistryOptions{Logger: discard()},
		&fakeAdapter{name: "groq"},
		&fakeAdapter{name: "groq"},
		&fakeAdapter{name: "nvidia"},
	)

	names := reg.Names()
	if len(names) != 2 || names[0] != "groq" || names[1] != "nvidia" {
		t.Errorf("names: got %v", names)
	}
}

func TestRegistryStart(t *testing.T) {
	a := &fakeAdapter{name: "groq"}
	reg := providers.NewRegistry(providers.RegistryOptions{TTL: time.Hour, Logger: discard()}, a)

	lc := lifecycle.New()
	reg.Start(lc)
	lc.WaitForStartup()

	if a.probes.Load() != 1 {
		t.Errorf("startup probe count: got %d, want 1", a.probes.Load())
	}
	if !reg.Snapshot()[0].Available {
		t.Error("provider not available after startup probe")
	}
}
