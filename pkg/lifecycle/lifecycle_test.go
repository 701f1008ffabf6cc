package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/certifier/pkg/lifecycle"
)

type checker struct{ ready atomic.Bool }

func (c *checker) Ready() bool { return c.ready.Load() }

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}

	var ran atomic.Int32
	for range 3 {
		lc.OnStartup(func() { ran.Add(1) })
	}
	lc.WaitForStartup()

	if got := ran.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
	if !lc.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
}

func TestTrackedCheckerGatesReadiness(t *testing.T) {
	lc := lifecycle.New()
	c := &checker{}
	lc.Track(c)
	lc.WaitForStartup()

	if lc.Ready() {
		t.Error("tracked checker not ready; coordinator should not be ready")
	}

	c.ready.Store(true)
	if !lc.Ready() {
		t.Error("coordinator should be ready once checker is ready")
	}
}

func TestShutdown(t *testing.T) {
	t.Run("runs hooks and cancels context", func(t *testing.T) {
		lc := lifecycle.New()

		var cleaned atomic.Bool
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			cleaned.Store(true)
		})

		if err := lc.Shutdown(5 * time.Second); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}
		if !cleaned.Load() {
			t.Error("shutdown hook did not execute")
		}

		select {
		case <-lc.Context().Done():
		default:
			t.Error("context should be cancelled after shutdown")
		}
	})

	t.Run("times out on slow hooks", func(t *testing.T) {
		lc := lifecycle.New()
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			time.Sleep(500 * time.Millisecond)
		})

		if err := lc.Shutdown(50 * time.Millisecond); err == nil {
			t.Error("expected timeout error, got nil")
		}
	})
}
