package timeslot

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kics223w1/ossim/internal/kernel"
	"github.com/kics223w1/ossim/internal/memdev"
	"github.com/kics223w1/ossim/internal/pagetable"
	"github.com/kics223w1/ossim/internal/procimg"
	"github.com/kics223w1/ossim/internal/sched"
)

// TestCPUOrderDescendsThenLoader exercises spec.md 4.5's turn table:
// with several active CPUs the token visits them in descending id
// order, then the loader, then wraps back to the highest CPU.
func TestCPUOrderDescendsThenLoader(t *testing.T) {
	o := newCPUOrder(3)
	if o.turn != 2 {
		t.Fatalf("initial turn = %d, want 2 (highest CPU)", o.turn)
	}
	o.signalNext(2)
	if o.turn != 1 {
		t.Fatalf("turn after CPU2 = %d, want 1", o.turn)
	}
	o.signalNext(1)
	if o.turn != 0 {
		t.Fatalf("turn after CPU1 = %d, want 0", o.turn)
	}
	o.signalNext(0)
	if o.turn != -1 {
		t.Fatalf("turn after CPU0 = %d, want -1 (loader)", o.turn)
	}
	o.signalNext(-1)
	if o.turn != 2 {
		t.Fatalf("turn after loader = %d, want 2 (wrap to highest CPU)", o.turn)
	}
}

func TestCPUOrderSkipsInactiveCPUs(t *testing.T) {
	o := newCPUOrder(3)
	o.markInactive(1)
	o.signalNext(2)
	if o.turn != 0 {
		t.Fatalf("turn after CPU2 skipping inactive CPU1 = %d, want 0", o.turn)
	}
}

func TestCPUOrderResetReturnsToHighestActive(t *testing.T) {
	o := newCPUOrder(3)
	o.markInactive(2)
	o.reset()
	if o.turn != 1 {
		t.Fatalf("turn after reset with CPU2 inactive = %d, want 1", o.turn)
	}
}

func TestBarrierReleasesAfterAllSignalDone(t *testing.T) {
	b := newBarrier(3)
	released := make(chan struct{})
	go func() {
		b.wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("barrier released before all participants signaled done")
	case <-time.After(20 * time.Millisecond):
	}

	b.signalDone()
	b.signalDone()
	b.signalDone()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("barrier never released after all participants signaled done")
	}
}

func newIntegrationKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ram := memdev.New(4096, 256, true)
	swap := []*memdev.Device{memdev.New(4096, 256, true)}
	sc := sched.NewMLQ(log)
	return kernel.New(ram, swap, 256, sc, log, func() pagetable.PageTable {
		return pagetable.NewFlat(64)
	})
}

// TestDriverRunSingleCPUSingleProcessTerminates drives a one-CPU
// simulation with a single process admitted at time 0 whose program
// finishes after one dispatched slot, checking the whole goroutine set
// (timer, CPU, loader) shuts down cleanly once the loader is done and
// the CPU finds no more work.
func TestDriverRunSingleCPUSingleProcessTerminates(t *testing.T) {
	krnl := newIntegrationKernel(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	driver := &Driver{
		NumCPUs:  1,
		TimeSlot: 1,
		Log:      log,
		Runner:   procimg.NullRunner{},
		Loader:   procimg.NullLoader{Size: 1},
	}
	procs := []Process{{StartTime: 0, Priority: 0, Path: "p0"}}

	done := make(chan error, 1)
	go func() { done <- driver.Run(krnl, procs) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Driver.Run did not terminate")
	}
}
