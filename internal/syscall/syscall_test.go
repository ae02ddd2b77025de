package syscall

import (
	"io"
	"log/slog"
	"testing"

	"github.com/kics223w1/ossim/internal/kernel"
	"github.com/kics223w1/ossim/internal/memdev"
	"github.com/kics223w1/ossim/internal/pagetable"
	"github.com/kics223w1/ossim/internal/procimg"
	"github.com/kics223w1/ossim/internal/sched"
)

func newTestKernel() *kernel.Kernel {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ram := memdev.New(4096, 256, true)
	swap := []*memdev.Device{memdev.New(4096, 256, true)}
	sc := sched.NewMLQ(log)
	return kernel.New(ram, swap, 256, sc, log, func() pagetable.PageTable {
		return pagetable.NewFlat(64)
	})
}

func registerTestProc(t *testing.T, krnl *kernel.Kernel, pid int) *kernel.PCB {
	t.Helper()
	proc := kernel.NewPCB(pid, 0, procimg.NewNullProgram(10))
	if err := krnl.InitAddressSpace(proc); err != nil {
		t.Fatalf("InitAddressSpace: %v", err)
	}
	krnl.Register(proc)
	return proc
}

// TestDispatchIncGrowsHeapByOnePage exercises the SYSMEM_INC_OP heap
// growth scenario: inc_sz=100 at page size 256 advances vm_end by
// exactly one page and sbrk by 100, with the one freshly mapped page
// number enqueued on the FIFO.
func TestDispatchIncGrowsHeapByOnePage(t *testing.T) {
	krnl := newTestKernel()
	proc := registerTestProc(t, krnl, 1)

	regs := &Regs{A1: OpInc, A2: 0, A3: 100}
	if err := Dispatch(krnl, proc.PID(), regs); err != nil {
		t.Fatalf("Dispatch OpInc: %v", err)
	}

	vma, ok := proc.MM.ByID(0)
	if !ok {
		t.Fatal("vma 0 missing after IncVMALimit")
	}
	if vma.End != 256 {
		t.Fatalf("vm_end = %d, want 256", vma.End)
	}
	if vma.Sbrk != 100 {
		t.Fatalf("sbrk = %d, want 100", vma.Sbrk)
	}
	if len(proc.FIFO) != 1 {
		t.Fatalf("fifo length = %d, want 1", len(proc.FIFO))
	}
}

func TestDispatchUnknownPIDFails(t *testing.T) {
	krnl := newTestKernel()
	regs := &Regs{A1: OpInc, A2: 0, A3: 10}
	if err := Dispatch(krnl, 999, regs); err == nil {
		t.Fatal("expected error for unregistered pid")
	}
}

func TestDispatchUnknownOpFails(t *testing.T) {
	krnl := newTestKernel()
	regs := &Regs{A1: 999}
	if err := Dispatch(krnl, 1, regs); err == nil {
		t.Fatal("expected error for unknown memop code")
	}
}

func TestDispatchIOReadWriteRoundTrip(t *testing.T) {
	krnl := newTestKernel()
	writeRegs := &Regs{A1: OpIOWrite, A2: 10, A3: 0x55}
	if err := Dispatch(krnl, 1, writeRegs); err != nil {
		t.Fatalf("Dispatch OpIOWrite: %v", err)
	}
	readRegs := &Regs{A1: OpIORead, A2: 10}
	if err := Dispatch(krnl, 1, readRegs); err != nil {
		t.Fatalf("Dispatch OpIORead: %v", err)
	}
	if readRegs.A3 != 0x55 {
		t.Fatalf("A3 = %#x, want 0x55", readRegs.A3)
	}
}

func TestDispatchMapZeroesRange(t *testing.T) {
	krnl := newTestKernel()
	proc := registerTestProc(t, krnl, 2)

	regs := &Regs{A1: OpMap, A2: 0, A3: 2}
	if err := Dispatch(krnl, proc.PID(), regs); err != nil {
		t.Fatalf("Dispatch OpMap: %v", err)
	}
	if proc.PT.Get(0) != 0 || proc.PT.Get(1) != 0 {
		t.Fatal("expected placeholder zero PTEs for the mapped range")
	}
}

func TestDispatchSwapCopiesRAMFrameToSwap(t *testing.T) {
	krnl := newTestKernel()
	if err := krnl.RAM.Write(0, 0x9); err != nil {
		t.Fatalf("seed RAM: %v", err)
	}
	regs := &Regs{A1: OpSwap, A2: 0, A3: 0}
	if err := Dispatch(krnl, 1, regs); err != nil {
		t.Fatalf("Dispatch OpSwap: %v", err)
	}
	b, err := krnl.ActiveSwapDevice().Read(0)
	if err != nil {
		t.Fatalf("Read swap: %v", err)
	}
	if b != 0x9 {
		t.Fatalf("swapped byte = %#x, want 0x9", b)
	}
}
