// Package kernel ties the paging and scheduling components together
// behind one handle: the RAM device, the swap devices, the active
// swap slot, and the scheduler that every PCB and every syscall
// reaches through a non-owning pointer, per spec.md §9's note on
// breaking the process/kernel handle cycle. Grounded on
// original_source/src/os.c's main(), which wires the equivalent
// globals (mram, mswp, active_mswp, the scheduler) before spawning the
// loader and CPU threads.
package kernel

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kics223w1/ossim/internal/addrspace"
	"github.com/kics223w1/ossim/internal/memdev"
	"github.com/kics223w1/ossim/internal/pagetable"
	"github.com/kics223w1/ossim/internal/paging"
	"github.com/kics223w1/ossim/internal/procimg"
	"github.com/kics223w1/ossim/internal/sched"
	"github.com/kics223w1/ossim/internal/status"
)

// PCB is a process control block: a scheduling identity, a program
// counter into an immutable code section, and a pointer to the
// process's own address space and page table. Grounded on spec.md
// §3's PCB description.
type PCB struct {
	Sched *sched.Process
	Krnl  *Kernel

	pc   int
	code procimg.Program

	MM   *addrspace.AddressSpace
	PT   pagetable.PageTable
	FIFO []uint64
}

// NewPCB builds a PCB for pid at the given priority, running code.
// MM and PT are left nil: the loader builds and attaches them, then
// publishes the PCB via Kernel.Register only once both are fully
// initialized (see Kernel.Register's doc comment).
func NewPCB(pid, priority int, code procimg.Program) *PCB {
	p := &PCB{code: code}
	p.Sched = &sched.Process{PID: pid, Priority: priority, Owner: p}
	return p
}

func (p *PCB) PID() int                 { return p.Sched.PID }
func (p *PCB) PC() int                  { return p.pc }
func (p *PCB) SetPC(pc int)             { p.pc = pc }
func (p *PCB) Program() procimg.Program { return p.code }
func (p *PCB) Finished() bool           { return p.pc >= p.code.Size() }

var _ procimg.Proc = (*PCB)(nil)

// Kernel is the kernel-wide handle: the RAM device, the swap device
// slice, the currently active swap slot, and the scheduler. It carries
// no data of its own that belongs to a single process; every PCB and
// every syscall reaches it through a plain pointer.
type Kernel struct {
	RAM        *memdev.Device
	Swap       []*memdev.Device
	ActiveSwap int
	PageSize   int

	// PTFactory builds a fresh, empty page table for a newly loaded
	// process: pagetable.NewFlat or pagetable.NewFiveLevel, chosen at
	// construction time (spec.md's compile-time variant point,
	// expressed here as a constructor choice per SPEC_FULL.md).
	PTFactory func() pagetable.PageTable

	Sched *sched.Scheduler
	Log   *slog.Logger

	done atomic.Bool

	mu    sync.Mutex
	procs map[int]*PCB

	timeMu sync.Mutex
	time   uint64

	nextPID atomic.Int64
}

// New builds a kernel handle around an already-formatted RAM device,
// swap device slice, and scheduler. ptFactory builds a fresh page
// table for each newly loaded process.
func New(ram *memdev.Device, swap []*memdev.Device, pageSize int, sc *sched.Scheduler, log *slog.Logger, ptFactory func() pagetable.PageTable) *Kernel {
	return &Kernel{
		RAM:       ram,
		Swap:      swap,
		PageSize:  pageSize,
		Sched:     sc,
		Log:       log,
		PTFactory: ptFactory,
		procs:     make(map[int]*PCB),
	}
}

// CurrentTime returns the global clock's current value.
func (k *Kernel) CurrentTime() uint64 {
	k.timeMu.Lock()
	defer k.timeMu.Unlock()
	return k.time
}

// Tick advances the global clock by one slot, called by the timer
// thread once every participant has reported in for the current slot.
func (k *Kernel) Tick() {
	k.timeMu.Lock()
	k.time++
	k.timeMu.Unlock()
}

// NextPID allocates the next process id, starting at 1.
func (k *Kernel) NextPID() int {
	return int(k.nextPID.Add(1))
}

// InitAddressSpace builds a fresh address space and page table for
// proc: an empty address space with the single zero-length VMA every
// address space is born with (spec.md §3), backed by a PTFactory page
// table. The caller must finish this before Register publishes proc,
// per spec.md §9's initialize-then-publish rule.
func (k *Kernel) InitAddressSpace(proc *PCB) error {
	mm := addrspace.New()
	if err := mm.Add(addrspace.CreateVMA(0, 0, 0)); err != nil {
		return err
	}
	proc.MM = mm
	proc.PT = k.PTFactory()
	return nil
}

// ActiveSwapDevice returns the swap device currently selected for
// eviction traffic.
func (k *Kernel) ActiveSwapDevice() *memdev.Device {
	return k.Swap[k.ActiveSwap]
}

// Register publishes proc so later Lookup calls can observe it.
// Callers must finish building proc.MM and proc.PT before calling
// Register: the kernel-wide registry is the publication point spec.md
// §9 requires to happen only after initialization completes, so no
// other goroutine ever observes a half-built address space.
func (k *Kernel) Register(proc *PCB) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.procs[proc.PID()] = proc
}

// Lookup returns the registered PCB for pid, if any.
func (k *Kernel) Lookup(pid int) (*PCB, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.procs[pid]
	return p, ok
}

// Unregister drops pid from the registry once its process has
// terminated.
func (k *Kernel) Unregister(pid int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.procs, pid)
}

// AddProc admits a newly loaded process to the scheduler, mirroring
// add_mlq_proc/add_proc.
func (k *Kernel) AddProc(p *PCB) { k.Sched.Add(p.Sched) }

// GetProc pulls the next process to run from the scheduler, mirroring
// get_proc, recovering the owning PCB via sched.Process.Owner.
func (k *Kernel) GetProc() *PCB {
	sp := k.Sched.Get()
	if sp == nil {
		return nil
	}
	return sp.Owner.(*PCB)
}

// PutProc re-queues p when its time slice expires, mirroring put_proc.
func (k *Kernel) PutProc(p *PCB) { k.Sched.Put(p.Sched) }

// MarkDone flips the global loader-finished flag, checked by CPUs that
// find no more work once the loader will never admit another process.
func (k *Kernel) MarkDone()  { k.done.Store(true) }
func (k *Kernel) Done() bool { return k.done.Load() }

// IncVMALimit grows vmaid's heap by incSz bytes on behalf of proc,
// mapping freshly reserved pages to RAM frames. Implements
// inc_vma_limit's syscall-facing half: VMA bookkeeping lives in
// addrspace.IncLimit, frame allocation and mapping live in paging.
func (k *Kernel) IncVMALimit(proc *PCB, vmaid int, incSz uint64) error {
	return proc.MM.IncLimit(vmaid, incSz, uint64(k.PageSize), func(oldEnd, newEnd uint64, numPages int) error {
		frames, outcome := paging.AllocPagesRange(k.RAM, numPages, proc)
		if outcome != paging.AllocOK {
			return status.ErrOutOfMemory
		}
		pgn := oldEnd / uint64(k.PageSize)
		return paging.VMapPageRange(proc.PT, pgn, frames, &proc.FIFO)
	})
}

// VMapZero zero-initializes pgnum PTE slots starting at the page
// number addr resolves to, mirroring vmap_pgd_memset's reserved-range
// clear (SYSMEM_MAP_OP): no frames are allocated, only placeholder
// PTEs are written.
func (k *Kernel) VMapZero(proc *PCB, addr uint64, pgnum int) error {
	pgn := addr / uint64(k.PageSize)
	for i := 0; i < pgnum; i++ {
		if err := proc.PT.Set(pgn+uint64(i), 0); err != nil {
			return err
		}
	}
	return nil
}

// SwapOut copies the RAM frame vicFPN to swpFPN on the active swap
// device, mirroring SYSMEM_SWP_OP's swap_cp_page(ram -> active_swp).
func (k *Kernel) SwapOut(vicFPN, swpFPN int) error {
	return paging.SwapCopyPage(k.RAM, vicFPN, k.ActiveSwapDevice(), swpFPN, k.PageSize)
}

// PageFault services a demand fault for proc on page pgn, per
// spec.md 4.3's five-step victim/evict/swap-in/rewrite/enqueue
// algorithm.
func (k *Kernel) PageFault(proc *PCB, pgn uint64) (paging.AllocOutcome, error) {
	return paging.PageFault(proc.PT, k.RAM, k.ActiveSwapDevice(), k.PageSize, pgn, proc, &proc.FIFO)
}
