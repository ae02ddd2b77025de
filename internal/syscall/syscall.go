// Package syscall implements the sys_memmap dispatch shim: the single
// entry point through which the (out-of-scope) instruction
// interpreter reaches the paging engine on behalf of a running
// process. Grounded on original_source/src/sys_mem.c's __sys_memmap.
package syscall

import (
	"fmt"

	"github.com/kics223w1/ossim/internal/kernel"
)

// Memory-operation codes carried in Regs.A1, mirroring sys_mem.h's
// SYSMEM_* constants.
const (
	OpMap     = iota // a2=addr, a3=pgnum: zero-init pgnum PTEs at addr
	OpInc            // a2=vmaid, a3=incSz: inc_vma_limit
	OpSwap           // a2=vicFPN, a3=swpFPN: swap_cp_page(ram -> active swap)
	OpIORead         // a2=addr: MEMPHY_read(ram), result in A3
	OpIOWrite        // a2=addr, a3=byte: MEMPHY_write(ram)
)

// Regs carries the three syscall argument registers, mirroring struct
// sc_regs. A3 is an in/out parameter for OpIORead.
type Regs struct {
	A1 int
	A2 uint64
	A3 int
}

// Dispatch executes the memory operation named by regs.A1 on behalf
// of pid. It looks up pid's registered PCB to reach that process's
// own address space and page table; krnl supplies the kernel-wide
// devices (RAM, swap) every operation also needs.
//
// The original's __sys_memmap allocates a short-lived, zeroed
// `struct pcb_t caller = {krnl, pid}` purely so the MM helper
// functions it calls have a receiver to read krnl off of; it is never
// treated as real process state. This port does not need that
// wrapper — Go lets Dispatch pass krnl and the looked-up PCB directly
// — but pid is still resolved through the kernel's registry rather
// than trusted as a pointer, preserving the original's "never
// dereference untrusted caller state" boundary.
func Dispatch(krnl *kernel.Kernel, pid int, regs *Regs) error {
	switch regs.A1 {
	case OpMap:
		proc, ok := krnl.Lookup(pid)
		if !ok {
			return fmt.Errorf("syscall: unknown pid %d", pid)
		}
		return krnl.VMapZero(proc, regs.A2, int(regs.A3))
	case OpInc:
		proc, ok := krnl.Lookup(pid)
		if !ok {
			return fmt.Errorf("syscall: unknown pid %d", pid)
		}
		return krnl.IncVMALimit(proc, int(regs.A2), uint64(regs.A3))
	case OpSwap:
		return krnl.SwapOut(int(regs.A2), regs.A3)
	case OpIORead:
		b, err := krnl.RAM.Read(int(regs.A2))
		if err != nil {
			return err
		}
		regs.A3 = int(b)
		return nil
	case OpIOWrite:
		return krnl.RAM.Write(int(regs.A2), byte(regs.A3))
	default:
		return fmt.Errorf("syscall: unknown memop code %d", regs.A1)
	}
}
