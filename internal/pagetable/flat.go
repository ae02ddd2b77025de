package pagetable

import (
	"github.com/kics223w1/ossim/internal/pte"
	"github.com/kics223w1/ossim/internal/status"
)

// Flat is the 32-bit single-level page table: a bounds-checked array
// of PAGING_MAX_PGN PTE words, grounded directly on mm.c's flat
// pte_get_entry/pte_set_entry (which index krnl.mm.pgd[pgn] once bounds
// are checked, rather than descending through any hierarchy).
type Flat struct {
	entries []pte.PTE
}

// NewFlat allocates a flat page table sized for maxPages page numbers.
func NewFlat(maxPages uint64) *Flat {
	return &Flat{entries: make([]pte.PTE, maxPages)}
}

func (f *Flat) MaxPages() uint64 { return uint64(len(f.entries)) }

func (f *Flat) Get(pgn uint64) pte.PTE {
	if pgn >= uint64(len(f.entries)) {
		return 0
	}
	return f.entries[pgn]
}

func (f *Flat) Set(pgn uint64, p pte.PTE) error {
	if pgn >= uint64(len(f.entries)) {
		return status.ErrOutOfBounds
	}
	f.entries[pgn] = p
	return nil
}
