// Package pagetable implements the two page-table variants described by
// the paging engine: a flat single-level array (32-bit mode) and a
// five-level lazily-allocated tree (64-bit mode, 512 entries per
// level). Both satisfy the same PageTable interface so the rest of the
// engine is agnostic to which one backs a given address space.
package pagetable

import "github.com/kics223w1/ossim/internal/pte"

// PageTable maps a page number to a PTE slot. Page numbers are uint64:
// the five-level variant's page-number space is 2^45, which does not
// fit in a uint32.
type PageTable interface {
	// Get returns the PTE at pgn. Reading past an unallocated level
	// (five-level only) yields the zero PTE, matching a read-miss in
	// the original lazy-allocation scheme.
	Get(pgn uint64) pte.PTE
	// Set stores pte at pgn, lazily allocating any intermediate levels.
	Set(pgn uint64, p pte.PTE) error
	// MaxPages reports the page-number capacity of this table.
	MaxPages() uint64
}

// FlatPageSize and FiveLevelPageSize are the two variants' distinct
// page sizes: the original C project does not share one constant
// between the 32-bit and 64-bit variants, since the 64-bit variant
// switched to a realistic 4KB page.
const (
	FlatPageSize      = 256
	FiveLevelPageSize = 4096
)

// FlatMaxPages is the flat variant's page-number capacity, mirroring
// mm.h's PAGING_MAX_PGN (not present in the retrieved excerpt of
// original_source/; sized generously enough for the address ranges
// this simulator's test processes actually use).
const FlatMaxPages = 1 << 14
