// Package paging implements the demand-paging engine: frame allocation
// with an explicit out-of-memory outcome, page-range mapping, the FIFO
// victim queue, swap copy, and demand-fault handling. Grounded on
// mm.c/mm64.c's alloc_pages_range/vmap_page_range/__swap_cp_page and
// mm-vm.c's fault-path commentary.
package paging

import (
	"github.com/kics223w1/ossim/internal/memdev"
	"github.com/kics223w1/ossim/internal/pagetable"
	"github.com/kics223w1/ossim/internal/pte"
	"github.com/kics223w1/ossim/internal/status"
)

// AllocOutcome distinguishes a clean allocation failure from an
// out-of-memory condition, resolving the original alloc_pages_range's
// ambiguous -3000-vs-unsigned-compare sentinel with an explicit,
// typed result instead.
type AllocOutcome int

const (
	AllocOK AllocOutcome = iota
	AllocOOM
	AllocError
)

// Owner identifies the address space a frame is leased to, passed
// through to the backing Device's used-frame bookkeeping.
type Owner = memdev.FrameOwner

// AllocPagesRange allocates reqPages frames from ram on behalf of
// owner. On partial exhaustion it returns whatever frames it managed
// to collect along with AllocOOM; callers must not treat a short frame
// list as a hard error without checking outcome, matching this
// module's resolution of the spec's Open Question.
func AllocPagesRange(ram *memdev.Device, reqPages int, owner Owner) ([]int, AllocOutcome) {
	frames := make([]int, 0, reqPages)
	for i := 0; i < reqPages; i++ {
		fpn, err := ram.GetUsedFrame(owner)
		if err != nil {
			return frames, AllocOOM
		}
		frames = append(frames, fpn)
	}
	return frames, AllocOK
}

// VMapPageRange writes a resident PTE for each frame in frames, at
// consecutive page numbers starting at pgn (so exactly len(frames)
// pages are mapped), and appends every mapped page number to fifo in
// allocation order for later victim selection.
func VMapPageRange(pt pagetable.PageTable, pgn uint64, frames []int, fifo *[]uint64) error {
	for i, fpn := range frames {
		p, err := pte.New(true, uint32(fpn), false, false, 0, 0)
		if err != nil {
			return err
		}
		if err := pt.Set(pgn+uint64(i), p); err != nil {
			return err
		}
		*fifo = append(*fifo, pgn+uint64(i))
	}
	return nil
}

// SwapCopyPage copies one full page, byte by byte, from (src, srcFPN)
// to (dst, dstFPN), mirroring __swap_cp_page.
func SwapCopyPage(src *memdev.Device, srcFPN int, dst *memdev.Device, dstFPN int, pageSz int) error {
	for cell := 0; cell < pageSz; cell++ {
		b, err := src.Read(srcFPN*pageSz + cell)
		if err != nil {
			return err
		}
		if err := dst.Write(dstFPN*pageSz+cell, b); err != nil {
			return err
		}
	}
	return nil
}

// PageFault services a fault on pgn: it selects a victim page from the
// head of fifo (evicting to swp if the victim's frame is dirty),
// reuses the freed frame for the faulting page, reads the faulting
// page's swap contents back in if it was previously swapped out, and
// rewrites both PTEs. fifo is updated in place: the victim page number
// is removed from the head and pgn is appended at the tail.
func PageFault(pt pagetable.PageTable, ram, swp *memdev.Device, pageSz int, pgn uint64, owner Owner, fifo *[]uint64) (AllocOutcome, error) {
	p := pt.Get(pgn)
	if p.Present() && !p.Swapped() {
		return AllocOK, nil // already resident, nothing to do
	}

	var victimFPN int
	var victimPGN uint64
	var victimDirty bool
	haveVictim := len(*fifo) > 0
	if haveVictim {
		victimPGN = (*fifo)[0]
		*fifo = (*fifo)[1:]
		victimPTE := pt.Get(victimPGN)
		if !victimPTE.Present() || victimPTE.Swapped() {
			status.Invariant("paging: FIFO victim page %d has no resident frame", victimPGN)
		}
		victimFPN = int(victimPTE.FPN())
		victimDirty = victimPTE.Dirty()
	} else {
		fpn, err := ram.GetFreeFrame()
		if err != nil {
			return AllocOOM, err
		}
		victimFPN = fpn
	}

	// The victim's frame is about to be handed to pgn: its own PTE must
	// stop claiming residency in that frame either way, or two PTEs end
	// up aliasing one frame once pgn is mapped below.
	if haveVictim {
		if victimDirty {
			swpFPN, err := swp.GetUsedFrame(owner)
			if err != nil {
				return AllocOOM, err
			}
			if err := SwapCopyPage(ram, victimFPN, swp, swpFPN, pageSz); err != nil {
				return AllocError, err
			}
			var victimPTE pte.PTE
			victimPTE.SetSwap(0, uint32(swpFPN))
			if err := pt.Set(victimPGN, victimPTE); err != nil {
				return AllocError, err
			}
		} else {
			// Clean: identical to its last-known contents, so it can be
			// dropped without a write-back. Just unmap it.
			if err := pt.Set(victimPGN, 0); err != nil {
				return AllocError, err
			}
		}
	}

	if p.Present() && p.Swapped() {
		if err := SwapCopyPage(swp, int(p.SwapOffset()), ram, victimFPN, pageSz); err != nil {
			return AllocError, err
		}
	}

	newPTE, err := pte.New(true, uint32(victimFPN), false, false, 0, 0)
	if err != nil {
		return AllocError, err
	}
	if err := pt.Set(pgn, newPTE); err != nil {
		return AllocError, err
	}
	ram.PutUsedFrame(victimFPN, owner)
	*fifo = append(*fifo, pgn)
	return AllocOK, nil
}
