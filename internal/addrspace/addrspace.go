// Package addrspace implements the virtual-memory-area (VMA) list for a
// process's address space: per-area free-region sub-lists, program
// break tracking, and the create/add/remove/merge/split/increment-limit
// operations that manage them. Grounded on mm-vm.c's VMA list, with the
// get_vma_by_num nil-dereference-on-miss bug fixed to a clean miss.
package addrspace

import (
	"github.com/kics223w1/ossim/internal/status"
	"github.com/kics223w1/ossim/internal/util"
)

// Region is a free sub-range [Start, End) inside a VMA.
type Region struct {
	Start, End uint64
}

// VMA is one virtual memory area: a half-open range [Start, End), its
// program break (Sbrk), and the list of free sub-regions within it.
type VMA struct {
	ID         int
	Start, End uint64
	Sbrk       uint64
	Free       []Region
}

// AddressSpace owns an ordered-by-ID list of VMAs.
type AddressSpace struct {
	areas []*VMA
}

// New returns an empty address space.
func New() *AddressSpace { return &AddressSpace{} }

// ByID returns the VMA with the given id, or a clean miss. This
// replaces get_vma_by_num's behavior of dereferencing vm_next without
// a nil check once it has walked past the end of the list.
func (a *AddressSpace) ByID(id int) (*VMA, bool) {
	for _, v := range a.areas {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

func overlap(aStart, aEnd, bStart, bEnd uint64) bool {
	return aStart < bEnd && bStart < aEnd
}

// ValidateOverlap reports whether the VMA identified by id, if resized
// to [start, end), would overlap any other VMA in the address space.
func (a *AddressSpace) ValidateOverlap(id int, start, end uint64) error {
	if start >= end {
		return status.ErrInvalidArgument
	}
	cur, ok := a.ByID(id)
	if !ok {
		return status.ErrNotFound
	}
	for _, v := range a.areas {
		if v == cur {
			continue
		}
		if overlap(start, end, v.Start, v.End) {
			return status.ErrOverlap
		}
	}
	return nil
}

// CreateVMA builds a new VMA covering [start, end), with program break
// initially at start and no usable free region yet.
func CreateVMA(id int, start, end uint64) *VMA {
	return &VMA{
		ID:    id,
		Start: start,
		End:   end,
		Sbrk:  start,
		Free:  []Region{{Start: start, End: start}},
	}
}

// Add inserts v into the address space in ID order, rejecting overlap
// with any existing VMA.
func (a *AddressSpace) Add(v *VMA) error {
	for _, cur := range a.areas {
		if overlap(cur.Start, cur.End, v.Start, v.End) {
			return status.ErrOverlap
		}
	}
	idx := 0
	for idx < len(a.areas) && a.areas[idx].ID < v.ID {
		idx++
	}
	a.areas = append(a.areas, nil)
	copy(a.areas[idx+1:], a.areas[idx:])
	a.areas[idx] = v
	return nil
}

// Remove deletes the VMA identified by id.
func (a *AddressSpace) Remove(id int) error {
	for i, v := range a.areas {
		if v.ID == id {
			a.areas = append(a.areas[:i], a.areas[i+1:]...)
			return nil
		}
	}
	return status.ErrNotFound
}

// IncLimit grows the VMA identified by vmaid by incSz bytes, aligned up
// to pageSz for the VMA's end, while sbrk advances by the raw
// requested size (mirroring inc_vma_limit's distinct vm_end/sbrk
// deltas). mapRange is called with (oldEnd, newEnd, numPages) to map
// the freshly reserved range to physical frames; on any failure the
// VMA is rolled back to its prior state.
func (a *AddressSpace) IncLimit(vmaid int, incSz uint64, pageSz uint64, mapRange func(oldEnd, newEnd uint64, numPages int) error) error {
	v, ok := a.ByID(vmaid)
	if !ok {
		return status.ErrNotFound
	}

	incAmt := util.Roundup(incSz, pageSz)
	incPages := int(incAmt / pageSz)

	oldSbrk, oldEnd := v.Sbrk, v.End
	v.End += incAmt
	v.Sbrk += incSz

	if err := a.ValidateOverlap(vmaid, v.Start, v.End); err != nil {
		v.End, v.Sbrk = oldEnd, oldSbrk
		return err
	}
	if err := mapRange(oldEnd, v.End, incPages); err != nil {
		v.End, v.Sbrk = oldEnd, oldSbrk
		return err
	}
	return nil
}

// Merge folds vma2 into vma1. The two must be adjacent (one's end
// equals the other's start); the caller is responsible for removing
// vma2 from the address space afterward.
func Merge(vma1, vma2 *VMA) error {
	if vma1.End != vma2.Start && vma2.End != vma1.Start {
		return status.ErrInvalidArgument
	}
	if vma2.Start < vma1.Start {
		vma1.Start = vma2.Start
		vma1.Free = append(append([]Region{}, vma2.Free...), vma1.Free...)
	} else {
		vma1.End = vma2.End
		vma1.Free = append(vma1.Free, vma2.Free...)
	}
	if vma2.Sbrk > vma1.Sbrk {
		vma1.Sbrk = vma2.Sbrk
	}
	vma2.Free = nil
	return nil
}

// Split divides vma at splitAddr, which must lie strictly inside the
// VMA, returning the new upper-half VMA with ID vma.ID+1 (vma keeps its
// ID; its End and Sbrk are truncated in place).
func Split(vma *VMA, splitAddr uint64) (*VMA, error) {
	if splitAddr <= vma.Start || splitAddr >= vma.End {
		return nil, status.ErrInvalidArgument
	}

	newVMA := &VMA{
		ID:    vma.ID + 1,
		Start: splitAddr,
		End:   vma.End,
		Sbrk:  max(vma.Sbrk, splitAddr),
	}

	vma.End = splitAddr
	if vma.Sbrk > splitAddr {
		vma.Sbrk = splitAddr
	}

	var kept []Region
	for i, rg := range vma.Free {
		switch {
		case rg.Start >= splitAddr:
			newVMA.Free = append([]Region{rg}, vma.Free[i+1:]...)
			vma.Free = kept
			return newVMA, nil
		case rg.End > splitAddr:
			newVMA.Free = append([]Region{{Start: splitAddr, End: rg.End}}, vma.Free[i+1:]...)
			rg.End = splitAddr
			kept = append(kept, rg)
			vma.Free = kept
			return newVMA, nil
		default:
			kept = append(kept, rg)
		}
	}
	vma.Free = kept
	return newVMA, nil
}
