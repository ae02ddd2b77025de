// Package pte encodes a single page table entry as a bit-packed word,
// the way biscuit's mem package encodes its PTE bitmask constants, but
// carrying the fields this simulator's paging engine needs: present,
// swapped, dirty, and either a resident frame number or a swap
// (type, offset) pair.
package pte

import "github.com/kics223w1/ossim/internal/status"

// PTE is a bit-packed page table entry.
type PTE uint64

const (
	presentMask = 1 << 0
	swappedMask = 1 << 1
	dirtyMask   = 1 << 2

	fpnLobit = 8
	fpnBits  = 24
	fpnMask  = (PTE(1)<<fpnBits - 1) << fpnLobit

	swptypLobit = 8
	swptypBits  = 4
	swptypMask  = (PTE(1)<<swptypBits - 1) << swptypLobit

	swpoffLobit = 12
	swpoffBits  = 20
	swpoffMask  = (PTE(1)<<swpoffBits - 1) << swpoffLobit
)

func setVal(p *PTE, val PTE, mask PTE, lobit uint) {
	*p = (*p &^ mask) | ((val << lobit) & mask)
}

func getVal(p PTE, mask PTE, lobit uint) PTE {
	return (p & mask) >> lobit
}

// New builds a PTE. Non-swapped resident entries require a nonzero fpn;
// fpn 0 is reserved and rejected, mirroring init_pte's "FPN zero is
// reserved" rule.
func New(present bool, fpn uint32, dirty bool, swapped bool, swptyp uint8, swpoff uint32) (PTE, error) {
	var p PTE
	if !present {
		return p, nil
	}
	if !swapped {
		if fpn == 0 {
			return 0, status.ErrInvalidArgument
		}
		p |= presentMask
		setVal(&p, PTE(fpn), fpnMask, fpnLobit)
		if dirty {
			p |= dirtyMask
		}
		return p, nil
	}
	p |= presentMask | swappedMask
	setVal(&p, PTE(swptyp), swptypMask, swptypLobit)
	setVal(&p, PTE(swpoff), swpoffMask, swpoffLobit)
	return p, nil
}

func (p PTE) Present() bool { return p&presentMask != 0 }
func (p PTE) Swapped() bool { return p&swappedMask != 0 }
func (p PTE) Dirty() bool   { return p&dirtyMask != 0 }

// FPN returns the resident frame number. Only meaningful when
// Present() && !Swapped().
func (p PTE) FPN() uint32 { return uint32(getVal(p, fpnMask, fpnLobit)) }

// SwapType and SwapOffset are only meaningful when Present() && Swapped().
func (p PTE) SwapType() uint8    { return uint8(getVal(p, swptypMask, swptypLobit)) }
func (p PTE) SwapOffset() uint32 { return uint32(getVal(p, swpoffMask, swpoffLobit)) }

// SetSwap rewrites p in place to a swapped entry, mirroring pte_set_swap.
func (p *PTE) SetSwap(swptyp uint8, swpoff uint32) {
	*p |= presentMask | swappedMask
	setVal(p, PTE(swptyp), swptypMask, swptypLobit)
	setVal(p, PTE(swpoff), swpoffMask, swpoffLobit)
}

// SetFPN rewrites p in place to a resident entry, mirroring pte_set_fpn.
func (p *PTE) SetFPN(fpn uint32) {
	*p |= presentMask
	*p &^= swappedMask
	setVal(p, PTE(fpn), fpnMask, fpnLobit)
}
