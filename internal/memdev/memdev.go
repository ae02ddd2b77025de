// Package memdev implements the physical memory device: a flat byte
// array paired with free/used frame bookkeeping, in both random-access
// and sequential (cursor-walking) access modes.
package memdev

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kics223w1/ossim/internal/status"
)

// FrameOwner identifies the address space a used frame is leased to.
// A nil owner means the frame is allocated but not yet attributed
// (mirrors the original device's owner field, which the caller sets
// only once the frame is wired into a page table).
type FrameOwner any

type frame struct {
	fpn   int
	owner FrameOwner
}

// Device is a physical memory device: RAM or a swap slot.
type Device struct {
	storage []byte
	pageSz  int
	random  bool
	cursor  int

	free []frame // stack of free frame numbers, LIFO like the original's list head
	used map[int]frame
}

// New builds a Device of maxSize bytes, partitioned into pageSz-byte
// frames, in either random (random=true) or sequential access mode.
func New(maxSize, pageSz int, random bool) *Device {
	d := &Device{
		storage: make([]byte, maxSize),
		pageSz:  pageSz,
		random:  random,
		used:    make(map[int]frame),
	}
	numfp := maxSize / pageSz
	for i := 0; i < numfp; i++ {
		d.free = append(d.free, frame{fpn: i})
	}
	return d
}

// MaxSize returns the device's byte capacity.
func (d *Device) MaxSize() int { return len(d.storage) }

// moveCursor walks the cursor from 0 toward offset, one step at a time,
// exactly as MEMPHY_mv_csr does, so sequential devices only ever reach
// an address via a deterministic number of steps.
func (d *Device) moveCursor(offset int) {
	d.cursor = 0
	steps := 0
	for steps < offset && steps < len(d.storage) {
		d.cursor = (d.cursor + 1) % len(d.storage)
		steps++
	}
}

// Read returns the byte at addr. Random-access devices bounds-check
// directly; sequential devices walk the cursor first.
func (d *Device) Read(addr int) (byte, error) {
	if d.random {
		if addr < 0 || addr >= len(d.storage) {
			return 0, status.ErrOutOfBounds
		}
		return d.storage[addr], nil
	}
	return d.seqRead(addr)
}

func (d *Device) seqRead(addr int) (byte, error) {
	d.moveCursor(addr)
	return d.storage[addr], nil
}

// Write stores value at addr, following the same random/sequential
// dispatch as Read.
func (d *Device) Write(addr int, value byte) error {
	if d.random {
		if addr < 0 || addr >= len(d.storage) {
			return status.ErrOutOfBounds
		}
		d.storage[addr] = value
		return nil
	}
	return d.seqWrite(addr, value)
}

func (d *Device) seqWrite(addr int, value byte) error {
	d.moveCursor(addr)
	d.storage[addr] = value
	return nil
}

// GetFreeFrame pops a frame number off the free list.
func (d *Device) GetFreeFrame() (int, error) {
	if len(d.free) == 0 {
		return 0, status.ErrOutOfMemory
	}
	n := len(d.free) - 1
	fpn := d.free[n].fpn
	d.free = d.free[:n]
	return fpn, nil
}

// PutFreeFrame pushes fpn back onto the free list.
func (d *Device) PutFreeFrame(fpn int) {
	d.free = append(d.free, frame{fpn: fpn})
}

// GetUsedFrame allocates a frame from the free list and moves it
// directly to the used list under owner, mirroring
// MEMPHY_get_usedfp.
func (d *Device) GetUsedFrame(owner FrameOwner) (int, error) {
	fpn, err := d.GetFreeFrame()
	if err != nil {
		return 0, err
	}
	d.used[fpn] = frame{fpn: fpn, owner: owner}
	return fpn, nil
}

// PutUsedFrame directly records fpn as used under owner without
// removing it from the free list first (mirrors MEMPHY_put_usedfp,
// used when a frame's provenance is tracked elsewhere).
func (d *Device) PutUsedFrame(fpn int, owner FrameOwner) {
	d.used[fpn] = frame{fpn: fpn, owner: owner}
}

// RemoveUsedFrame drops fpn from the used list without freeing it.
func (d *Device) RemoveUsedFrame(fpn int) error {
	if _, ok := d.used[fpn]; !ok {
		return status.ErrNotFound
	}
	delete(d.used, fpn)
	return nil
}

// FreeUsedFrame moves fpn from used back to free.
func (d *Device) FreeUsedFrame(fpn int) error {
	if err := d.RemoveUsedFrame(fpn); err != nil {
		return err
	}
	d.PutFreeFrame(fpn)
	return nil
}

// FindFrame reports the owner of fpn if it is currently used.
func (d *Device) FindFrame(fpn int) (owner FrameOwner, ok bool) {
	f, ok := d.used[fpn]
	return f.owner, ok
}

// IsFrameFree reports whether fpn sits on the free list.
func (d *Device) IsFrameFree(fpn int) bool {
	for _, f := range d.free {
		if f.fpn == fpn {
			return true
		}
	}
	return false
}

// Stats reports frame counts: free, used, total.
func (d *Device) Stats() (free, used, total int) {
	return len(d.free), len(d.used), len(d.storage) / d.pageSz
}

// Validate checks the device's frame accounting invariant:
// free+used must never exceed total.
func (d *Device) Validate() error {
	free, used, total := d.Stats()
	if free+used > total {
		return fmt.Errorf("%w: free=%d used=%d total=%d", status.ErrInvalidArgument, free, used, total)
	}
	return nil
}

// Dump writes a diagnostic rendering of the device: header, a hex grid
// of up to the first 256 bytes, and a column-aligned, capped listing
// of free and used frames.
func (d *Device) Dump(w io.Writer, name string) {
	fmt.Fprintf(w, "=== %s MEMPHY DUMP ===\n", name)
	fmt.Fprintf(w, "Max Size: %d bytes\n", len(d.storage))
	mode := "Sequential"
	if d.random {
		mode = "Random"
	}
	fmt.Fprintf(w, "Access Mode: %s\n", mode)
	if !d.random {
		fmt.Fprintf(w, "Cursor Position: %d\n", d.cursor)
	}

	fmt.Fprintln(w, "\nStorage Content (first 256 bytes):")
	dumpSize := len(d.storage)
	if dumpSize > 256 {
		dumpSize = 256
	}
	for i := 0; i < dumpSize; i++ {
		if i%16 == 0 {
			fmt.Fprintf(w, "%04x: ", i)
		}
		fmt.Fprintf(w, "%02x ", d.storage[i])
		if (i+1)%16 == 0 {
			fmt.Fprintln(w)
		}
	}
	if dumpSize%16 != 0 {
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintln(tw, "\nFree Frame List:")
	for i, f := range d.free {
		if i >= 20 {
			fmt.Fprintln(tw, "  ... (more frames)")
			break
		}
		fmt.Fprintf(tw, "  FPN:\t%d\n", f.fpn)
	}
	fmt.Fprintln(tw, "Used Frame List:")
	i := 0
	for fpn, f := range d.used {
		if i >= 20 {
			fmt.Fprintln(tw, "  ... (more frames)")
			break
		}
		fmt.Fprintf(tw, "  FPN:\t%d\towner:\t%v\n", fpn, f.owner)
		i++
	}
	tw.Flush()
	fmt.Fprintln(w, "===================")
}
