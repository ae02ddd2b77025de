// Package util holds small generic numeric helpers shared across the
// paging and address-space code. Adapted from biscuit's util package,
// trimmed to the rounding helpers this simulator actually calls —
// Readn/Writen's unsafe.Pointer byte marshaling has no caller here,
// since every device access in this module already goes through
// memdev's bounds-checked byte-at-a-time Read/Write.
package util

// Int is satisfied by all built-in integer types.
type Int interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Rounddown aligns v down to the nearest multiple of b.
func Rounddown[T Int](v, b T) T {
	return v - (v % b)
}

// Roundup aligns v up to the nearest multiple of b.
func Roundup[T Int](v, b T) T {
	return Rounddown(v+b-1, b)
}
