// Package status defines the small sentinel-error vocabulary shared by
// every simulator component. Expected failure modes are returned as a
// Status and checked with errors.Is; invariant violations a caller could
// never legitimately trigger still panic.
package status

import "fmt"

// Status is a lightweight sentinel error. The zero value is OK, which
// reports success explicitly where a Status is expected.
type Status int

const (
	OK Status = iota
	ErrOutOfBounds
	ErrOutOfMemory
	ErrOverlap
	ErrQueueFull
	ErrNotFound
	ErrInvalidArgument
	ErrAlreadyExists
)

var names = map[Status]string{
	OK:                 "ok",
	ErrOutOfBounds:     "out of bounds",
	ErrOutOfMemory:     "out of memory",
	ErrOverlap:         "overlapping region",
	ErrQueueFull:       "queue full",
	ErrNotFound:        "not found",
	ErrInvalidArgument: "invalid argument",
	ErrAlreadyExists:   "already exists",
}

func (s Status) Error() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Is lets errors.Is(err, status.ErrNotFound) work against wrapped statuses.
func (s Status) Is(target error) bool {
	t, ok := target.(Status)
	return ok && t == s
}

// Invariant panics with a formatted message. Reserved for states that
// indicate a bug in the caller or a corrupted data structure, never for
// expected runtime conditions such as a full queue or an unmapped page.
func Invariant(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
