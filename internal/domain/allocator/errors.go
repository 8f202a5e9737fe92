package allocator

import "errors"

// Sentinel kinds for allocation errors.
var (
	// ErrInconsistentTopology is returned when a slot count is negative, or
	// zero while the bucket meant for those slots is non-empty.
	ErrInconsistentTopology = errors.New("inconsistent team topology")
)
