package service

import "errors"

// Sentinel errors returned by the workflows.
var (
	// ErrInvalidEntry marks a late registration without a name or email.
	ErrInvalidEntry = errors.New("invalid participant entry")
)
