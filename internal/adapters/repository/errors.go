package repository

import "errors"

// Sentinel kinds for file source and sink errors.
var (
	// ErrMissingInput marks a required source file that does not exist.
	ErrMissingInput = errors.New("missing input")
	// ErrDuplicateIdentity marks an identity that appears twice in one source.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrMalformedRecord marks a header without a required column.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrWriteOutput marks a sink that could not be written.
	ErrWriteOutput = errors.New("write output failed")
)
