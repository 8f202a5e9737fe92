package config

import "errors"

// Sentinel errors returned by Load and Validate; match them with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that loaded but cannot be used.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file or environment source that could not be read.
	ErrLoadConfig = errors.New("load config failed")
)
