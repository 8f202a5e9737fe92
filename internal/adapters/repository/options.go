package repository

import "github.com/okian/teamforge/pkg/logger"

// DuplicatePolicy decides what a loader does with a repeated identity.
type DuplicatePolicy int

// Duplicate policies.
const (
	// DuplicateError aborts the load with ErrDuplicateIdentity.
	DuplicateError DuplicatePolicy = iota
	// DuplicateWarn keeps the first row, logs the repeat and carries on.
	DuplicateWarn
)

// ParseDuplicatePolicy maps the config value to a policy; anything other
// than "warn" is DuplicateError.
func ParseDuplicatePolicy(s string) DuplicatePolicy {
	if s == "warn" {
		return DuplicateWarn
	}
	return DuplicateError
}

// Option applies a configuration option to the CSVStore.
type Option func(*CSVStore)

// WithDuplicatePolicy sets how repeated identities are handled.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *CSVStore) {
		s.duplicates = p
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}
