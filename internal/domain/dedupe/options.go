// Package dedupe tracks identities seen while a source is loaded.
package dedupe

// Option applies a configuration option to the Deduper.
type Option func(*inMemoryDeduper)

// WithNormalizer sets the function applied to every id before comparison,
// e.g. model.NormalizeID to compare emails case-insensitively.
func WithNormalizer(fn func(string) string) Option {
	return func(d *inMemoryDeduper) {
		if fn != nil {
			d.normalize = fn
		}
	}
}

// WithCapacityHint pre-sizes the underlying set.
func WithCapacityHint(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.hint = n
		}
	}
}
