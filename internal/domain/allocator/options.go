package allocator

import "github.com/okian/teamforge/pkg/logger"

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithTopology sets the advanced and mixed slot counts and team numbering.
func WithTopology(t Topology) Option {
	return func(a *Allocator) {
		a.topology = t
	}
}

// WithSeed sets the seed of the generator built for every Allocate call.
func WithSeed(seed int64) Option {
	return func(a *Allocator) {
		a.seed = seed
	}
}

// WithLogger sets a custom logger for the allocator.
func WithLogger(l logger.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.logger = l
		}
	}
}
