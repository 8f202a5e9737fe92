package service

import (
	"io"

	repository "github.com/okian/teamforge/internal/adapters/repository"
	"github.com/okian/teamforge/internal/domain/allocator"
	"github.com/okian/teamforge/pkg/logger"
)

// Paths are the files a run reads and writes.
type Paths struct {
	Roster    string
	Survey    string
	Proctors  string // optional
	Teams     string
	Mapping   string
	NamePools []string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the sources and sinks used by every workflow.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithAllocator sets the allocator used by Assign.
func WithAllocator(a *allocator.Allocator) Option {
	return func(s *Service) {
		if a != nil {
			s.allocator = a
		}
	}
}

// WithPaths sets the input and output files.
func WithPaths(p Paths) Option {
	return func(s *Service) {
		s.paths = p
	}
}

// WithPrincipalDomain sets the domain of generated principal names.
func WithPrincipalDomain(domain string) Option {
	return func(s *Service) {
		if domain != "" {
			s.principalDomain = domain
		}
	}
}

// WithOutput sets where reports are printed.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.out = w
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
