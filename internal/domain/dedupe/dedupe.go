// Package dedupe tracks identities seen while a source is loaded.
package dedupe

import "context"

// Deduper records seen identities so a loader can tell a repeated row from a
// new one.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Duplicates returns the ids that were offered more than once, in the
	// order their first repeat was seen.
	Duplicates() []string

	// Size returns the number of distinct ids recorded.
	Size() int64
}

// inMemoryDeduper is a map-backed Deduper. It is not safe for concurrent use;
// loaders run one at a time.
type inMemoryDeduper struct {
	seen      map[string]int // id -> times offered
	dupOrder  []string
	normalize func(string) string
	hint      int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		normalize: func(s string) string { return s },
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int, d.hint)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	key := d.normalize(id)
	n := d.seen[key]
	d.seen[key] = n + 1
	if n == 1 {
		d.dupOrder = append(d.dupOrder, key)
	}
	return n > 0
}

func (d *inMemoryDeduper) Duplicates() []string {
	out := make([]string, len(d.dupOrder))
	copy(out, d.dupOrder)
	return out
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(len(d.seen))
}
