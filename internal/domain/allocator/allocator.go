// Package allocator places participants on teams by challenge preference.
//
// Advanced participants fill a fixed number of advanced-only slots in
// ceiling-sized chunks, the last slot taking whatever is left. Beginner,
// Intermediate and NoPreference participants are pooled, shuffled, and
// apportioned over the mixed slots with the lowest slots taking the
// remainder. All randomness comes from one seeded generator per run.
package allocator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/okian/teamforge/internal/domain/model"
	"github.com/okian/teamforge/pkg/logger"
)

// Default allocation constants.
const (
	defaultSeed            = 42
	defaultAdvancedSlots   = 4
	defaultMixedSlots      = 20
	defaultFirstTeamNumber = 1
)

// Topology describes the team slots of a run. Advanced slots are numbered
// first, starting at FirstTeamNumber, mixed slots follow.
type Topology struct {
	AdvancedSlots   int
	MixedSlots      int
	FirstTeamNumber int
}

// Allocator runs Distribute with a fresh generator built from its seed, so
// repeated or concurrent calls never share random state.
type Allocator struct {
	topology Topology
	seed     int64
	logger   logger.Logger
}

// New creates an allocator with configuration options.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		topology: Topology{
			AdvancedSlots:   defaultAdvancedSlots,
			MixedSlots:      defaultMixedSlots,
			FirstTeamNumber: defaultFirstTeamNumber,
		},
		seed:   defaultSeed,
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Topology returns the configured topology.
func (a *Allocator) Topology() Topology { return a.topology }

// Allocate assigns every participant to exactly one team.
func (a *Allocator) Allocate(ctx context.Context, participants []model.Participant) (model.Assignment, error) {
	rng := rand.New(rand.NewSource(a.seed)) //nolint:gosec // reproducible team draws, not security sensitive

	asg, err := Distribute(participants, a.topology, rng)
	if err != nil {
		return model.Assignment{}, err
	}
	asg.Seed = a.seed

	a.logger.Debug(ctx, "participants allocated",
		logger.Int("participants", len(participants)),
		logger.Int("teams", len(asg.Teams)),
		logger.Int64("seed", a.seed),
	)
	return asg, nil
}

// Distribute is the allocation itself. It does not modify participants and
// consumes rng in a fixed order: the Beginner, Intermediate, Advanced and
// NoPreference buckets, then the merged mixed pool.
func Distribute(participants []model.Participant, topo Topology, rng *rand.Rand) (model.Assignment, error) {
	if topo.AdvancedSlots < 0 || topo.MixedSlots < 0 {
		return model.Assignment{}, fmt.Errorf("%w: advanced=%d mixed=%d",
			ErrInconsistentTopology, topo.AdvancedSlots, topo.MixedSlots)
	}

	var beginner, intermediate, advanced, noPref []model.Member
	for _, p := range participants {
		m := model.Member{Participant: p, Preference: p.Preference}
		switch p.Preference {
		case model.Beginner:
			beginner = append(beginner, m)
		case model.Intermediate:
			intermediate = append(intermediate, m)
		case model.Advanced:
			advanced = append(advanced, m)
		default:
			m.Preference = model.NoPreference
			noPref = append(noPref, m)
		}
	}

	shuffle(rng, beginner)
	shuffle(rng, intermediate)
	shuffle(rng, advanced)
	shuffle(rng, noPref)

	if topo.AdvancedSlots == 0 && len(advanced) > 0 {
		return model.Assignment{}, fmt.Errorf("%w: %d advanced participants but no advanced slots",
			ErrInconsistentTopology, len(advanced))
	}
	mixedCount := len(beginner) + len(intermediate) + len(noPref)
	if topo.MixedSlots == 0 && mixedCount > 0 {
		return model.Assignment{}, fmt.Errorf("%w: %d mixed participants but no mixed slots",
			ErrInconsistentTopology, mixedCount)
	}

	teams := make([]model.Team, topo.AdvancedSlots+topo.MixedSlots)
	for i := range teams {
		teams[i].Number = topo.FirstTeamNumber + i
		teams[i].Kind = model.KindMixed
		if i < topo.AdvancedSlots {
			teams[i].Kind = model.KindAdvanced
		}
	}

	next := 0
	for slot, size := range Chunk(len(advanced), topo.AdvancedSlots) {
		teams[slot].Members = append(teams[slot].Members, advanced[next:next+size]...)
		next += size
	}

	mixed := teams[topo.AdvancedSlots:]
	pool := make([]model.Member, 0, mixedCount)
	pool = append(pool, beginner...)
	pool = append(pool, intermediate...)

	quota := Apportion(len(noPref), topo.MixedSlots)
	next = 0
	for _, q := range quota {
		pool = append(pool, noPref[next:next+q]...)
		next += q
	}

	shuffle(rng, pool)

	next = 0
	for slot, size := range Apportion(len(pool), topo.MixedSlots) {
		mixed[slot].Members = append(mixed[slot].Members, pool[next:next+size]...)
		next += size
	}

	return model.Assignment{Teams: teams, NoPreferenceQuota: quota}, nil
}

// Apportion splits n over slots: every slot gets n/slots and the first
// n%slots slots get one more. It returns nil when slots is not positive.
func Apportion(n, slots int) []int {
	if slots <= 0 {
		return nil
	}
	sizes := make([]int, slots)
	base, rem := n/slots, n%slots
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}

// Chunk returns the slot sizes produced by ceiling-sized chunking of n items
// over slots, the last slot absorbing any remainder. It returns nil when
// slots is not positive.
func Chunk(n, slots int) []int {
	if slots <= 0 {
		return nil
	}
	sizes := make([]int, slots)
	if n == 0 {
		return sizes
	}
	chunk := ceilDiv(n, slots)
	for i := 0; i < n; i++ {
		slot := i / chunk
		if slot > slots-1 {
			slot = slots - 1
		}
		sizes[slot]++
	}
	return sizes
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func shuffle(rng *rand.Rand, members []model.Member) {
	rng.Shuffle(len(members), func(i, j int) {
		members[i], members[j] = members[j], members[i]
	})
}
