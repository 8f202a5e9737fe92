package allocator_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/okian/teamforge/internal/domain/allocator"
	"github.com/okian/teamforge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func people(prefix string, pref model.Preference, n int) []model.Participant {
	out := make([]model.Participant, n)
	for i := range out {
		email := fmt.Sprintf("%s%02d@example.com", prefix, i)
		out[i] = model.Participant{
			ID:         email,
			Email:      email,
			Name:       fmt.Sprintf("%s %02d", prefix, i),
			Country:    "Norway",
			Role:       model.RoleParticipant,
			Preference: pref,
		}
	}
	return out
}

func roster(adv, inter, beg, none int) []model.Participant {
	var all []model.Participant
	all = append(all, people("adv", model.Advanced, adv)...)
	all = append(all, people("int", model.Intermediate, inter)...)
	all = append(all, people("beg", model.Beginner, beg)...)
	all = append(all, people("none", model.NoPreference, none)...)
	return all
}

func sizes(teams []model.Team) []int {
	out := make([]int, len(teams))
	for i, t := range teams {
		out[i] = t.Size()
	}
	return out
}

func memberIDs(asg model.Assignment) []string {
	var ids []string
	for _, t := range asg.Teams {
		for _, m := range t.Members {
			ids = append(ids, m.Participant.ID)
		}
	}
	return ids
}

// drawOrder replays the generator sequence of Distribute over ids: Beginner,
// Intermediate, Advanced and NoPreference buckets, then the mixed pool.
func drawOrder(in []model.Participant, topo allocator.Topology, seed int64) [][]string {
	buckets := map[model.Preference][]string{}
	for _, p := range in {
		buckets[p.Preference] = append(buckets[p.Preference], p.ID)
	}
	rng := rand.New(rand.NewSource(seed))
	for _, pref := range []model.Preference{model.Beginner, model.Intermediate, model.Advanced, model.NoPreference} {
		ids := buckets[pref]
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}
	var pool []string
	pool = append(pool, buckets[model.Beginner]...)
	pool = append(pool, buckets[model.Intermediate]...)
	pool = append(pool, buckets[model.NoPreference]...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	teams := make([][]string, topo.AdvancedSlots+topo.MixedSlots)
	advanced := buckets[model.Advanced]
	chunk := (len(advanced) + topo.AdvancedSlots - 1) / topo.AdvancedSlots
	for i, id := range advanced {
		slot := min(i/chunk, topo.AdvancedSlots-1)
		teams[slot] = append(teams[slot], id)
	}
	next := 0
	for slot, size := range allocator.Apportion(len(pool), topo.MixedSlots) {
		teams[topo.AdvancedSlots+slot] = append(teams[topo.AdvancedSlots+slot], pool[next:next+size]...)
		next += size
	}
	return teams
}

func teamIDs(asg model.Assignment) [][]string {
	out := make([][]string, len(asg.Teams))
	for i, t := range asg.Teams {
		for _, m := range t.Members {
			out[i] = append(out[i], m.Participant.ID)
		}
	}
	return out
}

func TestDistribute(t *testing.T) {
	Convey("Given a workshop roster", t, func() {
		in := roster(18, 30, 40, 12)
		topo := allocator.Topology{AdvancedSlots: 4, MixedSlots: 16, FirstTeamNumber: 1}

		Convey("When distributing with a seeded generator", func() {
			asg, err := allocator.Distribute(in, topo, rand.New(rand.NewSource(42)))
			So(err, ShouldBeNil)

			Convey("Then every participant should appear exactly once", func() {
				got := memberIDs(asg)
				want := make([]string, len(in))
				for i, p := range in {
					want[i] = p.ID
				}
				sort.Strings(got)
				sort.Strings(want)
				So(got, ShouldResemble, want)
			})

			Convey("Then teams should be numbered advanced first", func() {
				So(asg.Teams, ShouldHaveLength, 20)
				So(asg.Teams[0].Number, ShouldEqual, 1)
				So(asg.Teams[0].Kind, ShouldEqual, model.KindAdvanced)
				So(asg.Teams[3].Kind, ShouldEqual, model.KindAdvanced)
				So(asg.Teams[4].Number, ShouldEqual, 5)
				So(asg.Teams[4].Kind, ShouldEqual, model.KindMixed)
				So(asg.Teams[19].Number, ShouldEqual, 20)
			})

			Convey("Then 18 advanced over 4 slots should chunk as 5,5,5,3", func() {
				So(sizes(asg.TeamsOfKind(model.KindAdvanced)), ShouldResemble, []int{5, 5, 5, 3})
				for _, team := range asg.TeamsOfKind(model.KindAdvanced) {
					for _, m := range team.Members {
						So(m.Preference, ShouldEqual, model.Advanced)
					}
				}
			})

			Convey("Then the 12 no-preference quota should fill the first 12 of 16 slots", func() {
				want := []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0}
				So(asg.NoPreferenceQuota, ShouldResemble, want)
			})

			Convey("Then mixed sizes should differ by at most one with the larger first", func() {
				// 82 mixed over 16 slots: 5 each, first 2 slots get 6.
				got := sizes(asg.TeamsOfKind(model.KindMixed))
				So(got[0], ShouldEqual, 6)
				So(got[1], ShouldEqual, 6)
				for _, n := range got[2:] {
					So(n, ShouldEqual, 5)
				}
			})

			Convey("Then no advanced participant should land on a mixed team", func() {
				for _, team := range asg.TeamsOfKind(model.KindMixed) {
					for _, m := range team.Members {
						So(m.Preference, ShouldNotEqual, model.Advanced)
					}
				}
			})

			Convey("Then preference tags should survive pooling", func() {
				for _, team := range asg.Teams {
					for _, m := range team.Members {
						So(m.Preference, ShouldEqual, m.Participant.Preference)
					}
				}
			})
		})

		Convey("When distributing twice with the same seed", func() {
			first, err1 := allocator.Distribute(in, topo, rand.New(rand.NewSource(7)))
			second, err2 := allocator.Distribute(in, topo, rand.New(rand.NewSource(7)))

			Convey("Then the assignments should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When distributing", func() {
			before := append([]model.Participant(nil), in...)
			_, err := allocator.Distribute(in, topo, rand.New(rand.NewSource(1)))

			Convey("Then the input slice should be untouched", func() {
				So(err, ShouldBeNil)
				So(in, ShouldResemble, before)
			})
		})
	})
}

func TestDistributeDrawOrder(t *testing.T) {
	Convey("Given a roster spread over every preference", t, func() {
		in := roster(9, 5, 6, 4)
		topo := allocator.Topology{AdvancedSlots: 3, MixedSlots: 4, FirstTeamNumber: 1}

		Convey("When distributing with seed 42", func() {
			asg, err := allocator.Distribute(in, topo, rand.New(rand.NewSource(42)))

			Convey("Then members should follow the seeded bucket and pool shuffles", func() {
				So(err, ShouldBeNil)
				So(teamIDs(asg), ShouldResemble, drawOrder(in, topo, 42))
			})

			Convey("Then advanced teams should not keep roster order", func() {
				var got []string
				for _, team := range teamIDs(asg)[:topo.AdvancedSlots] {
					got = append(got, team...)
				}
				want := make([]string, 0, 9)
				for _, p := range in[:9] {
					want = append(want, p.ID)
				}
				So(got, ShouldHaveLength, 9)
				So(got, ShouldNotResemble, want)
			})
		})

		Convey("When distributing with two different seeds", func() {
			first, err1 := allocator.Distribute(in, topo, rand.New(rand.NewSource(1)))
			second, err2 := allocator.Distribute(in, topo, rand.New(rand.NewSource(2)))

			Convey("Then sizes should match while member order differs", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(sizes(second.Teams), ShouldResemble, sizes(first.Teams))
				So(teamIDs(second), ShouldNotResemble, teamIDs(first))
				So(teamIDs(second), ShouldResemble, drawOrder(in, topo, 2))
			})
		})
	})
}

func TestDistributeEdgeCases(t *testing.T) {
	Convey("Given edge-case inputs", t, func() {
		rng := rand.New(rand.NewSource(42))

		Convey("When the advanced bucket is empty and A=4", func() {
			asg, err := allocator.Distribute(roster(0, 3, 3, 0), allocator.Topology{AdvancedSlots: 4, MixedSlots: 2}, rng)

			Convey("Then all advanced slots exist with no members and no error", func() {
				So(err, ShouldBeNil)
				So(sizes(asg.TeamsOfKind(model.KindAdvanced)), ShouldResemble, []int{0, 0, 0, 0})
				So(sizes(asg.TeamsOfKind(model.KindMixed)), ShouldResemble, []int{3, 3})
			})
		})

		Convey("When there are fewer advanced participants than slots", func() {
			asg, err := allocator.Distribute(roster(2, 0, 0, 0), allocator.Topology{AdvancedSlots: 4, MixedSlots: 0}, rng)

			Convey("Then the trailing slots stay empty", func() {
				So(err, ShouldBeNil)
				So(sizes(asg.Teams), ShouldResemble, []int{1, 1, 0, 0})
			})
		})

		Convey("When the participant set is empty", func() {
			asg, err := allocator.Distribute(nil, allocator.Topology{AdvancedSlots: 2, MixedSlots: 3, FirstTeamNumber: 10}, rng)

			Convey("Then a topology-shaped empty assignment is returned", func() {
				So(err, ShouldBeNil)
				So(asg.Teams, ShouldHaveLength, 5)
				So(asg.Teams[0].Number, ShouldEqual, 10)
				So(asg.TotalMembers(), ShouldEqual, 0)
				So(asg.NoPreferenceQuota, ShouldResemble, []int{0, 0, 0})
			})
		})

		Convey("When advanced participants exist but A=0", func() {
			_, err := allocator.Distribute(roster(1, 2, 0, 0), allocator.Topology{AdvancedSlots: 0, MixedSlots: 2}, rng)

			Convey("Then ErrInconsistentTopology is returned", func() {
				So(errors.Is(err, allocator.ErrInconsistentTopology), ShouldBeTrue)
			})
		})

		Convey("When mixed participants exist but M=0", func() {
			_, err := allocator.Distribute(roster(2, 0, 0, 1), allocator.Topology{AdvancedSlots: 2, MixedSlots: 0}, rng)

			Convey("Then ErrInconsistentTopology is returned", func() {
				So(errors.Is(err, allocator.ErrInconsistentTopology), ShouldBeTrue)
			})
		})

		Convey("When a slot count is negative", func() {
			_, err := allocator.Distribute(nil, allocator.Topology{AdvancedSlots: -1, MixedSlots: 2}, rng)

			Convey("Then ErrInconsistentTopology is returned", func() {
				So(errors.Is(err, allocator.ErrInconsistentTopology), ShouldBeTrue)
			})
		})

		Convey("When only no-preference participants are present", func() {
			asg, err := allocator.Distribute(roster(0, 0, 0, 7), allocator.Topology{AdvancedSlots: 1, MixedSlots: 3}, rng)

			Convey("Then they fill the mixed slots with the remainder up front", func() {
				So(err, ShouldBeNil)
				So(asg.NoPreferenceQuota, ShouldResemble, []int{3, 2, 2})
				So(sizes(asg.TeamsOfKind(model.KindMixed)), ShouldResemble, []int{3, 2, 2})
				for _, team := range asg.TeamsOfKind(model.KindMixed) {
					for _, m := range team.Members {
						So(m.Preference, ShouldEqual, model.NoPreference)
					}
				}
			})
		})
	})
}

func TestApportionAndChunk(t *testing.T) {
	Convey("Given the apportionment rule", t, func() {
		Convey("Then 12 over 16 gives twelve ones then four zeros", func() {
			So(allocator.Apportion(12, 16), ShouldResemble, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0})
		})

		Convey("Then sizes are floor or floor+1 with the larger on the lowest slots", func() {
			for n := 0; n <= 60; n++ {
				for slots := 1; slots <= 9; slots++ {
					got := allocator.Apportion(n, slots)
					sum := 0
					for i, size := range got {
						sum += size
						if i < n%slots {
							So(size, ShouldEqual, n/slots+1)
						} else {
							So(size, ShouldEqual, n/slots)
						}
					}
					So(sum, ShouldEqual, n)
				}
			}
		})

		Convey("Then non-positive slot counts give nil", func() {
			So(allocator.Apportion(5, 0), ShouldBeNil)
			So(allocator.Chunk(5, -1), ShouldBeNil)
		})
	})

	Convey("Given the chunking rule", t, func() {
		Convey("Then 18 over 4 gives 5,5,5,3", func() {
			So(allocator.Chunk(18, 4), ShouldResemble, []int{5, 5, 5, 3})
		})

		Convey("Then sums match and imbalance is bounded by the chunk size", func() {
			for n := 0; n <= 60; n++ {
				for slots := 1; slots <= 9; slots++ {
					got := allocator.Chunk(n, slots)
					sum, lo, hi := 0, got[0], got[0]
					for _, size := range got {
						sum += size
						if size < lo {
							lo = size
						}
						if size > hi {
							hi = size
						}
					}
					So(sum, ShouldEqual, n)
					So(hi-lo, ShouldBeLessThanOrEqualTo, (n+slots-1)/slots)
				}
			}
		})
	})

	Convey("Given advanced-only rosters of every size", t, func() {
		Convey("Then Distribute should place advanced members by Chunk", func() {
			for n := 0; n <= 25; n++ {
				for slots := 1; slots <= 6; slots++ {
					topo := allocator.Topology{AdvancedSlots: slots, MixedSlots: 1}
					asg, err := allocator.Distribute(roster(n, 0, 0, 0), topo, rand.New(rand.NewSource(int64(n))))
					So(err, ShouldBeNil)
					So(sizes(asg.TeamsOfKind(model.KindAdvanced)), ShouldResemble, allocator.Chunk(n, slots))
				}
			}
		})
	})
}

func TestAllocator(t *testing.T) {
	Convey("Given an allocator with a fixed seed", t, func() {
		a := allocator.New(
			allocator.WithSeed(99),
			allocator.WithTopology(allocator.Topology{AdvancedSlots: 2, MixedSlots: 4, FirstTeamNumber: 1}),
		)
		in := roster(6, 8, 8, 3)

		Convey("When allocating repeatedly", func() {
			first, err1 := a.Allocate(context.Background(), in)
			second, err2 := a.Allocate(context.Background(), in)

			Convey("Then each call starts from the same generator state", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Seed, ShouldEqual, 99)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When allocating with the default topology", func() {
			asg, err := allocator.New().Allocate(context.Background(), in)

			Convey("Then the workshop layout of 4 advanced and 20 mixed is used", func() {
				So(err, ShouldBeNil)
				So(asg.Teams, ShouldHaveLength, 24)
				So(asg.Seed, ShouldEqual, 42)
			})
		})

		Convey("When the topology cannot hold the roster", func() {
			bad := allocator.New(allocator.WithTopology(allocator.Topology{AdvancedSlots: 0, MixedSlots: 2}))
			_, err := bad.Allocate(context.Background(), in)

			Convey("Then the error is surfaced", func() {
				So(errors.Is(err, allocator.ErrInconsistentTopology), ShouldBeTrue)
			})
		})
	})
}
