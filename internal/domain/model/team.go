package model

// TeamKind tags a team slot.
type TeamKind int

// Team kinds.
const (
	KindAdvanced TeamKind = iota
	KindMixed
)

// String returns the label written to CSV exports.
func (k TeamKind) String() string {
	if k == KindAdvanced {
		return "Advanced"
	}
	return "Mixed (Beg/Int)"
}

// Member is a participant placed on a team. Preference is the tag given when
// the participant was classified and is carried unchanged through pooling.
type Member struct {
	Participant Participant
	Preference  Preference
}

// Team is one slot of the topology with its members in assignment order.
type Team struct {
	Number  int
	Kind    TeamKind
	Members []Member
}

// Size returns the number of members.
func (t Team) Size() int { return len(t.Members) }

// PreferenceCounts counts members per preference tag.
func (t Team) PreferenceCounts() map[Preference]int {
	counts := make(map[Preference]int, 4)
	for _, m := range t.Members {
		counts[m.Preference]++
	}
	return counts
}

// Assignment is the result of one allocation run.
type Assignment struct {
	Seed  int64
	Teams []Team // ascending team number: advanced slots first, then mixed

	// NoPreferenceQuota is the per mixed slot share of the NoPreference
	// bucket computed before the final pool shuffle.
	NoPreferenceQuota []int
}

// TotalMembers counts members across all teams.
func (a Assignment) TotalMembers() int {
	n := 0
	for _, t := range a.Teams {
		n += len(t.Members)
	}
	return n
}

// TeamsOfKind returns the teams tagged with kind, in team order.
func (a Assignment) TeamsOfKind(kind TeamKind) []Team {
	var out []Team
	for _, t := range a.Teams {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}
