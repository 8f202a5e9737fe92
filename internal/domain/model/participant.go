// Package model contains domain models passed between layers.
package model

import "strings"

// Preference is a participant's self-reported challenge level.
type Preference int

// Preference categories. NoPreference is the zero value so a participant
// without a survey answer needs no special handling.
const (
	NoPreference Preference = iota
	Beginner
	Intermediate
	Advanced
)

// String returns the label written to CSV exports.
func (p Preference) String() string {
	switch p {
	case Beginner:
		return "Beginner"
	case Intermediate:
		return "Intermediate"
	case Advanced:
		return "Advanced"
	default:
		return "No Preference"
	}
}

// ParsePreference maps a survey or export label to a Preference. The second
// result is false for labels that are not recognised; those map to
// NoPreference.
func ParsePreference(s string) (Preference, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return Beginner, true
	case "intermediate":
		return Intermediate, true
	case "advanced":
		return Advanced, true
	case "", "no preference", "nopreference", "none":
		return NoPreference, true
	default:
		return NoPreference, false
	}
}

// Role describes why someone is on the roster.
type Role string

// Known roles. Only participants are placed on teams.
const (
	RoleParticipant Role = "Participant"
	RoleProctor     Role = "Proctor"
	RoleAuditor     Role = "Auditor"
)

// ParseRole normalises a roster role cell. Blank means participant.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proctor":
		return RoleProctor
	case "auditor":
		return RoleAuditor
	case "", "participant":
		return RoleParticipant
	default:
		return Role(strings.TrimSpace(s))
	}
}

// Allocatable reports whether a person with this role joins a team.
func (r Role) Allocatable() bool {
	return r == RoleParticipant
}

// Participant is one roster row.
type Participant struct {
	ID           string // lower-cased email, stable identity
	UserNumber   string
	Name         string
	Alias        string
	Email        string // as written in the roster
	OriginalTeam string
	Country      string
	Role         Role
	Preference   Preference
}

// NormalizeID turns an email into the identity key used across sources.
func NormalizeID(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
