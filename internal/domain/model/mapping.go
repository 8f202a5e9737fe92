package model

// Pseudonym is one entry of a fictitious name pool.
type Pseudonym struct {
	FirstName string
	LastName  string
	FullName  string
	Gender    string
	Language  string
}

// MappingUser is a row of the workshop user mapping: a real attendee and the
// pseudonymous tenant account issued to them.
type MappingUser struct {
	UserNumber     string
	RealFullName   string
	RealAlias      string
	RealEmail      string
	Team           string
	Country        string
	Role           string
	ChallengeLevel string

	Fictitious    Pseudonym
	PrincipalName string
	DisplayName   string
	Alias         string
}

// ID returns the identity key of the mapped attendee.
func (u MappingUser) ID() string { return NormalizeID(u.RealEmail) }

// HasPseudonym reports whether a fictitious name was already issued.
func (u MappingUser) HasPseudonym() bool { return u.Fictitious.FullName != "" }

// ApplyPseudonym issues a fictitious identity to the user.
func (u *MappingUser) ApplyPseudonym(p Pseudonym, alias, principal string) {
	u.Fictitious = p
	u.DisplayName = p.FullName
	u.Alias = alias
	u.PrincipalName = principal
}

// TeamRecord is a row of the teams export as read back by later commands.
type TeamRecord struct {
	TeamNumber string
	TeamType   string
	Email      string
	Preference string
}
