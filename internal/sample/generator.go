// Package sample generates synthetic workshops for rehearsal runs: a roster,
// survey answers and a proctor list shaped like real registrations.
package sample

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/okian/teamforge/internal/domain/model"
)

// ErrInvalidSize is returned for negative or empty sample sizes.
var ErrInvalidSize = errors.New("invalid sample size")

// Survey answer distribution, in percent. Whatever is left skips the survey.
const (
	percentAdvanced     = 20
	percentIntermediate = 30
	percentBeginner     = 30
	percentNoPreference = 10
)

const defaultDomain = "example.com"

var countries = []string{"United States", "Portugal", "Taiwan", "Nigeria", "Ireland", "Japan", "Spain", "Canada"}

// Config sizes a generated workshop.
type Config struct {
	Participants int
	Proctors     int
	Auditors     int
	Domain       string
	Seed         int64
}

// Workshop is a generated set of sources.
type Workshop struct {
	Roster []model.Participant
	// Preferences holds survey answers; participants who skipped the
	// survey have no entry.
	Preferences map[string]model.Preference
	Proctors    []string
}

// Generate builds a workshop. The same config always yields the same
// workshop.
func Generate(ctx context.Context, cfg Config) (Workshop, error) {
	if cfg.Participants <= 0 || cfg.Proctors < 0 || cfg.Auditors < 0 {
		return Workshop{}, fmt.Errorf("%w: participants=%d proctors=%d auditors=%d",
			ErrInvalidSize, cfg.Participants, cfg.Proctors, cfg.Auditors)
	}
	if cfg.Domain == "" {
		cfg.Domain = defaultDomain
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible samples, not security

	total := cfg.Participants + cfg.Proctors + cfg.Auditors
	ws := Workshop{
		Roster:      make([]model.Participant, 0, total),
		Preferences: make(map[string]model.Preference, cfg.Participants),
	}

	number := 1
	add := func(prefix string, role model.Role, n int) {
		for i := 1; i <= n; i++ {
			p := person(prefix, i, number, role, cfg.Domain, rng)
			ws.Roster = append(ws.Roster, p)
			number++
			switch role {
			case model.RoleProctor:
				ws.Proctors = append(ws.Proctors, p.ID)
			case model.RoleParticipant:
				if pref, answered := surveyAnswer(rng); answered {
					ws.Preferences[p.ID] = pref
				}
			}
		}
	}
	add("participant", model.RoleParticipant, cfg.Participants)
	add("proctor", model.RoleProctor, cfg.Proctors)
	add("auditor", model.RoleAuditor, cfg.Auditors)

	return ws, ctx.Err()
}

func person(prefix string, i, number int, role model.Role, domain string, rng *rand.Rand) model.Participant {
	suffix := fmt.Sprintf("%03d", i)
	alias := prefix + suffix
	email := alias + "@" + domain
	return model.Participant{
		ID:           model.NormalizeID(email),
		UserNumber:   strconv.Itoa(number),
		Name:         titleCase(prefix) + " " + suffix,
		Alias:        alias,
		Email:        email,
		OriginalTeam: strconv.Itoa(rng.Intn(20) + 1),
		Country:      countries[rng.Intn(len(countries))],
		Role:         role,
	}
}

// surveyAnswer draws a level from the answer distribution. The second
// result is false for participants who skipped the survey.
func surveyAnswer(rng *rand.Rand) (model.Preference, bool) {
	n := rng.Intn(100)
	switch {
	case n < percentAdvanced:
		return model.Advanced, true
	case n < percentAdvanced+percentIntermediate:
		return model.Intermediate, true
	case n < percentAdvanced+percentIntermediate+percentBeginner:
		return model.Beginner, true
	case n < percentAdvanced+percentIntermediate+percentBeginner+percentNoPreference:
		return model.NoPreference, true
	default:
		return model.NoPreference, false
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
