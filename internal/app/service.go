// Package service composes the repository, allocator, name pool and report
// into the teamforge workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	repository "github.com/okian/teamforge/internal/adapters/repository"
	"github.com/okian/teamforge/internal/domain/allocator"
	"github.com/okian/teamforge/internal/domain/dedupe"
	"github.com/okian/teamforge/internal/domain/model"
	"github.com/okian/teamforge/internal/domain/namepool"
	"github.com/okian/teamforge/internal/report"
	"github.com/okian/teamforge/internal/sample"
	"github.com/okian/teamforge/pkg/logger"
	"github.com/okian/teamforge/pkg/metrics"
)

// Team labels used in the user mapping for people outside the allocation.
const (
	TeamPending = "TBD"
	TeamAuditor = "Auditor"
)

const defaultPrincipalDomain = "fabrikam1.csplevelup.com"

// Entry is a late registration appended to the user mapping.
type Entry struct {
	Name    string
	Alias   string
	Email   string
	Country string
	Role    model.Role
	Level   model.Preference
	// Team overrides the default label (TBD, or Auditor for auditors).
	Team string
}

// Service runs the workshop workflows.
type Service struct {
	store           repository.Store
	allocator       *allocator.Allocator
	renderer        *report.Renderer
	out             io.Writer
	paths           Paths
	principalDomain string
	logger          logger.Logger
}

// New constructs a Service. Without options it reads and writes CSV files
// named in Paths and prints reports to stdout.
func New(opts ...Option) *Service {
	s := &Service{
		out:             os.Stdout,
		principalDomain: defaultPrincipalDomain,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.store == nil {
		s.store = repository.NewCSVStore(repository.WithLogger(s.logger.Named("repository")))
	}
	if s.allocator == nil {
		s.allocator = allocator.New(allocator.WithLogger(s.logger.Named("allocator")))
	}
	if s.renderer == nil {
		s.renderer = report.NewRenderer(s.out)
	}
	return s
}

// Assign loads the roster, survey and proctor list, places every
// allocatable participant on a team, writes the teams file and prints the
// composition report.
func (s *Service) Assign(ctx context.Context) (model.Assignment, error) {
	proctors, err := s.store.LoadProctors(ctx, s.paths.Proctors)
	proctorList := s.paths.Proctors != "" && err == nil
	switch {
	case errors.Is(err, repository.ErrMissingInput):
		s.logger.Warn(ctx, "proctor list not found, continuing without it", logger.String("file", s.paths.Proctors))
	case err != nil:
		return model.Assignment{}, fmt.Errorf("load proctors: %w", err)
	}

	roster, err := s.store.LoadRoster(ctx, s.paths.Roster)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("load roster: %w", err)
	}
	prefs, err := s.store.LoadPreferences(ctx, s.paths.Survey)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("load survey: %w", err)
	}

	participants, excluded := selectParticipants(roster, proctors, prefs)
	buckets := make(map[model.Preference]int, 4)
	for _, p := range participants {
		buckets[p.Preference]++
	}
	topo := s.allocator.Topology()
	s.logger.Info(ctx, "participants loaded",
		logger.Int("roster", len(roster)),
		logger.Int("allocatable", len(participants)),
		logger.Int("excluded", len(excluded)),
		logger.Bool("proctor_list", proctorList),
		logger.Int("advanced_slots", topo.AdvancedSlots),
		logger.Int("mixed_slots", topo.MixedSlots),
	)

	start := time.Now()
	asg, err := s.allocator.Allocate(ctx, participants)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("allocate: %w", err)
	}
	elapsed := time.Since(start)
	metrics.RecordAllocationDuration(elapsed)

	if err := s.store.WriteAssignment(ctx, s.paths.Teams, asg); err != nil {
		return model.Assignment{}, fmt.Errorf("write teams: %w", err)
	}

	recordAssignmentMetrics(asg, buckets, excluded)
	s.logger.Info(ctx, "teams written",
		logger.String("file", s.paths.Teams),
		logger.Int("teams", len(asg.Teams)),
		logger.Int64("seed", asg.Seed),
		logger.Float64("allocation_ms", float64(elapsed.Microseconds())/1000),
	)

	err = s.renderer.Assignment(s.out, report.AssignmentSummary{
		Assignment: asg,
		Buckets:    buckets,
		Excluded:   excluded,
		OutFile:    s.paths.Teams,
	})
	if err != nil {
		return asg, fmt.Errorf("render report: %w", err)
	}
	return asg, nil
}

// SyncMapping copies team numbers and challenge levels from the teams file
// into the user mapping and issues pseudonyms to users that have none.
func (s *Service) SyncMapping(ctx context.Context) (report.MappingSummary, error) {
	teams, err := s.store.LoadTeams(ctx, s.paths.Teams)
	if err != nil {
		return report.MappingSummary{}, fmt.Errorf("load teams: %w", err)
	}
	users, err := s.store.LoadMapping(ctx, s.paths.Mapping)
	if err != nil {
		return report.MappingSummary{}, fmt.Errorf("load mapping: %w", err)
	}
	pool, err := s.loadPool(ctx, users)
	if err != nil {
		return report.MappingSummary{}, err
	}

	byID := make(map[string]model.TeamRecord, len(teams))
	for _, rec := range teams {
		byID[rec.Email] = rec
	}

	summary := report.MappingSummary{OutFile: s.paths.Mapping}
	exhausted := false
	for i := range users {
		u := &users[i]
		if rec, ok := byID[u.ID()]; ok {
			change := report.MappingChange{
				Name:     u.RealFullName,
				OldTeam:  u.Team,
				OldLevel: u.ChallengeLevel,
				NewTeam:  rec.TeamNumber,
				NewLevel: rec.Preference,
			}
			u.Team = rec.TeamNumber
			u.ChallengeLevel = rec.Preference
			if change.OldTeam != change.NewTeam || change.OldLevel != change.NewLevel {
				summary.Changes = append(summary.Changes, change)
			}
		}

		if u.HasPseudonym() || exhausted {
			continue
		}
		name, err := pool.Next()
		if errors.Is(err, namepool.ErrPoolExhausted) {
			s.logger.Warn(ctx, "name pool exhausted, some users keep no pseudonym")
			exhausted = true
			continue
		}
		s.issue(u, name)
		summary.Issued = append(summary.Issued, report.NameIssued{RealName: u.RealFullName, Pseudonym: name.FullName})
	}

	if err := s.store.WriteMapping(ctx, s.paths.Mapping, users); err != nil {
		return report.MappingSummary{}, fmt.Errorf("write mapping: %w", err)
	}

	summary.Users = users
	summary.PoolLeft = pool.Remaining()
	metrics.RecordPseudonymsAssigned(len(summary.Issued))
	metrics.UpdatePseudonymsRemaining(summary.PoolLeft)
	s.logger.Info(ctx, "mapping synced",
		logger.Int("updates", len(summary.Changes)),
		logger.Int("names_assigned", len(summary.Issued)),
		logger.Int("users", len(users)),
	)

	if err := s.renderer.Mapping(s.out, summary); err != nil {
		return summary, fmt.Errorf("render report: %w", err)
	}
	return summary, nil
}

// AddParticipants appends late registrations to the user mapping with the
// next free user numbers and fresh pseudonyms.
func (s *Service) AddParticipants(ctx context.Context, entries []Entry) (report.MappingSummary, error) {
	users, err := s.store.LoadMapping(ctx, s.paths.Mapping)
	if err != nil {
		return report.MappingSummary{}, fmt.Errorf("load mapping: %w", err)
	}
	pool, err := s.loadPool(ctx, users)
	if err != nil {
		return report.MappingSummary{}, err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.NormalizeID), dedupe.WithCapacityHint(len(users)+len(entries)))
	for _, u := range users {
		seen.SeenAndRecord(ctx, u.ID())
	}

	next := nextUserNumber(users)
	summary := report.MappingSummary{OutFile: s.paths.Mapping}
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" || model.NormalizeID(e.Email) == "" {
			return report.MappingSummary{}, fmt.Errorf("%w: name and email are required", ErrInvalidEntry)
		}
		if seen.SeenAndRecord(ctx, e.Email) {
			return report.MappingSummary{}, fmt.Errorf("%w: %s is already in the mapping", repository.ErrDuplicateIdentity, model.NormalizeID(e.Email))
		}
		name, err := pool.Next()
		if err != nil {
			return report.MappingSummary{}, fmt.Errorf("add %s: %w", e.Name, err)
		}

		role := e.Role
		if role == "" {
			role = model.RoleParticipant
		}
		u := model.MappingUser{
			UserNumber:     strconv.Itoa(next),
			RealFullName:   strings.TrimSpace(e.Name),
			RealAlias:      e.Alias,
			RealEmail:      strings.TrimSpace(e.Email),
			Team:           entryTeam(e.Team, role),
			Country:        e.Country,
			Role:           string(role),
			ChallengeLevel: e.Level.String(),
		}
		s.issue(&u, name)
		users = append(users, u)
		next++

		issued := report.NameIssued{RealName: u.RealFullName, Pseudonym: name.FullName, UserNumber: u.UserNumber}
		if role == model.RoleAuditor {
			issued.Note = "auditor, not in teams"
		}
		summary.Issued = append(summary.Issued, issued)
	}

	if err := s.store.WriteMapping(ctx, s.paths.Mapping, users); err != nil {
		return report.MappingSummary{}, fmt.Errorf("write mapping: %w", err)
	}

	summary.Users = users
	summary.PoolLeft = pool.Remaining()
	metrics.RecordPseudonymsAssigned(len(summary.Issued))
	metrics.UpdatePseudonymsRemaining(summary.PoolLeft)
	s.logger.Info(ctx, "participants added", logger.Int("added", len(summary.Issued)), logger.Int("users", len(users)))

	if err := s.renderer.Mapping(s.out, summary); err != nil {
		return summary, fmt.Errorf("render report: %w", err)
	}
	return summary, nil
}

// GenerateSample writes a synthetic roster, survey and proctor list to the
// configured input files, ready for a rehearsal Assign.
func (s *Service) GenerateSample(ctx context.Context, cfg sample.Config) (sample.Workshop, error) {
	ws, err := sample.Generate(ctx, cfg)
	if err != nil {
		return sample.Workshop{}, fmt.Errorf("generate sample: %w", err)
	}
	if err := s.store.WriteRoster(ctx, s.paths.Roster, ws.Roster); err != nil {
		return sample.Workshop{}, fmt.Errorf("write roster: %w", err)
	}
	if err := s.store.WritePreferences(ctx, s.paths.Survey, ws.Preferences); err != nil {
		return sample.Workshop{}, fmt.Errorf("write survey: %w", err)
	}
	if s.paths.Proctors != "" {
		if err := s.store.WriteProctors(ctx, s.paths.Proctors, ws.Proctors); err != nil {
			return sample.Workshop{}, fmt.Errorf("write proctors: %w", err)
		}
	}

	s.logger.Info(ctx, "sample workshop written",
		logger.Int("roster", len(ws.Roster)),
		logger.Int("survey_answers", len(ws.Preferences)),
		logger.Int("proctors", len(ws.Proctors)),
		logger.Int64("seed", cfg.Seed),
	)
	_, err = fmt.Fprintf(s.out, "Sample workshop written: %d people (%d survey answers) to %s\n",
		len(ws.Roster), len(ws.Preferences), s.paths.Roster)
	return ws, err
}

// loadPool reads the pseudonym pools and marks names already issued in the
// mapping as used.
func (s *Service) loadPool(ctx context.Context, users []model.MappingUser) (*namepool.Pool, error) {
	names, err := s.store.LoadNamePool(ctx, s.paths.NamePools)
	if err != nil {
		return nil, fmt.Errorf("load name pool: %w", err)
	}
	pool := namepool.New(names)
	for _, u := range users {
		pool.MarkUsed(u.Fictitious.FullName)
	}
	s.logger.Debug(ctx, "name pool loaded", logger.Int("names", pool.Size()), logger.Int("unused", pool.Remaining()))
	return pool, nil
}

func (s *Service) issue(u *model.MappingUser, name model.Pseudonym) {
	alias := namepool.Alias(name)
	u.ApplyPseudonym(name, alias, namepool.PrincipalName(alias, s.principalDomain))
}

// selectParticipants drops proctors and anyone whose role keeps them off
// the teams, and tags the rest with their survey preference.
func selectParticipants(roster []model.Participant, proctors []string, prefs map[string]model.Preference) ([]model.Participant, []report.Exclusion) {
	isProctor := make(map[string]bool, len(proctors))
	for _, id := range proctors {
		isProctor[id] = true
	}

	participants := make([]model.Participant, 0, len(roster))
	var excluded []report.Exclusion
	for _, p := range roster {
		switch {
		case isProctor[p.ID] || p.Role == model.RoleProctor:
			excluded = append(excluded, report.Exclusion{ID: p.ID, Name: p.Name, Reason: "proctor"})
		case !p.Role.Allocatable():
			excluded = append(excluded, report.Exclusion{ID: p.ID, Name: p.Name, Reason: strings.ToLower(string(p.Role))})
		default:
			p.Preference = prefs[p.ID]
			participants = append(participants, p)
		}
	}
	return participants, excluded
}

func recordAssignmentMetrics(asg model.Assignment, buckets map[model.Preference]int, excluded []report.Exclusion) {
	for _, pref := range []model.Preference{model.Beginner, model.Intermediate, model.Advanced, model.NoPreference} {
		metrics.RecordParticipantsAllocated(pref.String(), buckets[pref])
	}
	reasons := make(map[string]int, 2)
	for _, e := range excluded {
		reasons[e.Reason]++
	}
	for reason, n := range reasons {
		metrics.RecordParticipantsExcluded(reason, n)
	}
	metrics.ResetTeamSizes()
	for _, t := range asg.Teams {
		metrics.UpdateTeamSize(t.Number, t.Kind.String(), t.Size())
	}
}

// nextUserNumber is one past the largest numeric user number, or 1.
func nextUserNumber(users []model.MappingUser) int {
	maxNumber := 0
	for _, u := range users {
		n, err := strconv.Atoi(strings.TrimSpace(u.UserNumber))
		if err == nil && n > maxNumber {
			maxNumber = n
		}
	}
	return maxNumber + 1
}

func entryTeam(team string, role model.Role) string {
	if team = strings.TrimSpace(team); team != "" {
		return team
	}
	if role == model.RoleAuditor {
		return TeamAuditor
	}
	return TeamPending
}
