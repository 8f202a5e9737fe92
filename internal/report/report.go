// Package report renders human readable summaries of teamforge runs.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/okian/teamforge/internal/domain/model"
)

// Exclusion is a roster entry kept off the teams and why.
type Exclusion struct {
	ID     string
	Name   string
	Reason string // lower-cased role, e.g. "proctor" or "auditor"
}

// AssignmentSummary is everything the assign report prints.
type AssignmentSummary struct {
	Assignment model.Assignment
	// Buckets counts allocated participants per preference before placement.
	Buckets  map[model.Preference]int
	Excluded []Exclusion
	OutFile  string
}

// MappingChange is one user whose team or level changed during a sync.
type MappingChange struct {
	Name     string
	OldTeam  string
	NewTeam  string
	OldLevel string
	NewLevel string
}

// NameIssued is a pseudonym handed to a user.
type NameIssued struct {
	RealName   string
	Pseudonym  string
	UserNumber string
	Note       string
}

// MappingSummary is everything the sync-mapping and add-participant reports
// print.
type MappingSummary struct {
	Changes  []MappingChange
	Issued   []NameIssued
	Users    []model.MappingUser
	PoolLeft int
	OutFile  string
}

// Renderer writes styled reports. Styling degrades to plain text when the
// writer is not a terminal.
type Renderer struct {
	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
}

// NewRenderer creates a renderer whose color profile is detected from w.
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// Assignment prints the team composition and statistics of an allocation.
func (r *Renderer) Assignment(w io.Writer, s AssignmentSummary) error {
	p := &printer{w: w}
	asg := s.Assignment

	p.line(r.heading.Render("=== WORKSHOP TEAM ASSIGNMENTS ==="))
	p.line("")
	total := 0
	for _, n := range s.Buckets {
		total += n
	}
	p.linef("Total Participants: %d", total)
	for _, pref := range []model.Preference{model.Beginner, model.Intermediate, model.Advanced, model.NoPreference} {
		p.linef("  - %s preference: %d", pref, s.Buckets[pref])
	}
	p.line("")

	p.line(r.heading.Render("=== TEAM COMPOSITION ==="))
	p.line("")
	for _, team := range asg.Teams {
		p.linef("%s - %d members", r.label.Render(fmt.Sprintf("Team %02d (%s)", team.Number, team.Kind)), team.Size())
		p.linef("  Preferences: %s", preferenceSummary(team))
		for _, m := range team.Members {
			p.line(r.muted.Render(fmt.Sprintf("    - %-30s (%-15s) [%s]", m.Participant.Name, m.Participant.Alias, m.Preference)))
		}
		p.line("")
	}

	p.line(r.heading.Render("=== SUMMARY STATISTICS ==="))
	p.linef("Total participants in teams: %d", asg.TotalMembers())
	p.linef("Advanced-focused teams: %d", len(asg.TeamsOfKind(model.KindAdvanced)))
	p.linef("Mixed (Beg/Int) teams: %d", len(asg.TeamsOfKind(model.KindMixed)))
	if minSize, maxSize, avg, ok := teamSizeStats(asg.Teams); ok {
		p.linef("Team sizes: Min=%d, Max=%d, Avg=%.1f", minSize, maxSize, avg)
	}

	if len(s.Excluded) > 0 {
		p.line("")
		p.line(r.heading.Render("=== EXCLUDED FROM TEAMS ==="))
		for _, reason := range exclusionReasons(s.Excluded) {
			var names []string
			for _, e := range s.Excluded {
				if e.Reason == reason {
					names = append(names, e.ID)
				}
			}
			if len(names) == 0 {
				continue
			}
			sort.Strings(names)
			p.linef("%s:", plural(titleCase(reason)))
			for _, id := range names {
				p.linef("  - %s", id)
			}
		}
	}

	if s.OutFile != "" {
		p.line("")
		p.line(r.ok.Render("Team assignments written to: " + s.OutFile))
	}
	return p.err
}

// Mapping prints the outcome of a mapping update.
func (r *Renderer) Mapping(w io.Writer, s MappingSummary) error {
	p := &printer{w: w}

	if len(s.Changes) > 0 {
		p.line(r.heading.Render("=== UPDATED USERS ==="))
		for _, c := range s.Changes {
			p.linef("  Updated %-30s - Team: %-3s -> %-3s, Level: %-15s -> %s",
				c.Name, c.OldTeam, c.NewTeam, c.OldLevel, c.NewLevel)
		}
		p.line("")
	}

	if len(s.Issued) > 0 {
		p.line(r.heading.Render("=== PSEUDONYMS ISSUED ==="))
		for _, n := range s.Issued {
			line := fmt.Sprintf("  %-30s -> %s", n.RealName, n.Pseudonym)
			if n.UserNumber != "" {
				line = fmt.Sprintf("  User %s: %-30s -> %s", n.UserNumber, n.RealName, n.Pseudonym)
			}
			if n.Note != "" {
				line += " [" + n.Note + "]"
			}
			p.line(line)
		}
		p.line("")
	}

	withTeam, proctors, auditors, pending := 0, 0, 0, 0
	for _, u := range s.Users {
		switch {
		case u.Team == "TBD":
			pending++
		case u.Team != "" && u.Team != "team-00" && u.Role != string(model.RoleAuditor):
			withTeam++
		}
		switch model.ParseRole(u.Role) {
		case model.RoleProctor:
			proctors++
		case model.RoleAuditor:
			auditors++
		}
	}

	p.line(r.heading.Render("=== SUMMARY ==="))
	p.linef("  - Team/Level updates: %d", len(s.Changes))
	p.linef("  - New names assigned: %d", len(s.Issued))
	p.linef("  - Names left in pool: %d", s.PoolLeft)
	p.linef("  - Total users: %d", len(s.Users))
	p.linef("  - Users with teams: %d", withTeam)
	p.linef("  - Proctors: %d", proctors)
	p.linef("  - Auditors: %d", auditors)
	p.linef("  - Pending team assignment: %d", pending)

	if s.OutFile != "" {
		p.line("")
		p.line(r.ok.Render("Workshop mapping written to: " + s.OutFile))
	}
	return p.err
}

func preferenceSummary(team model.Team) string {
	counts := team.PreferenceCounts()
	labels := make([]string, 0, len(counts))
	byLabel := make(map[string]int, len(counts))
	for pref, n := range counts {
		labels = append(labels, pref.String())
		byLabel[pref.String()] = n
	}
	sort.Strings(labels)
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s: %d", l, byLabel[l])
	}
	return strings.Join(parts, ", ")
}

// teamSizeStats covers teams with at least one member.
func teamSizeStats(teams []model.Team) (int, int, float64, bool) {
	minSize, maxSize, sum, filled := 0, 0, 0, 0
	for _, t := range teams {
		n := t.Size()
		if n == 0 {
			continue
		}
		if filled == 0 || n < minSize {
			minSize = n
		}
		if n > maxSize {
			maxSize = n
		}
		sum += n
		filled++
	}
	if filled == 0 {
		return 0, 0, 0, false
	}
	return minSize, maxSize, float64(sum) / float64(filled), true
}

// exclusionReasons lists proctors and auditors first, then any other
// reasons alphabetically.
func exclusionReasons(excluded []Exclusion) []string {
	reasons := []string{"proctor", "auditor"}
	var other []string
	seen := map[string]bool{"proctor": true, "auditor": true}
	for _, e := range excluded {
		if !seen[e.Reason] {
			seen[e.Reason] = true
			other = append(other, e.Reason)
		}
	}
	sort.Strings(other)
	return append(reasons, other...)
}

func plural(s string) string {
	for _, suffix := range []string{"s", "x", "ch", "sh"} {
		if strings.HasSuffix(s, suffix) {
			return s + "es"
		}
	}
	return s + "s"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// printer remembers the first write error so render code can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s+"\n")
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}
