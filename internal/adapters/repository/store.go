// Package repository reads workshop sources and writes exports as CSV files.
package repository

import (
	"context"

	"github.com/okian/teamforge/internal/domain/model"
)

// RosterSource supplies participant records, one per roster row.
type RosterSource interface {
	LoadRoster(ctx context.Context, path string) ([]model.Participant, error)
}

// PreferenceSource supplies survey answers keyed by participant id. A
// participant without an entry has no preference.
type PreferenceSource interface {
	LoadPreferences(ctx context.Context, path string) (map[string]model.Preference, error)
}

// ProctorSource supplies the ids of proctors. An empty path means there is
// no proctor list.
type ProctorSource interface {
	LoadProctors(ctx context.Context, path string) ([]string, error)
}

// NamePoolSource supplies pseudonyms from one or more pool files; missing
// files are skipped.
type NamePoolSource interface {
	LoadNamePool(ctx context.Context, paths []string) ([]model.Pseudonym, error)
}

// RosterSink writes a roster in the format RosterSource reads.
type RosterSink interface {
	WriteRoster(ctx context.Context, path string, roster []model.Participant) error
}

// PreferenceSink writes survey answers, ordered by id.
type PreferenceSink interface {
	WritePreferences(ctx context.Context, path string, prefs map[string]model.Preference) error
}

// ProctorSink writes a proctor list.
type ProctorSink interface {
	WriteProctors(ctx context.Context, path string, ids []string) error
}

// AssignmentSink renders an assignment, one row per member.
type AssignmentSink interface {
	WriteAssignment(ctx context.Context, path string, asg model.Assignment) error
}

// TeamSource reads a previously written assignment back.
type TeamSource interface {
	LoadTeams(ctx context.Context, path string) ([]model.TeamRecord, error)
}

// MappingStore reads and writes the workshop user mapping.
type MappingStore interface {
	LoadMapping(ctx context.Context, path string) ([]model.MappingUser, error)
	WriteMapping(ctx context.Context, path string, users []model.MappingUser) error
}

// Store is every source and sink the workflows need.
type Store interface {
	RosterSource
	RosterSink
	PreferenceSource
	PreferenceSink
	ProctorSource
	ProctorSink
	NamePoolSource
	AssignmentSink
	TeamSource
	MappingStore
}
