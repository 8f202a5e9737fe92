// Package config defines the teamforge configuration and its defaults.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and TEAMFORGE_* env vars on top.
// - All functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig, loading failures ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Duplicate identity policies.
const (
	DuplicatePolicyError = "error"
	DuplicatePolicyWarn  = "warn"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Seed drives every shuffle of a run. Same seed, same teams.
	Seed int64 `koanf:"seed"`

	// AdvancedTeams is the number of advanced-only team slots.
	AdvancedTeams int `koanf:"advanced_teams"`

	// MixedTeams is the number of mixed (beginner/intermediate) team slots.
	MixedTeams int `koanf:"mixed_teams"`

	// FirstTeamNumber is the number given to the first advanced team.
	FirstTeamNumber int `koanf:"first_team_number"`

	// DataDir is prepended to every relative file name below.
	DataDir string `koanf:"data_dir"`

	RosterFile   string `koanf:"roster_file"`
	SurveyFile   string `koanf:"survey_file"`
	ProctorsFile string `koanf:"proctors_file"`
	TeamsFile    string `koanf:"teams_file"`
	MappingFile  string `koanf:"mapping_file"`

	// NamePoolFiles lists pseudonym pool CSVs, consumed in order.
	NamePoolFiles []string `koanf:"name_pool_files"`

	// PrincipalDomain is appended to generated aliases, e.g. alias@domain.
	PrincipalDomain string `koanf:"principal_domain"`

	// DuplicatePolicy is "error" or "warn".
	DuplicatePolicy string `koanf:"duplicate_policy"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Seed:            42,
		AdvancedTeams:   4,
		MixedTeams:      20,
		FirstTeamNumber: 1,
		DataDir:         ".",
		RosterFile:      "participant-assignments.csv",
		SurveyFile:      "challenge-survey-responses.csv",
		ProctorsFile:    "proctors-final.csv",
		TeamsFile:       "teams-final.csv",
		MappingFile:     "workshop-user-mapping.csv",
		NamePoolFiles: []string{
			"FNF-2025-10-28-00059-0262.csv",
			"FNF-2025-10-28-00060-0901.csv",
		},
		PrincipalDomain: "fabrikam1.csplevelup.com",
		DuplicatePolicy: DuplicatePolicyError,
	}
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate(_ context.Context) error {
	if c.AdvancedTeams < 0 {
		return fmt.Errorf("%w: advanced_teams must not be negative", ErrInvalidConfig)
	}
	if c.MixedTeams < 0 {
		return fmt.Errorf("%w: mixed_teams must not be negative", ErrInvalidConfig)
	}
	if c.AdvancedTeams+c.MixedTeams == 0 {
		return fmt.Errorf("%w: at least one team slot is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.RosterFile) == "" {
		return fmt.Errorf("%w: roster_file must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.TeamsFile) == "" {
		return fmt.Errorf("%w: teams_file must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.MappingFile) == "" {
		return fmt.Errorf("%w: mapping_file must not be empty", ErrInvalidConfig)
	}
	switch c.DuplicatePolicy {
	case DuplicatePolicyError, DuplicatePolicyWarn:
	default:
		return fmt.Errorf("%w: duplicate_policy must be %q or %q, got %q",
			ErrInvalidConfig, DuplicatePolicyError, DuplicatePolicyWarn, c.DuplicatePolicy)
	}
	return nil
}

// Path resolves name against DataDir. Empty names stay empty and absolute
// names are returned unchanged.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// NamePoolPaths resolves every configured pool file against DataDir.
func (c *Config) NamePoolPaths() []string {
	paths := make([]string, 0, len(c.NamePoolFiles))
	for _, name := range c.NamePoolFiles {
		if strings.TrimSpace(name) == "" {
			continue
		}
		paths = append(paths, c.Path(name))
	}
	return paths
}
