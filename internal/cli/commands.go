package cli

import (
	"context"
	"fmt"

	service "github.com/okian/teamforge/internal/app"
	"github.com/okian/teamforge/internal/config"
	"github.com/okian/teamforge/internal/domain/model"
	"github.com/okian/teamforge/internal/sample"
	"github.com/spf13/cobra"
)

func newAssignCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign",
		Short: "Allocate participants to teams and write the teams file",
		Long: `Reads the roster, the challenge survey and the proctor list, keeps
proctors and auditors off the teams, allocates everyone else and writes the
teams file. The team composition report is printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, _ *config.Config, svc *service.Service) error {
				_, err := svc.Assign(ctx)
				return err
			})
		},
	}
}

func newSyncMappingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-mapping",
		Short: "Copy team assignments into the workshop user mapping",
		Long: `Updates Team and ChallengeLevel of every mapped user found in the teams
file and issues unused pseudonyms to users that have none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, _ *config.Config, svc *service.Service) error {
				_, err := svc.SyncMapping(ctx)
				return err
			})
		},
	}
}

type addParticipantFlags struct {
	name    string
	alias   string
	email   string
	country string
	role    string
	level   string
	team    string
}

func newAddParticipantCmd(opts *rootOptions) *cobra.Command {
	f := &addParticipantFlags{}
	cmd := &cobra.Command{
		Use:   "add-participant",
		Short: "Append a late registration to the workshop user mapping",
		Example: `  teamforge add-participant --name "Jason Thorwall" --alias JATHORWA \
    --email jathorwa@example.com --country "United States" --level Intermediate
  teamforge add-participant --name "Yara Chia" --email yara@example.com --role Auditor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := f.entry()
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, _ *config.Config, svc *service.Service) error {
				_, err := svc.AddParticipants(ctx, []service.Entry{entry})
				return err
			})
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&f.alias, "alias", "", "corporate alias")
	cmd.Flags().StringVar(&f.email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&f.country, "country", "", "country")
	cmd.Flags().StringVar(&f.role, "role", string(model.RoleParticipant), "Participant, Proctor or Auditor")
	cmd.Flags().StringVar(&f.level, "level", "", "challenge level: Beginner, Intermediate, Advanced")
	cmd.Flags().StringVar(&f.team, "team", "", "team label (default TBD, Auditor for auditors)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (f *addParticipantFlags) entry() (service.Entry, error) {
	level, ok := model.ParsePreference(f.level)
	if !ok {
		return service.Entry{}, fmt.Errorf("%w: unknown challenge level %q", service.ErrInvalidEntry, f.level)
	}
	return service.Entry{
		Name:    f.name,
		Alias:   f.alias,
		Email:   f.email,
		Country: f.country,
		Role:    model.ParseRole(f.role),
		Level:   level,
		Team:    f.team,
	}, nil
}

func newGenerateSampleCmd(opts *rootOptions) *cobra.Command {
	cfg := sample.Config{}
	cmd := &cobra.Command{
		Use:   "generate-sample",
		Short: "Write a synthetic roster, survey and proctor list",
		Long: `Generates a reproducible fake workshop into the configured roster, survey
and proctor files so that assign can be rehearsed before real registrations
arrive. The configured seed drives the generator. Existing files are
overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, c *config.Config, svc *service.Service) error {
				cfg.Seed = c.Seed
				_, err := svc.GenerateSample(ctx, cfg)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&cfg.Participants, "participants", 80, "number of participants")
	cmd.Flags().IntVar(&cfg.Proctors, "proctors", 3, "number of proctors")
	cmd.Flags().IntVar(&cfg.Auditors, "auditors", 1, "number of auditors")
	cmd.Flags().StringVar(&cfg.Domain, "domain", "example.com", "email domain of generated people")
	return cmd
}
