package cli

import (
	"context"

	"github.com/google/uuid"
	repository "github.com/okian/teamforge/internal/adapters/repository"
	service "github.com/okian/teamforge/internal/app"
	"github.com/okian/teamforge/internal/config"
	"github.com/okian/teamforge/internal/domain/allocator"
	"github.com/okian/teamforge/pkg/logger"
	"github.com/okian/teamforge/pkg/metrics"
	"github.com/spf13/cobra"
)

// workflow is the body of a command once the service is built.
type workflow func(ctx context.Context, cfg *config.Config, svc *service.Service) error

// run loads configuration, sets up logging, builds the service and runs fn.
// Every invocation gets a run id that tags its log lines and metrics.
func (o *rootOptions) run(cmd *cobra.Command, fn workflow) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, o.configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	runID := uuid.NewString()
	log := logger.Get().With(logger.String("run_id", runID), logger.String("command", cmd.Name()))
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log, cmd)
	err = fn(ctx, cfg, svc)
	if err != nil {
		log.Error(ctx, "command failed", logger.Error(err))
	}

	metrics.RecordRun(runID, cmd.Name(), cfg.Seed, err)
	if cfg.MetricsFile != "" {
		path := cfg.Path(cfg.MetricsFile)
		if werr := metrics.WriteTextfile(path); werr != nil {
			log.Warn(ctx, "metrics textfile not written", logger.String("file", path), logger.Error(werr))
		}
	}
	return err
}

func newService(cfg *config.Config, log logger.Logger, cmd *cobra.Command) *service.Service {
	store := repository.NewCSVStore(
		repository.WithDuplicatePolicy(repository.ParseDuplicatePolicy(cfg.DuplicatePolicy)),
		repository.WithLogger(log.Named("repository")),
	)
	alloc := allocator.New(
		allocator.WithTopology(allocator.Topology{
			AdvancedSlots:   cfg.AdvancedTeams,
			MixedSlots:      cfg.MixedTeams,
			FirstTeamNumber: cfg.FirstTeamNumber,
		}),
		allocator.WithSeed(cfg.Seed),
		allocator.WithLogger(log.Named("allocator")),
	)
	return service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithAllocator(alloc),
		service.WithPaths(service.Paths{
			Roster:    cfg.Path(cfg.RosterFile),
			Survey:    cfg.Path(cfg.SurveyFile),
			Proctors:  cfg.Path(cfg.ProctorsFile),
			Teams:     cfg.Path(cfg.TeamsFile),
			Mapping:   cfg.Path(cfg.MappingFile),
			NamePools: cfg.NamePoolPaths(),
		}),
		service.WithPrincipalDomain(cfg.PrincipalDomain),
		service.WithOutput(cmd.OutOrStdout()),
	)
}
