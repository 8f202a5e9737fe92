// Package cli wires configuration, logging and metrics around the workshop
// workflows and exposes them as cobra commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
}

// NewRootCommand builds the teamforge command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "teamforge",
		Short: "Balanced workshop team assignments",
		Long: `teamforge places workshop participants on teams by challenge preference.

Advanced participants fill advanced-only teams; everyone else is pooled and
spread evenly over mixed teams. Runs are deterministic for a given seed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default is $TEAMFORGE_CONFIG)")

	rootCmd.AddCommand(
		newAssignCmd(opts),
		newSyncMappingCmd(opts),
		newAddParticipantCmd(opts),
		newGenerateSampleCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command, cancelling on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
