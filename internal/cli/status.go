package cli

import (
	"github.com/spf13/cobra"

	"github.com/tbourn/go-gift-exchange/internal/config"
	"github.com/tbourn/go-gift-exchange/internal/services"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the state of the draw",
		Long: `Print whether the assignment has been drawn, when, and for how many
participants. The scheduler is not armed and nothing is written besides
schema migrations.

Example:
  giftexchange status
  giftexchange status --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitConfigError, "invalid configuration", err)
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return WrapExitError(ExitFailure, "database", err)
			}
			defer closeDatabase(db)

			st, err := services.NewScheduler(db, cfg.Deadline).Status(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "read status", err)
			}
			return writeStatus(cmd.OutOrStdout(), rootOpts.Format, st)
		},
	}
}
