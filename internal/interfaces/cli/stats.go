package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/patreg-insight/internal/application/stats"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/patreg-insight/internal/infrastructure/database/postgres/repositories"
)

func newStatsCmd() *cobra.Command {
	var filterID int64

	cmd := &cobra.Command{
		Use:   "stats {patents|persons}",
		Short: "Print aggregate statistics over the loaded registry data",
		Long: "Stats computes totals, percentages and per-group counts for the chosen\n" +
			"entity, optionally restricted to the companies of a saved filter and the\n" +
			"patents they hold. All figures come from one consistent database snapshot.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"patents", "persons"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := getCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := postgres.Connect(ctx, cliCtx.Config.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := stats.NewService(
				repositories.NewStatsQuerier(pool),
				repositories.NewFilterRepository(pool, cliCtx.Logger),
				cliCtx.Logger,
			)

			scope := stats.Scope{}
			if cmd.Flags().Changed("filter-id") {
				scope.FilterID = &filterID
			}

			switch args[0] {
			case "patents":
				result, err := svc.PatentStats(ctx, scope)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			case "persons":
				result, err := svc.PersonStats(ctx, scope)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			default:
				return cmd.Usage()
			}
		},
	}

	cmd.Flags().Int64Var(&filterID, "filter-id", 0, "restrict statistics to the given saved filter")
	return cmd
}
