package main

import (
	"errors"

	"github.com/ido50/sqlhelper"
	"github.com/spf13/cobra"
)

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.HealthCheck(ctx); err != nil {
				var connErr *sqlhelper.ConnectionError
				if errors.As(err, &connErr) {
					printError(out, "%s.", connErr.Code.Message())
				} else {
					printError(out, "%v", err)
				}
				return err
			}

			stats := db.PoolStats()
			printSuccess(out, "Database '%s' connected (%s)", a.cfg.Database.Name, db.Dialect())
			printInfo(out, "  open connections: %d, max: %d", stats.OpenConnections, stats.MaxOpenConnections)
			return nil
		},
	}
}
