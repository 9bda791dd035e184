package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	var exec bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a raw SQL query and print its rows",
		Long: `Run SQL text as-is against the configured database. Use --exec for
statements that don't return rows, to print the number of affected rows
instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			stmt := db.Raw(strings.Join(args, " "))

			if exec {
				res, err := stmt.Exec(ctx)
				if err != nil {
					printError(out, "%v", err)
					return err
				}
				printSuccess(out, "%d row(s) affected", res.RowsAffected)
				return nil
			}

			rows, err := stmt.Execute(ctx)
			if err != nil {
				printError(out, "%v", err)
				return err
			}
			return printRows(out, rows)
		},
	}

	cmd.Flags().BoolVarP(&exec, "exec", "e", false, "run a statement that returns no rows")

	return cmd
}
