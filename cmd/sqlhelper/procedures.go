package main

import (
	"github.com/spf13/cobra"
)

func newProceduresCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "procedures",
		Short: "List the stored procedures of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer db.Close()

			names := db.Procedures().Names()
			if len(names) == 0 {
				printWarning(out, "no stored procedures found")
				return nil
			}

			for _, name := range names {
				printInfo(out, "  • %s", name)
			}
			return nil
		},
	}

	cmd.AddCommand(newCallCommand(a))

	return cmd
}

func newCallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <name> [args...]",
		Short: "Call a stored procedure with escaped string arguments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			db, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer db.Close()

			params := make([]interface{}, 0, len(args)-1)
			for _, arg := range args[1:] {
				params = append(params, arg)
			}

			rows, err := db.Call(ctx, args[0], params...)
			if err != nil {
				printError(out, "%v", err)
				return err
			}
			return printRows(out, rows)
		},
	}
}
