package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ido50/sqlhelper"
	"github.com/ido50/sqlhelper/internal/config"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "sqlhelper",
		Short:         "Table-oriented SQL helper",
		Long:          "sqlhelper builds and runs escaped SQL against MySQL, PostgreSQL or SQLite, and serves it over HTTP.",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the configuration file (default: sqlhelper.yaml)")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newQueryCommand(a))
	cmd.AddCommand(newProceduresCommand(a))
	cmd.AddCommand(newPingCommand(a))

	return cmd
}

// open connects to the configured database. Procedure discovery follows
// the configuration unless forced.
func (a *app) open(ctx context.Context, forceProcedures bool) (*sqlhelper.DB, error) {
	helperCfg, err := a.cfg.Database.Helper()
	if err != nil {
		return nil, err
	}
	if forceProcedures {
		helperCfg.UseProcedures = true
	}

	return sqlhelper.Open(ctx, helperCfg, sqlhelper.WithLogger(a.logger))
}
