package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ido50/sqlhelper/dispatch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the table and procedure controllers over HTTP",
		Long: `Start an HTTP server dispatching /:controller/:action requests.
The following controllers are registered:

  health        database health and pool statistics
  table         expose, exist, insert, update and delete rows
  procedures    list and call discovered stored procedures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: server.addr)")

	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	db, err := a.open(ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if a.cfg.Log.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := dispatch.NewRouter(db, dispatch.WithLogger(a.logger)).
		Register("health", dispatch.HealthController()).
		Register("table", dispatch.TableController()).
		Register("procedures", dispatch.ProcedureController())

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
