package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyscout/scout/cli"
	"github.com/studyscout/scout/internal/devserver"
	"github.com/studyscout/scout/logging"
)

// NewDevServerCmd creates the `dev-server` command.
func NewDevServerCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"dev-server",
		"Run a local stand-in for the remote service",
	)
	cmd.Long = `Starts a fake search/generation service on localhost. Useful for
trying the client without network access: queries return canned results
and generation requests run a timed fake job ending in a placeholder PDF.`

	cmd.Flags().String("listen", "localhost:3049", "Listen address")
	cmd.Flags().Duration("job-duration", 20*time.Second, "How long fake generation jobs take")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		listen, _ := cmd.Flags().GetString("listen")
		jobDuration, _ := cmd.Flags().GetDuration("job-duration")

		server := devserver.New(logging.NewLogger("devserver"), jobDuration)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe(listen)
		}()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return handler.Handle(err)
			}
			return nil
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	}

	return cmd
}
