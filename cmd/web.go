package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyscout/scout/cli"
	"github.com/studyscout/scout/config"
	"github.com/studyscout/scout/internal/webview"
	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/api"
	"github.com/studyscout/scout/pkg/chat"
)

// NewWebCmd creates the `web` command.
func NewWebCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"web",
		"Serve the session to browser clients",
	)
	cmd.Long = `Runs an HTTP server exposing the conversation state: a JSON snapshot
endpoint, submit/cancel/reset actions, and a WebSocket pushing a fresh
snapshot on every change.`

	cmd.Flags().String("listen", "", "Listen address (overrides web.listen from scout.yml)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return handler.Handle(err)
		}

		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = cfg.WebListen()
		}

		client := api.NewHTTPClient(cfg.Service.BaseURL, cfg.RequestTimeout())
		defer client.Close()

		session := chat.NewSession(client, chat.Options{
			PollInterval: cfg.PollInterval(),
			PollMinGap:   cfg.PollMinGap(),
			HardTimeout:  cfg.HardTimeout(),
		})
		defer session.Close()

		server := webview.New(logging.NewLogger("webview"), session)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Settings are bound at startup; watch the config file so edits at
		// least surface a restart hint instead of silently doing nothing.
		if path := cli.ConfigPath(cmd); path != "" {
			log := logging.NewLogger("config-watch")
			watcher, err := config.NewWatcher(path, 500, log, func(path string) {
				log.Warnf("%s changed; restart scout web to apply", path)
			})
			if err != nil {
				log.WithError(err).Debug("Config watch unavailable")
			} else {
				defer watcher.Close()
				go watcher.Start(ctx)
			}
		}

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
