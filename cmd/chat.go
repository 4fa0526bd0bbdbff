package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/studyscout/scout/cli"
	"github.com/studyscout/scout/config"
	"github.com/studyscout/scout/internal/tui"
	"github.com/studyscout/scout/logging"
	"github.com/studyscout/scout/pkg/api"
	"github.com/studyscout/scout/pkg/chat"
	scouttui "github.com/studyscout/scout/tui"
)

// NewChatCmd creates the `chat` command.
func NewChatCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"chat",
		"Open the interactive chat interface",
	)
	cmd.Long = `Launches a terminal conversation with the service. Search queries
resolve inline; document generation shows live progress and a download
reference when the job finishes.`

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return handler.Handle(err)
		}

		scouttui.InitializeTUI()

		client := api.NewHTTPClient(cfg.Service.BaseURL, cfg.RequestTimeout())
		defer client.Close()

		session := chat.NewSession(client, chat.Options{
			PollInterval: cfg.PollInterval(),
			PollMinGap:   cfg.PollMinGap(),
			HardTimeout:  cfg.HardTimeout(),
		})
		defer session.Close()

		// Poll tunables follow config edits: reloaded values apply to
		// the next submitted job.
		if path := cli.ConfigPath(cmd); path != "" {
			log := logging.NewLogger("config-watch")
			watcher, err := config.NewWatcher(path, 500, log, func(path string) {
				reloaded, err := config.Load(path)
				if err != nil {
					log.WithError(err).Warn("Ignoring invalid config change")
					return
				}
				session.UpdateOptions(chat.Options{
					PollInterval: reloaded.PollInterval(),
					PollMinGap:   reloaded.PollMinGap(),
					HardTimeout:  reloaded.HardTimeout(),
				})
			})
			if err != nil {
				log.WithError(err).Debug("Config watch unavailable")
			} else {
				defer watcher.Close()
				ctx, cancelWatch := context.WithCancel(context.Background())
				defer cancelWatch()
				go watcher.Start(ctx)
			}
		}

		return tui.Run(session, client)
	}

	return cmd
}
