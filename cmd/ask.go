package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyscout/scout/cli"
	"github.com/studyscout/scout/pkg/api"
	"github.com/studyscout/scout/pkg/chat"
	"github.com/studyscout/scout/tui/theme"
	"github.com/studyscout/scout/util/pathutil"
	"github.com/studyscout/scout/util/sanitize"
)

// NewAskCmd creates the `ask` command.
func NewAskCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"ask [query...]",
		"Submit one query and print the outcome",
	)
	cmd.Long = `Sends a single free-text query to the service and waits for it to
resolve: ranked search results are printed as a list, and generated
documents are downloaded to --output or a name derived from the query.`
	cmd.Example = `  scout ask limits review
  scout ask generate practice exam --output exam.pdf`
	cmd.Args = cobra.MinimumNArgs(1)

	cmd.Flags().StringP("output", "o", "", "Write a generated document to this path")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return handler.Handle(err)
		}

		client := api.NewHTTPClient(cfg.Service.BaseURL, cfg.RequestTimeout())
		defer client.Close()

		session := chat.NewSession(client, chat.Options{
			PollInterval: cfg.PollInterval(),
			PollMinGap:   cfg.PollMinGap(),
			HardTimeout:  cfg.HardTimeout(),
		})
		defer session.Close()

		query := strings.Join(args, " ")
		session.Submit(query)

		snap, err := waitForOutcome(session, cfg.HardTimeout()+cfg.RequestTimeout())
		if err != nil {
			return handler.Handle(err)
		}

		if opts.JSONOutput {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if snap.State == chat.StateFailed {
			printOutcome(snap)
			os.Exit(1)
		}
		printOutcome(snap)

		if ref := artifactRef(snap); ref != "" {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = defaultArtifactName(query)
			}
			output, err := pathutil.Expand(output)
			if err != nil {
				return handler.Handle(err)
			}
			if err := downloadArtifact(client, ref, output); err != nil {
				return handler.Handle(err)
			}
		}
		return nil
	}

	return cmd
}

// waitForOutcome blocks until the session settles or the overall budget
// runs out. The budget only guards against a wedged subscription; the
// session enforces its own timeouts.
func waitForOutcome(session *chat.Session, budget time.Duration) (chat.Snapshot, error) {
	sub := session.Subscribe()
	defer session.Unsubscribe(sub)

	deadline := time.NewTimer(budget)
	defer deadline.Stop()

	for {
		select {
		case snap, ok := <-sub:
			if !ok {
				return chat.Snapshot{}, fmt.Errorf("session closed before the query resolved")
			}
			if snap.State == chat.StateReady || snap.State == chat.StateFailed {
				return snap, nil
			}
		case <-deadline.C:
			return chat.Snapshot{}, fmt.Errorf("query did not resolve within %s", budget)
		}
	}
}

func printOutcome(snap chat.Snapshot) {
	t := theme.DefaultTheme
	for _, msg := range snap.Transcript {
		if msg.Author != chat.AuthorSystem {
			continue
		}
		switch msg.Kind {
		case chat.KindErrorNotice:
			fmt.Fprintln(os.Stderr, t.Error.Render(msg.Text))
		case chat.KindFileReady:
			fmt.Println(t.Success.Render(msg.Text))
			if msg.ArtifactRef != "" {
				fmt.Println("  " + t.Muted.Render(msg.ArtifactRef))
			}
		case chat.KindProgressUpdate:
			// Skipped; only the settled outcome matters here.
		default:
			fmt.Println(msg.Text)
			for i, item := range msg.Results {
				fmt.Printf("  %d. %s %s\n", i+1, item.Title,
					t.Muted.Render(fmt.Sprintf("(%.1f)", item.RelevanceScore)))
				if item.URL != "" {
					fmt.Println("     " + t.Info.Render(item.URL))
				}
			}
		}
	}
}

// defaultArtifactName derives a filename from the query text when --output
// was not given.
func defaultArtifactName(query string) string {
	name := sanitize.ForFilename(query)
	if name == "" {
		name = "scout-artifact"
	}
	return name + ".pdf"
}

func artifactRef(snap chat.Snapshot) string {
	for i := len(snap.Transcript) - 1; i >= 0; i-- {
		if snap.Transcript[i].Kind == chat.KindFileReady {
			return snap.Transcript[i].ArtifactRef
		}
	}
	return ""
}

func downloadArtifact(client *api.HTTPClient, ref, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	data, err := client.FetchArtifact(ctx, ref)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Saved %s (%s)\n", path, cli.FormatFileSize(int64(len(data))))
	return nil
}
