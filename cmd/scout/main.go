package main

import (
	"os"

	"github.com/studyscout/scout/cli"
	"github.com/studyscout/scout/cmd"
	"github.com/studyscout/scout/pkg/profiling"
	"github.com/studyscout/scout/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"scout",
		"Search and generate study material from the terminal",
	)

	info := version.GetInfo()
	rootCmd.Version = info.Version
	cli.SetVersionTemplate(rootCmd, cli.VersionInfo{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		BuildArch: info.Platform,
	})

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(rootCmd)
	rootCmd.PersistentPreRunE = profiler.PreRun
	rootCmd.PersistentPostRun = profiler.PostRun

	// Add subcommands
	rootCmd.AddCommand(cmd.NewAskCmd())
	rootCmd.AddCommand(cmd.NewChatCmd())
	rootCmd.AddCommand(cmd.NewWebCmd())
	rootCmd.AddCommand(cmd.NewDevServerCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
