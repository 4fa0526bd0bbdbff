// Package cli provides shared command plumbing: standard flags, styled
// help, error presentation, and version output.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/studyscout/scout/config"
	"github.com/studyscout/scout/logging"
)

// CommandOptions holds the flag values common to all commands.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command with the standard flag set.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to scout.yml config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger creates a logger honoring the command's verbosity flags.
func GetLogger(cmd *cobra.Command) *logrus.Logger {
	entry := logging.NewLogger("scout-cli")
	logger := entry.Logger

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// GetOptions extracts the common flag values from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig resolves and loads configuration for a command: the --config
// flag wins, then the nearest scout.yml walking up from the working
// directory, then built-in defaults.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		return config.Load(configFile)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	found, err := config.FindConfigFile(cwd)
	if err != nil {
		return config.LoadDefault()
	}
	return config.Load(found)
}

// ConfigPath returns the config file a command's settings came from, or ""
// when only built-in defaults apply.
func ConfigPath(cmd *cobra.Command) string {
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		return configFile
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	found, err := config.FindConfigFile(cwd)
	if err != nil {
		return ""
	}
	return found
}
