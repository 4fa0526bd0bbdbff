package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/studyscout/scout/tui/theme"
)

const (
	helpMaxWidth = 60
	helpMinWidth = 40
)

// SetStyledHelp applies themed help output to a command. Call it on the
// root command; cobra inherits the help function in subcommands.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// PrintError prints a styled error with a help hint.
func PrintError(cmd *cobra.Command, err error) {
	t := theme.DefaultTheme
	fmt.Fprintln(os.Stderr, t.Error.Render("Error: ")+err.Error())
	fmt.Fprintf(os.Stderr, "Run \"%s --help\" for usage.\n", cmd.CommandPath())
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	t := theme.DefaultTheme
	width := helpWidth()

	fmt.Println(t.Header.Render(cmd.CommandPath()))
	if cmd.Short != "" {
		fmt.Println(" " + cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Println()
		for _, line := range strings.Split(wrapText(cmd.Long, width), "\n") {
			fmt.Println(" " + line)
		}
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		fmt.Println("\n " + t.Title.Render("USAGE"))
		if cmd.Runnable() {
			fmt.Printf(" %s\n", cmd.UseLine())
		}
		if cmd.HasSubCommands() {
			fmt.Printf(" %s [command]\n", cmd.CommandPath())
		}
	}

	if cmd.HasAvailableSubCommands() {
		maxLen := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() && len(sub.Name()) > maxLen {
				maxLen = len(sub.Name())
			}
		}
		fmt.Println("\n " + t.Title.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				padding := strings.Repeat(" ", maxLen-len(sub.Name()))
				fmt.Printf(" %s%s  %s\n", t.Accent.Render(sub.Name()), padding, sub.Short)
			}
		}
	}

	var flags []*pflag.Flag
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	})
	if len(flags) > 0 {
		fmt.Println("\n " + t.Title.Render("FLAGS"))
		maxLen := 0
		for _, f := range flags {
			if len(flagName(f)) > maxLen {
				maxLen = len(flagName(f))
			}
		}
		for _, f := range flags {
			name := flagName(f)
			padding := strings.Repeat(" ", maxLen-len(name))
			usage := f.Usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
				usage += t.Muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
			}
			fmt.Printf(" %s%s  %s\n", t.Accent.Render(name), padding, usage)
		}
	}

	if cmd.Example != "" {
		fmt.Println("\n " + t.Title.Render("EXAMPLES"))
		for _, line := range strings.Split(strings.TrimSpace(cmd.Example), "\n") {
			fmt.Println(" " + strings.TrimSpace(line))
		}
	}

	if cmd.HasSubCommands() {
		fmt.Printf("\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}

func helpWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < helpMinWidth {
		return helpMaxWidth
	}
	if width > helpMaxWidth {
		return helpMaxWidth
	}
	return width
}

// wrapText wraps text to width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = helpMaxWidth
	}
	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
