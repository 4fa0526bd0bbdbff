package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyscout/scout/version"
)

// NewVersionCmd creates the `version` command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()

			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Println(info.String())
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output version info in JSON format")
	return cmd
}
