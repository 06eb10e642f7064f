package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vaultview/internal/config"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run server discovery and print each step",
	Long: `Run the server discovery chain without starting the UI and print the
outcome of every step: the MSGVAULT_HOME override, known config file
locations, and common localhost ports.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := config.NewDiscoverer().Discover(cmd.Context())

		for _, step := range result.Steps {
			var mark string
			switch step.Status {
			case config.StepFound:
				mark = "✓"
			case config.StepFailed:
				mark = "✗"
			default:
				mark = "-"
			}
			line := fmt.Sprintf("%s %s", mark, step.Name)
			if step.Detail != "" {
				line += ": " + step.Detail
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}

		if !result.Found() {
			fmt.Fprintln(cmd.OutOrStdout(), "\nNo server found. Run vaultview to configure one interactively.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nServer: %s\n", result.ServerURL)
		if result.Path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "From:   %s\n", result.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
