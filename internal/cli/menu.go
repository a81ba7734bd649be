package cli

import (
	"github.com/spf13/cobra"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/ui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start the interactive menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ui.PrintBanner(cmd.OutOrStdout())
		return ui.NewMenu(cmd.InOrStdin(), cmd.OutOrStdout(), newRunner(cmd)).Show()
	},
}

func init() {
	rootCmd.AddCommand(menuCmd)
	// Without a subcommand the menu starts.
	rootCmd.Args = cobra.NoArgs
	rootCmd.RunE = menuCmd.RunE
}
