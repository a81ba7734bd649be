package cli

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/catalog"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List downloaded scenes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ids, err := catalog.New(cfg).List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			cmd.Printf("No scenes found in %s\n", cfg.ImageDir)
			return nil
		}
		cmd.Println("Available scenes:")
		for _, id := range ids {
			cmd.Printf("- %s\n", id)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [scene-id]",
	Short: "Check whether a scene still needs downloading",
	Long: `Exits with an error when imagery for the scene is already present in
the image directory, so downloads can be skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := catalog.New(cfg)
		if err := c.EnsureAbsent(args[0]); err != nil {
			if errors.Is(err, catalog.ErrAlreadyExists) {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "Scene %s is already downloaded at %s\n", args[0], c.SceneDir(args[0]))
			}
			return err
		}
		cmd.Printf("Scene %s is not downloaded yet, expected at %s\n", args[0], c.SceneDir(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenesCmd, checkCmd)
}
