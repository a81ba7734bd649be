// Package cli wires the scene operations to cobra commands.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/delivery"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/notification"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/properties"
)

var (
	version = "dev"

	configFile string
	verbose    bool

	cfg properties.Config
)

var rootCmd = &cobra.Command{
	Use:   "maxsatt",
	Short: "Process downloaded Sentinel-2 scenes",
	Long: `Builds true color composites and normalized difference indices
(NDVI, NDWI) from the band files of downloaded Sentinel-2 scenes.
Outputs are GeoTIFFs that keep the footprint of their source bands.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := properties.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logrus.SetOutput(cmd.ErrOrStderr())
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	return nil
}

func newRunner(cmd *cobra.Command) *delivery.Runner {
	return delivery.NewRunner(cfg,
		delivery.WithNotifier(notification.NewDiscord(cfg)),
		delivery.WithProgress(cmd.ErrOrStderr()),
	)
}
