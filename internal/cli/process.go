package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/delivery"
)

var runProducts []string

var rgbCmd = &cobra.Command{
	Use:   "rgb [scene-id]",
	Short: "Create a true color composite of a scene",
	Long: `Stacks the composite bands of a scene (red, green, blue by default)
into a three band GeoTIFF under <output>/rgb.`,
	Args: cobra.ExactArgs(1),
	RunE: processWith(delivery.RGB),
}

var ndviCmd = &cobra.Command{
	Use:   "ndvi [scene-id]",
	Short: "Calculate the vegetation index of a scene",
	Long: `Computes (NIR - red) / (NIR + red) per pixel and writes it as a
float GeoTIFF under <output>/ndvi. Pixels where both bands are zero are
written as NaN and left out of the reported mean.`,
	Args: cobra.ExactArgs(1),
	RunE: processWith(delivery.NDVI),
}

var ndwiCmd = &cobra.Command{
	Use:   "ndwi [scene-id]",
	Short: "Calculate the water index of a scene",
	Long: `Computes (NIR - green) / (NIR + green) per pixel and writes it as a
float GeoTIFF under <output>/ndwi.`,
	Args: cobra.ExactArgs(1),
	RunE: processWith(delivery.NDWI),
}

var runCmd = &cobra.Command{
	Use:   "run [scene-id]",
	Short: "Produce every output of a scene",
	Long: `Produces the composite and both indices of a scene in order and
stores a run report. Processing stops at the first failing product.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		products := make([]delivery.Product, 0, len(runProducts))
		for _, s := range runProducts {
			p, err := delivery.ParseProduct(s)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return process(cmd, args[0], products...)
	},
}

func init() {
	runCmd.Flags().StringSliceVarP(&runProducts, "products", "p", nil, "products to produce (rgb,ndvi,ndwi), all when empty")
	rootCmd.AddCommand(rgbCmd, ndviCmd, ndwiCmd, runCmd)
}

func processWith(p delivery.Product) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return process(cmd, args[0], p)
	}
}

func process(cmd *cobra.Command, sceneID string, products ...delivery.Product) error {
	run, err := newRunner(cmd).Run(sceneID, products...)
	if err != nil {
		return fmt.Errorf("processing scene %s failed: %w", sceneID, err)
	}
	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), delivery.FormatRun(*run))
	return nil
}
