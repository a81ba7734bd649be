package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/delivery"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/report"
)

var (
	reportJSON    bool
	reportSummary bool
)

var reportCmd = &cobra.Command{
	Use:   "report [scene-id]",
	Short: "Show the last run report of a scene",
	Long: `Prints the stored report of the most recent run of a scene. With
--summary, prints every index result recorded in summary.csv instead.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "output the report as JSON")
	reportCmd.Flags().BoolVar(&reportSummary, "summary", false, "print the cumulative summary of all runs")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportSummary {
		return printSummary(cmd)
	}
	if len(args) != 1 {
		return fmt.Errorf("a scene id is required unless --summary is set")
	}

	run, ok := newRunner(cmd).LastReport(args[0])
	if !ok {
		return fmt.Errorf("no report found for scene %s", args[0])
	}
	if reportJSON {
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(delivery.FormatRun(run))
	return nil
}

func printSummary(cmd *cobra.Command) error {
	rows, err := report.ReadSummary(delivery.SummaryPath(cfg))
	if err != nil {
		return err
	}
	for _, row := range rows {
		cmd.Printf("%s  %-6s %-5s mean=%s valid=%d invalid=%d  %s\n",
			row.Finished, row.SceneID, row.Product, row.Mean, row.Valid, row.Invalid, row.Path)
	}
	return nil
}
