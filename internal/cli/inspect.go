package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soracast/coldferry/internal/manifest"
	"github.com/soracast/coldferry/internal/period"
)

var inspectManifest string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show manifest records and their derived storage keys",
	Long: `Inspect parses the delivery manifest and prints every transferable record
with the storage key it would be archived under. Nothing is downloaded or
uploaded.

Examples:
  coldferry inspect
  coldferry inspect --manifest deliveries/2024-06.csv
  coldferry inspect -v`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectManifest, "manifest", "m", "", "delivery manifest CSV (defaults to COLDFERRY_MANIFEST)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectManifest != "" {
		cfg.ManifestPath = inspectManifest
	}

	records, err := manifest.NewReader(logger).Read(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No transferable records found.")
		return nil
	}

	fmt.Printf("Records (%d):\n\n", len(records))
	for _, rec := range records {
		formatted, err := period.Format(rec.PeriodText)
		if err != nil {
			unusable := defaultTheme.errorStyle().Render(fmt.Sprintf("(unusable period: %v)", err))
			fmt.Printf("- %s %s\n", rec.DeliveryID, unusable)
			continue
		}
		fmt.Printf("- %s -> %s_%s.zip\n", rec.DeliveryID, rec.DeliveryID, formatted)
		if verbose {
			if rec.DataName != "" {
				fmt.Printf("  %s\n", rec.DataName)
			}
			fmt.Printf("  Period:  %s\n", rec.PeriodText)
			fmt.Printf("  Expires: %s\n", rec.Expiration)
			fmt.Printf("  URL:     %s\n", rec.URL)
		}
	}

	return nil
}
