package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/utils"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

var (
	anaFilters    filterFlags
	anaCharts     []string
	anaFormat     string
	anaOutputPath string
	anaDescribe   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Normalize a media export, apply filters and print the five engagement views",
	Example: `  mediaintel analyze media.csv
  mediaintel analyze media.xlsx --platform Instagram,TikTok --from 2024-01-01
  mediaintel analyze media.csv --chart trend --format json
  mediaintel analyze media.csv --describe -o summary.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		keys, err := parseCharts(anaCharts)
		if err != nil {
			return err
		}
		format := strings.ToLower(strings.TrimSpace(anaFormat))
		if format != "markdown" && format != "md" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use markdown|json)", anaFormat)
		}

		ds, crit, err := loadFiltered(cmd, args[0], &anaFilters)
		if err != nil {
			return err
		}
		results := make([]views.ChartResult, 0, len(keys))
		for _, k := range keys {
			res, err := views.Compute(ds, k)
			if err != nil {
				return err
			}
			results = append(results, res)
		}

		var body string
		if format == "json" {
			payload := map[string]any{
				"source":   ds.Source,
				"rows":     ds.Len(),
				"criteria": crit,
				"charts":   results,
			}
			if anaDescribe {
				payload["summary"] = views.Describe(ds)
			}
			b, err := utils.PrettyJSON(payload)
			if err != nil {
				return err
			}
			body = string(b)
		} else {
			var b strings.Builder
			fmt.Fprintf(&b, "## %s (%d rows)\n\n", ds.Source, ds.Len())
			if anaDescribe {
				s := views.Describe(ds)
				fmt.Fprintf(&b, "- Engagements: total %d, mean %.2f, median %.0f, max %d\n",
					s.Engagements.Sum, s.Engagements.Mean, s.Engagements.P50, s.Engagements.Max)
				fmt.Fprintf(&b, "- Best platform: %s\n\n", views.BestPlatform(ds))
			}
			for _, r := range results {
				b.WriteString(r.Markdown())
				b.WriteString("\n")
			}
			body = b.String()
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(body)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(out, body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFilters.bind(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&anaCharts, "chart", nil, "charts to print: sentiment|trend|platform|mediaType|location (default all)")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "markdown", "output format: markdown|json")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaDescribe, "describe", false, "include descriptive statistics")
}
