package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/report"
	"github.com/KaramelBytes/mediaintel-cli/internal/utils"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

var (
	repFilters      filterFlags
	repOutputPath   string
	repFormat       string
	repWithInsights bool
	repPersonas     []string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Export the charts and insights as a Markdown or JSON report",
	Example: `  mediaintel report media.csv -o report.md
  mediaintel report media.csv --with-insights --format json -o report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		format, err := report.ParseFormat(repFormat)
		if err != nil {
			return err
		}
		full, err := loadDataset(out, args[0])
		if err != nil {
			return err
		}
		crit, err := repFilters.criteria(cmd, full)
		if err != nil {
			return err
		}
		in := report.Input{
			Source:   full.Source,
			Criteria: crit,
			Dataset:  filter.Apply(full, crit),
			Skipped:  full.Skipped,
		}
		personas := parsePersonas(out, repPersonas)

		if repWithInsights {
			svc, rec, _, err := newInsightService()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			fmt.Fprintln(out, "⚙ Generating insights for the report ...")
			in.Insights = svc.ChartInsights(ctx, "", views.All(in.Dataset), personas)
			summary := svc.Summary(ctx, "", in.Dataset)
			idea := svc.PostIdea(ctx, "", in.Dataset)
			in.Summary, in.PostIdea = &summary, &idea
			failed := summary.Failed || idea.Failed
			for _, i := range in.Insights {
				failed = failed || i.Failed
			}
			if failed {
				fmt.Fprintf(out, "⚠ Some insights failed and are reported as %q\n", insight.FailureText)
				reportFailure(out, rec)
			}
		}

		body, err := report.Build(in, report.Options{Personas: personas}).Encode(format)
		if err != nil {
			return err
		}
		if repOutputPath == "" {
			fmt.Fprintln(out, string(body))
			return nil
		}
		if err := utils.SafeWriteFile(repOutputPath, body); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "✓ Wrote report to %s\n", repOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repFilters.bind(reportCmd)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "path to write the report (default stdout)")
	reportCmd.Flags().StringVar(&repFormat, "format", "md", "report format: md|json")
	reportCmd.Flags().BoolVar(&repWithInsights, "with-insights", false, "generate chart insights, a summary and a post idea before exporting")
	reportCmd.Flags().StringSliceVar(&repPersonas, "persona", nil, "personas to include (default all)")
}
