package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

var (
	sumFilters  filterFlags
	sumPostIdea bool
	sumDryRun   bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Write an executive summary with strategic recommendations for the filtered data",
	Example: `  mediaintel summary media.csv
  mediaintel summary media.csv --post-idea --platform '*' --sentiment Positive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ds, _, err := loadFiltered(cmd, args[0], &sumFilters)
		if err != nil {
			return err
		}
		svc, rec, gen, err := newInsightService()
		if err != nil {
			return err
		}
		if sumDryRun {
			prompt := insight.BuildSummaryPrompt(views.Describe(ds).JSON())
			estimate(out, gen, "", prompt)
			fmt.Fprintln(out, prompt)
			if sumPostIdea {
				prompt = insight.BuildPostIdeaPrompt(views.BestPlatform(ds))
				estimate(out, gen, "", prompt)
				fmt.Fprintln(out, prompt)
			}
			fmt.Fprintln(out, "\n--dry-run: no API call was made.")
			return nil
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		results := []insight.Insight{svc.Summary(ctx, "", ds)}
		fmt.Fprintf(out, "\n## Campaign Strategy Summary\n\n%s\n", results[0].Text)
		if sumPostIdea {
			idea := svc.PostIdea(ctx, "", ds)
			results = append(results, idea)
			fmt.Fprintf(out, "\n## Content Idea (%s)\n\n%s\n", views.BestPlatform(ds), idea.Text)
		}
		for _, in := range results {
			if in.Failed {
				reportFailure(out, rec)
				return errGenerationFailed
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFilters.bind(summaryCmd)
	summaryCmd.Flags().BoolVar(&sumPostIdea, "post-idea", false, "also suggest a post for the best performing platform")
	summaryCmd.Flags().BoolVar(&sumDryRun, "dry-run", false, "print the prompts without calling the API")
}
