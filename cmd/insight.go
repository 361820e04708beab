package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

var (
	insFilters     filterFlags
	insCharts      []string
	insPersonas    []string
	insDryRun      bool
	insBudgetLimit float64
)

var errGenerationFailed = errors.New("one or more insights could not be generated")

var insightCmd = &cobra.Command{
	Use:   "insight <file>",
	Short: "Ask the AI provider for persona-styled insights about one or more charts",
	Example: `  mediaintel insight media.csv --chart trend --persona critical
  mediaintel insight media.csv --chart platform --persona "Mistral 7B Instruct"
  mediaintel insight media.csv --dry-run --budget-limit 0.01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		keys, err := parseCharts(insCharts)
		if err != nil {
			return err
		}
		personas := parsePersonas(out, insPersonas)

		ds, _, err := loadFiltered(cmd, args[0], &insFilters)
		if err != nil {
			return err
		}
		svc, rec, gen, err := newInsightService()
		if err != nil {
			return err
		}
		charts := make([]views.ChartResult, 0, len(keys))
		for _, k := range keys {
			res, err := views.Compute(ds, k)
			if err != nil {
				return err
			}
			charts = append(charts, res)
		}

		var total float64
		for _, res := range charts {
			for _, p := range personas {
				if res.Empty() {
					continue
				}
				prompt := insight.BuildChartPrompt(res.Key, res.JSON(), p)
				if insDryRun {
					fmt.Fprintf(out, "\n--- %s / %s ---\n", res.Key.Title(), p)
				}
				cost := 0.0
				if insDryRun || insBudgetLimit > 0 {
					cost = estimate(out, gen, p, prompt)
				}
				total += cost
				if insDryRun {
					fmt.Fprintln(out, prompt)
				}
			}
		}
		if err := enforceBudget(total, insBudgetLimit); err != nil {
			return err
		}
		if insDryRun {
			fmt.Fprintln(out, "\n--dry-run: no API call was made.")
			return nil
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		fmt.Fprintf(out, "⚙ Generating %d insight(s) with provider=%s ...\n", len(charts)*len(personas), gen.Provider)
		results := svc.ChartInsights(ctx, "", charts, personas)
		failed := 0
		for _, in := range results {
			p, _ := insight.Lookup(in.Persona)
			fmt.Fprintf(out, "\n### %s: %s\n\n%s\n", in.Chart.Title(), p.Label, in.Text)
			if in.Failed {
				failed++
			}
		}
		if failed > 0 {
			reportFailure(out, rec)
			return errGenerationFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightCmd)
	insFilters.bind(insightCmd)
	insightCmd.Flags().StringSliceVar(&insCharts, "chart", nil, "charts to explain: sentiment|trend|platform|mediaType|location (default all)")
	insightCmd.Flags().StringSliceVar(&insPersonas, "persona", nil, "personas: critical|creative|quantitative or their aliases (default all)")
	insightCmd.Flags().BoolVar(&insDryRun, "dry-run", false, "print prompts, token counts and cost estimates without calling the API")
	insightCmd.Flags().Float64Var(&insBudgetLimit, "budget-limit", 0, "fail if the estimated max cost (USD) exceeds this budget")
}
