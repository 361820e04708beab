package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/ai"
	"github.com/KaramelBytes/mediaintel-cli/internal/utils"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog, pricing and provider defaults",
	Example: `  mediaintel models show
  mediaintel models show --json
  mediaintel models recommend --provider ollama --tier cheap`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the built-in model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		if modelsJSON {
			b, err := utils.PrettyJSON(cat)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tCONTEXT\tIN/1K\tOUT/1K")
		for _, m := range cat {
			fmt.Fprintf(tw, "%s\t%d\t%.6f\t%.6f\n", m.Name, m.ContextTokens, m.InputPerK, m.OutputPerK)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		for _, p := range ai.Providers() {
			fmt.Fprintf(cmd.OutOrStdout(), "default for %s: %s\n", p, ai.DefaultModel(p))
		}
		return nil
	},
}

var (
	recProvider string
	recTier     string
)

var modelsRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a model for a provider and tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := recProvider
		if provider == "" && cfg != nil {
			provider = cfg.Provider
		}
		name, ok := ai.RecommendModel(provider, recTier)
		if !ok {
			return fmt.Errorf("no recommendation for provider=%q tier=%q (tiers: cheap|balanced)", provider, recTier)
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		if _, known := ai.LookupModel(name); !known {
			fmt.Fprintf(os.Stderr, "⚠ %s is not in the pricing catalog; cost estimates are unavailable\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsRecommendCmd)

	modelsShowCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
	modelsRecommendCmd.Flags().StringVar(&recProvider, "provider", "", "provider (default from config)")
	modelsRecommendCmd.Flags().StringVar(&recTier, "tier", "cheap", "tier: cheap|balanced")
}
