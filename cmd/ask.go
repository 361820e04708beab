package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

var (
	askFilters filterFlags
	askDryRun  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <file> <question...>",
	Short: "Ask the media consultant a question with the data summary as context",
	Example: `  mediaintel ask media.csv "Which platform should we invest in next quarter?"`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		question := strings.TrimSpace(strings.Join(args[1:], " "))
		if question == "" {
			return fmt.Errorf("question is empty")
		}
		ds, _, err := loadFiltered(cmd, args[0], &askFilters)
		if err != nil {
			return err
		}
		svc, rec, gen, err := newInsightService()
		if err != nil {
			return err
		}
		if askDryRun {
			prompt := insight.BuildConsultantPrompt(views.Describe(ds).JSON(), question, nil)
			estimate(out, gen, "", prompt)
			fmt.Fprintln(out, prompt)
			return nil
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		in := svc.Ask(ctx, "", ds, question, nil)
		fmt.Fprintln(out, in.Text)
		if in.Failed {
			reportFailure(out, rec)
			return errGenerationFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askFilters.bind(askCmd)
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "print the prompt without calling the API")
}
