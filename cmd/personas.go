package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the insight personas and the model each one is routed to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		gen, err := c.Generator()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tALIAS\tLABEL\tMODEL")
		for _, p := range insight.Personas() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Alias, p.Label, gen.ModelFor(p.ID))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
