package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/territory"
)

var countiesUtility string

var countiesCmd = &cobra.Command{
	Use:   "counties",
	Short: "List counties with their utility and gas territory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, err := newResolver()
		if err != nil {
			return err
		}
		utilities := model.Utilities
		if countiesUtility != "" {
			u, err := model.ParseUtility(countiesUtility)
			if err != nil {
				return err
			}
			utilities = []model.Utility{u}
		}
		formatCounties(os.Stdout, resolver, utilities)
		return nil
	},
}

func formatCounties(out io.Writer, resolver *territory.Resolver, utilities []model.Utility) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COUNTY\tNAME\tUTILITY\tGAS_TERRITORY")
	for _, u := range utilities {
		for _, county := range resolver.Counties(u) {
			gas := "-"
			if t, err := resolver.ResolveGasTerritory(county, u); err == nil {
				gas = string(t)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", county, territory.DisplayName(county), u, gas)
		}
	}
	_ = w.Flush()
}

func init() {
	countiesCmd.Flags().StringVar(&countiesUtility, "utility", "", "only counties served by this utility (PG&E, SCE, SDG&E)")
	rootCmd.AddCommand(countiesCmd)
}
