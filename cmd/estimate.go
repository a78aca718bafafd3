package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/electrify-cli/internal/loadprofile"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/ratecalc"
	"github.com/sells-group/electrify-cli/internal/results"
)

var (
	estimateProfile string
	estimateCounty  string
	estimateSupply  string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Itemize annual costs of one load profile under every plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if estimateProfile == "" || estimateCounty == "" {
			return eris.New("estimate: --profile and --county are required")
		}
		supply, err := model.ParseSupply(estimateSupply)
		if err != nil {
			return err
		}

		calc, err := newCalculator()
		if err != nil {
			return err
		}
		resolver, err := newResolver()
		if err != nil {
			return err
		}
		utility, err := resolver.ResolveUtility(estimateCounty)
		if err != nil {
			return err
		}

		profile, err := loadprofile.Read(cmd.Context(), estimateProfile)
		if err != nil {
			return err
		}

		out := os.Stdout
		fmt.Fprintf(out, "%s (%s), supply %s\n\n", estimateCounty, utility, supply)

		if profile.HasColumn(loadprofile.ColumnName(supply, model.CommodityElectricity)) {
			load, err := profile.Electricity(supply)
			if err != nil {
				return err
			}
			var rows []*ratecalc.ElectricBreakdown
			for _, p := range calc.Catalog().ElectricPlans(utility) {
				b, err := calc.ElectricBreakdown(load, utility, p.Name)
				if err != nil {
					return err
				}
				rows = append(rows, b)
			}
			stats := loadprofile.Summarize(load)
			fmt.Fprintf(out, "Electricity: %.1f kWh/yr, peak hour %.2f kWh\n", stats.Total, stats.Peak)
			formatElectricBreakdowns(out, rows)
			fmt.Fprintln(out)
		}

		if profile.HasColumn(loadprofile.ColumnName(supply, model.CommodityGas)) {
			gasTerritory, err := resolver.ResolveGasTerritory(estimateCounty, utility)
			if err != nil {
				fmt.Fprintf(out, "Gas: %v\n", err)
				return nil
			}
			usage, err := profile.Gas(supply)
			if err != nil {
				return err
			}
			var rows []*ratecalc.GasBreakdown
			for _, p := range calc.Catalog().GasPlans(utility) {
				b, err := calc.GasBreakdown(usage, gasTerritory, utility, p.Name)
				if err != nil {
					return err
				}
				rows = append(rows, b)
			}
			fmt.Fprintf(out, "Gas: territory %s, %.1f therms/yr\n", gasTerritory, loadprofile.Summarize(usage.Therms).Total)
			formatGasBreakdowns(out, rows)
		}
		return nil
	},
}

// formatElectricBreakdowns writes one line per electric plan.
func formatElectricBreakdowns(out io.Writer, rows []*ratecalc.ElectricBreakdown) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLAN\tPEAK_KWH\tPART_PEAK_KWH\tSUPER_OFF_KWH\tOFF_PEAK_KWH\tENERGY\tFIXED\tTOTAL")
	for _, b := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.Plan,
			b.KWh[model.PeriodPeak].StringFixed(1),
			b.KWh[model.PeriodPartPeak].StringFixed(1),
			b.KWh[model.PeriodSuperOffPeak].StringFixed(1),
			b.KWh[model.PeriodOffPeak].StringFixed(1),
			results.FormatUSD(b.EnergyCost),
			results.FormatUSD(b.FixedCost),
			results.FormatUSD(b.Total),
		)
	}
	_ = w.Flush()
}

// formatGasBreakdowns writes one line per gas plan and season bucket.
func formatGasBreakdowns(out io.Writer, rows []*ratecalc.GasBreakdown) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLAN\tSEASON\tTHERMS\tALLOWANCE\tRATE\tCOST")
	for _, b := range rows {
		for _, bucket := range b.Buckets {
			tier := "baseline"
			if bucket.Excess {
				tier = "excess"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s (%s)\t%s\n",
				b.Plan,
				bucket.Season,
				bucket.Therms.StringFixed(1),
				bucket.Allowance.StringFixed(1),
				bucket.Rate.String(),
				tier,
				results.FormatUSD(bucket.Cost),
			)
		}
		_, _ = fmt.Fprintf(w, "%s\tTOTAL\t\t\t\t%s\n", b.Plan, results.FormatUSD(b.Total))
	}
	_ = w.Flush()
}

func init() {
	estimateCmd.Flags().StringVar(&estimateProfile, "profile", "", "load profile CSV")
	estimateCmd.Flags().StringVar(&estimateCounty, "county", "", "county served")
	estimateCmd.Flags().StringVar(&estimateSupply, "supply", string(model.SupplyDefault), "supply condition: default or solarstorage")
	rootCmd.AddCommand(estimateCmd)
}
