package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/tariff"
	"github.com/sells-group/electrify-cli/internal/territory"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the tariff catalog",
}

// -- catalog validate --

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog and its coverage of every county",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		resolver, err := newResolver()
		if err != nil {
			return err
		}

		problems := coverageProblems(cat, resolver)
		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintln(os.Stderr, p)
			}
			return eris.Errorf("catalog: %d coverage problems", len(problems))
		}
		fmt.Fprintf(os.Stdout, "catalog %s ok: %d utilities\n", cat.Version(), len(cat.Utilities()))
		return nil
	},
}

// coverageProblems lists counties whose utility has no plans and gas
// territories missing from a gas plan.
func coverageProblems(cat *tariff.Catalog, resolver *territory.Resolver) []string {
	var problems []string
	for _, u := range model.Utilities {
		counties := resolver.Counties(u)
		if len(counties) == 0 {
			continue
		}
		if len(cat.ElectricPlans(u)) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no electric plans for %d counties", u, len(counties)))
		}
		for _, county := range counties {
			t, err := resolver.ResolveGasTerritory(county, u)
			if err != nil {
				continue
			}
			for _, plan := range cat.GasPlans(u) {
				for _, season := range model.GasSeasons {
					if _, err := plan.Allowance(t, season); err != nil {
						problems = append(problems, fmt.Sprintf("%s: %v", county, err))
					}
				}
			}
		}
	}
	return problems
}

// -- catalog list --

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rate plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		formatPlanList(os.Stdout, cat)
		return nil
	},
}

func formatPlanList(out io.Writer, cat *tariff.Catalog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "UTILITY\tCOMMODITY\tPLAN\tSOURCE")
	for _, u := range cat.Utilities() {
		for _, p := range cat.ElectricPlans(u) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u, model.CommodityElectricity, p.Name, p.Source)
		}
		for _, p := range cat.GasPlans(u) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u, model.CommodityGas, p.Name, p.Source)
		}
	}
	_ = w.Flush()
}

// -- catalog show --

var catalogShowCmd = &cobra.Command{
	Use:   "show <utility> <plan>",
	Short: "Show the rate sections of one plan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		utility, err := model.ParseUtility(args[0])
		if err != nil {
			return err
		}

		if plan, err := cat.ElectricPlan(utility, args[1]); err == nil {
			return formatElectricPlan(os.Stdout, plan)
		}
		plan, err := cat.GasPlan(utility, args[1])
		if err != nil {
			return eris.Errorf("catalog: %s has no plan %q", utility, args[1])
		}
		formatGasPlan(os.Stdout, plan)
		return nil
	},
}

func formatElectricPlan(out io.Writer, plan *tariff.ElectricPlan) error {
	_, _ = fmt.Fprintf(out, "%s %s (electricity)\n", plan.Utility, plan.Name)
	if plan.Source != "" {
		_, _ = fmt.Fprintf(out, "source: %s\n", plan.Source)
	}
	if plan.BaselineCredit.Valid {
		_, _ = fmt.Fprintf(out, "baseline credit: %s/kWh (not applied)\n", plan.BaselineCredit.Decimal.String())
	}
	if plan.MinimumDailyCharge.Valid {
		_, _ = fmt.Fprintf(out, "minimum daily charge: %s\n", plan.MinimumDailyCharge.Decimal.String())
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEASON\tDAYS\tPERIOD\tPRICE\tHOURS\tFIXED")
	for _, season := range model.Seasons {
		for _, dt := range model.DayTypes {
			sec, err := plan.Section(season, dt)
			if err != nil {
				return err
			}
			for _, period := range model.Periods {
				rate := sec.Period(period)
				if !rate.Price.Valid {
					continue
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					season, dt, period, rate.Price.Decimal.String(), formatHours(rate.Hours), sec.FixedCharge.String())
			}
		}
	}
	return w.Flush()
}

func formatGasPlan(out io.Writer, plan *tariff.GasPlan) {
	_, _ = fmt.Fprintf(out, "%s %s (gas)\n", plan.Utility, plan.Name)
	if plan.Source != "" {
		_, _ = fmt.Fprintf(out, "source: %s\n", plan.Source)
	}
	_, _ = fmt.Fprintf(out, "baseline: %s/therm, excess: %s/therm\n", plan.Baseline.Total.String(), plan.Excess.Total.String())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"TERRITORY"}
	for _, s := range model.GasSeasons {
		header = append(header, strings.ToUpper(string(s)))
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, t := range plan.Territories() {
		cols := []string{string(t)}
		for _, s := range model.GasSeasons {
			a, err := plan.Allowance(t, s)
			if err != nil {
				cols = append(cols, "-")
				continue
			}
			cols = append(cols, a.String())
		}
		_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	_ = w.Flush()
}

// formatHours compacts sorted hours into ranges: [0 1 2 5] -> "0-2,5".
func formatHours(hours []int) string {
	var parts []string
	for i := 0; i < len(hours); {
		j := i
		for j+1 < len(hours) && hours[j+1] == hours[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, fmt.Sprint(hours[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", hours[i], hours[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}
