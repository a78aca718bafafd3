package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/electrify-cli/internal/results"
)

var (
	exportSelection selectionFlags
	exportOut       string
	exportKind      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Collect the latest per-county result files into an xlsx workbook",
	Long:  "Writes one workbook per scenario and housing type with one sheet per county.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, err := results.ParseKind(exportKind)
		if err != nil {
			return err
		}
		resolver, err := newResolver()
		if err != nil {
			return err
		}

		repo := results.NewRepository(cfg.Data.OutputDir)
		scenarios := exportSelection.scenarioList()
		housingTypes := exportSelection.housingTypeList()
		counties := exportSelection.countyList(resolver)

		for _, scenario := range scenarios {
			for _, housing := range housingTypes {
				out := exportPath(exportOut, scenario, housing, len(scenarios)*len(housingTypes) > 1)
				summary, err := repo.ExportXLSX(scenario, housing, counties, kind, out)
				if err != nil {
					return eris.Wrapf(err, "export %s/%s", scenario, housing)
				}
				fmt.Fprintf(os.Stdout, "%s: %d sheets", out, summary.Sheets)
				if len(summary.Skipped) > 0 {
					fmt.Fprintf(os.Stdout, " (no results: %s)", strings.Join(summary.Skipped, ", "))
				}
				fmt.Fprintln(os.Stdout)
			}
		}
		return nil
	},
}

// exportPath returns out, suffixed with scenario and housing type when more
// than one workbook is written.
func exportPath(out, scenario, housing string, multi bool) string {
	if !multi {
		return out
	}
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "_" + scenario + "_" + housing + ext
}

func init() {
	addSelectionFlags(exportCmd, &exportSelection)
	exportCmd.Flags().StringVar(&exportOut, "out", "annual_costs.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportKind, "commodity", "totals", "result kind: electricity, gas or totals")
	rootCmd.AddCommand(exportCmd)
}
