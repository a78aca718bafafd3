package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/results"
)

var combineSelection selectionFlags

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Add electric and gas annual costs into per-county totals",
	Long:  "For each selected county, reads the latest electricity and gas result files and writes every same-utility electric + gas plan pairing to the totals file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, err := newResolver()
		if err != nil {
			return err
		}

		started := time.Now()
		repo := results.NewRepository(cfg.Data.OutputDir, results.WithClock(func() time.Time { return started }))

		var written, skipped, failed int
		for _, scenario := range combineSelection.scenarioList() {
			for _, housing := range combineSelection.housingTypeList() {
				for _, county := range combineSelection.countyList(resolver) {
					log := zap.L().With(
						zap.String("scenario", scenario),
						zap.String("housing_type", housing),
						zap.String("county", county),
					)
					path, totals, err := repo.CombineTotals(scenario, housing, county)
					if err != nil {
						if model.KindOf(err) == model.FailureMissingInput {
							skipped++
							log.Debug("no result files to combine", zap.Error(err))
							continue
						}
						failed++
						log.Error("combine failed",
							zap.String("failure_kind", string(model.KindOf(err))),
							zap.Error(err),
						)
						continue
					}
					written++
					log.Info("totals written", zap.String("path", path), zap.Int("columns", len(totals.Columns())))
				}
			}
		}

		fmt.Fprintf(os.Stdout, "totals: %d written, %d skipped, %d failed\n", written, skipped, failed)
		return nil
	},
}

func init() {
	addSelectionFlags(combineCmd, &combineSelection)
	rootCmd.AddCommand(combineCmd)
}
