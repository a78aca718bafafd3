package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/electrify-cli/internal/evaluate"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/results"
	"github.com/sells-group/electrify-cli/internal/store"
)

var (
	evalSelection   selectionFlags
	evalSupplies    []string
	evalConcurrency int
	evalNoLedger    bool
)

var evaluateCmd = &cobra.Command{
	Use:       "evaluate electricity|gas",
	Short:     "Compute annual costs for every rate plan of each selected county",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.CommodityElectricity), string(model.CommodityGas)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}
		commodity, err := model.ParseCommodity(args[0])
		if err != nil {
			return err
		}
		supplies, err := parseSupplies(evalSupplies)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		calc, err := newCalculator()
		if err != nil {
			return err
		}
		resolver, err := newResolver()
		if err != nil {
			return err
		}

		var ledger store.Store
		if !evalNoLedger {
			ledger, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer ledger.Close() //nolint:errcheck
		}

		// One timestamp per batch so every county lands in the same file name.
		started := time.Now()
		repo := results.NewRepository(cfg.Data.OutputDir, results.WithClock(func() time.Time { return started }))

		concurrency := evalConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrentCounties
		}
		engine := evaluate.New(calc, resolver, repo, ledger, evaluate.Config{
			InputDir:    cfg.Data.InputDir,
			Concurrency: concurrency,
		})

		summary, err := engine.Run(ctx, evaluate.Selection{
			Scenarios:    evalSelection.scenarioList(),
			HousingTypes: evalSelection.housingTypeList(),
			Counties:     evalSelection.countyList(resolver),
			Supplies:     supplies,
			Commodity:    commodity,
		})
		if err != nil {
			return eris.Wrap(err, "evaluate")
		}

		fmt.Fprintf(os.Stdout, "%s: %d jobs, %d complete, %d failed, %d skipped\n",
			commodity, summary.Jobs, summary.Completed, summary.Failed, summary.Skipped)
		return nil
	},
}

func parseSupplies(raw []string) ([]model.Supply, error) {
	if len(raw) == 0 {
		return model.Supplies, nil
	}
	out := make([]model.Supply, 0, len(raw))
	for _, s := range raw {
		supply, err := model.ParseSupply(s)
		if err != nil {
			return nil, err
		}
		out = append(out, supply)
	}
	return out, nil
}

func addSelectionFlags(cmd *cobra.Command, f *selectionFlags) {
	cmd.Flags().StringSliceVar(&f.scenarios, "scenario", nil, "scenario to evaluate (repeatable; default from config)")
	cmd.Flags().StringSliceVar(&f.housingTypes, "housing-type", nil, "housing type (repeatable; default from config)")
	cmd.Flags().StringSliceVar(&f.counties, "county", nil, "county slug or name (repeatable; default all counties)")
}

func init() {
	addSelectionFlags(evaluateCmd, &evalSelection)
	evaluateCmd.Flags().StringSliceVar(&evalSupplies, "supply", nil, "supply condition: default, solarstorage (repeatable; default both)")
	evaluateCmd.Flags().IntVar(&evalConcurrency, "concurrency", 0, "counties evaluated in parallel (default from config)")
	evaluateCmd.Flags().BoolVar(&evalNoLedger, "no-ledger", false, "do not record runs in the store")
	rootCmd.AddCommand(evaluateCmd)
}
