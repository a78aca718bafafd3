// Package evaluate runs annual cost evaluations for batches of counties and
// records every job in the run ledger.
package evaluate

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/electrify-cli/internal/loadprofile"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/ratecalc"
	"github.com/sells-group/electrify-cli/internal/results"
	"github.com/sells-group/electrify-cli/internal/store"
	"github.com/sells-group/electrify-cli/internal/territory"
)

// Selection picks the jobs of one batch.
type Selection struct {
	Scenarios    []string
	HousingTypes []string
	// Counties defaults to every county known to the resolver.
	Counties []string
	// Supplies defaults to model.Supplies.
	Supplies  []model.Supply
	Commodity model.Commodity
}

// Jobs expands the selection in scenario, housing type, county, supply order.
func (s Selection) Jobs() []model.Job {
	supplies := s.Supplies
	if len(supplies) == 0 {
		supplies = model.Supplies
	}
	var jobs []model.Job
	for _, scenario := range s.Scenarios {
		for _, housing := range s.HousingTypes {
			for _, county := range s.Counties {
				for _, supply := range supplies {
					jobs = append(jobs, model.Job{
						Scenario:    scenario,
						HousingType: housing,
						County:      county,
						Supply:      supply,
						Commodity:   s.Commodity,
					})
				}
			}
		}
	}
	return jobs
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Jobs      int64 `json:"jobs"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

// Config holds engine settings.
type Config struct {
	InputDir    string
	Concurrency int
}

// Engine evaluates jobs against the tariff catalog.
type Engine struct {
	calc     *ratecalc.Calculator
	resolver *territory.Resolver
	repo     *results.Repository
	store    store.Store
	cfg      Config
	log      *zap.Logger
}

// New returns an Engine. st may be nil, in which case runs are not recorded.
func New(calc *ratecalc.Calculator, resolver *territory.Resolver, repo *results.Repository, st store.Store, cfg Config) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Engine{
		calc:     calc,
		resolver: resolver,
		repo:     repo,
		store:    st,
		cfg:      cfg,
		log:      zap.L().With(zap.String("component", "evaluate")),
	}
}

// Run evaluates every job of sel. Individual job failures are recorded and
// counted; only cancellation or a bad selection aborts the batch.
func (e *Engine) Run(ctx context.Context, sel Selection) (*Summary, error) {
	switch sel.Commodity {
	case model.CommodityElectricity, model.CommodityGas:
	default:
		return nil, eris.Errorf("evaluate: unsupported commodity %q", sel.Commodity)
	}
	if len(sel.Counties) == 0 {
		sel.Counties = e.resolver.AllCounties()
	}

	jobs := sel.Jobs()
	summary := &Summary{Jobs: int64(len(jobs))}
	if len(jobs) == 0 {
		e.log.Info("no jobs selected")
		return summary, nil
	}

	e.log.Info("evaluating batch",
		zap.String("commodity", string(sel.Commodity)),
		zap.Int("jobs", len(jobs)),
		zap.Int("concurrency", e.cfg.Concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	var completed, failed, skipped atomic.Int64

	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			switch e.runJob(gctx, job) {
			case model.RunStatusComplete:
				completed.Add(1)
			case model.RunStatusSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil // don't abort batch on individual failure
		})
	}

	err := g.Wait()
	summary.Completed = completed.Load()
	summary.Failed = failed.Load()
	summary.Skipped = skipped.Load()
	if err != nil {
		return summary, eris.Wrap(err, "evaluate: batch")
	}

	e.log.Info("batch complete",
		zap.Int64("completed", summary.Completed),
		zap.Int64("failed", summary.Failed),
		zap.Int64("skipped", summary.Skipped),
	)
	return summary, nil
}

// runJob evaluates one job, writes its ledger entry, and returns its final status.
func (e *Engine) runJob(ctx context.Context, job model.Job) model.RunStatus {
	log := e.log.With(
		zap.String("scenario", job.Scenario),
		zap.String("housing_type", job.HousingType),
		zap.String("county", job.County),
		zap.String("supply", string(job.Supply)),
	)

	var run *model.Run
	if e.store != nil {
		var err error
		run, err = e.store.CreateRun(ctx, job)
		if err != nil {
			log.Warn("failed to record run", zap.Error(err))
		}
	}

	utility, result, err := e.Evaluate(ctx, job)
	if err != nil {
		kind := model.KindOf(err)
		status := model.RunStatusFailed
		if kind == model.FailureMissingInput {
			status = model.RunStatusSkipped
			log.Warn("load profile missing, skipping", zap.Error(err))
		} else {
			log.Error("evaluation failed",
				zap.String("utility", string(utility)),
				zap.String("plan", planOf(err)),
				zap.String("failure_kind", string(kind)),
				zap.Error(err),
			)
		}
		if run != nil {
			runErr := &model.RunError{Kind: kind, Message: err.Error()}
			if sErr := e.store.FailRun(ctx, run.ID, status, utility, runErr); sErr != nil {
				log.Warn("failed to update run", zap.String("run_id", run.ID), zap.Error(sErr))
			}
		}
		return status
	}

	if run != nil {
		if sErr := e.store.CompleteRun(ctx, run.ID, utility, result); sErr != nil {
			log.Warn("failed to update run", zap.String("run_id", run.ID), zap.Error(sErr))
		}
	}
	log.Info("evaluation complete",
		zap.String("utility", string(utility)),
		zap.Int("plans", len(result.Costs)),
		zap.String("path", result.OutputPath),
	)
	return model.RunStatusComplete
}

// Evaluate prices one job under every plan of the county's utility and
// merges the resulting row into the county result file. The utility is
// returned whenever it was resolved, even on failure.
func (e *Engine) Evaluate(ctx context.Context, job model.Job) (model.Utility, *model.RunResult, error) {
	utility, err := e.resolver.ResolveUtility(job.County)
	if err != nil {
		return "", nil, err
	}

	profile, err := loadprofile.Read(ctx, loadprofile.Path(e.cfg.InputDir, job.Scenario, job.HousingType, job.County))
	if err != nil {
		return utility, nil, err
	}
	e.log.Debug("load profile read",
		zap.String("county", job.County),
		zap.String("source", profile.Source()),
		zap.Int("rows", profile.Len()),
	)

	costs, err := e.costs(profile, job, utility)
	if err != nil {
		return utility, nil, err
	}

	row := results.RowKey(job.Scenario, job.Supply)
	tbl := results.NewTable()
	cells := make(map[string]string, len(costs))
	for _, plan := range e.planNames(job.Commodity, utility) {
		cost, ok := costs[plan]
		if !ok {
			continue
		}
		col := results.ColumnKey(job.Commodity, utility, plan)
		tbl.SetUSD(row, col, cost)
		cells[col] = results.FormatUSD(cost)
	}

	path, err := e.repo.Merge(job.Scenario, job.HousingType, job.County, results.KindFor(job.Commodity), tbl)
	if err != nil {
		return utility, nil, eris.Wrapf(err, "evaluate: merge %s", job.County)
	}
	return utility, &model.RunResult{Row: row, OutputPath: path, Costs: cells}, nil
}

func (e *Engine) costs(profile *loadprofile.Profile, job model.Job, utility model.Utility) (map[string]decimal.Decimal, error) {
	switch job.Commodity {
	case model.CommodityElectricity:
		load, err := profile.Electricity(job.Supply)
		if err != nil {
			return nil, err
		}
		stats := loadprofile.Summarize(load)
		e.log.Debug("electric load",
			zap.String("county", job.County),
			zap.Float64("annual_kwh", stats.Total),
			zap.Float64("peak_kwh", stats.Peak),
		)
		return e.calc.ElectricCosts(load, utility)
	case model.CommodityGas:
		gasTerritory, err := e.resolver.ResolveGasTerritory(job.County, utility)
		if err != nil {
			return nil, err
		}
		usage, err := profile.Gas(job.Supply)
		if err != nil {
			return nil, err
		}
		stats := loadprofile.Summarize(usage.Therms)
		e.log.Debug("gas usage",
			zap.String("county", job.County),
			zap.String("territory", string(gasTerritory)),
			zap.Float64("annual_therms", stats.Total),
		)
		return e.calc.GasCosts(usage, gasTerritory, utility)
	}
	return nil, eris.Errorf("evaluate: unsupported commodity %q", job.Commodity)
}

// planNames returns the plan names of utility in catalog order.
func (e *Engine) planNames(commodity model.Commodity, utility model.Utility) []string {
	var names []string
	if commodity == model.CommodityGas {
		for _, p := range e.calc.Catalog().GasPlans(utility) {
			names = append(names, p.Name)
		}
		return names
	}
	for _, p := range e.calc.Catalog().ElectricPlans(utility) {
		names = append(names, p.Name)
	}
	return names
}

func planOf(err error) string {
	var ce *model.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Plan
	}
	return ""
}
