package ratecalc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/calendar"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/tariff"
)

// GasUsage is a timestamped series of gas readings in therms. Readings may
// be hourly or sub-hourly; only their calendar month matters.
type GasUsage struct {
	Timestamps []time.Time
	Therms     []float64
}

// GasBucket is the priced total of one gas season.
type GasBucket struct {
	Season    model.GasSeason
	Therms    decimal.Decimal
	Allowance decimal.Decimal
	Excess    bool
	Rate      decimal.Decimal
	Cost      decimal.Decimal
}

// GasBreakdown itemizes one annual gas bill.
type GasBreakdown struct {
	Utility   model.Utility
	Plan      string
	Territory model.Territory
	Buckets   []GasBucket
	Total     decimal.Decimal
}

// GasPlanCost returns the annual USD gas bill of usage under plan.
func (c *Calculator) GasPlanCost(usage GasUsage, territory model.Territory, utility model.Utility, plan string) (decimal.Decimal, error) {
	b, err := c.GasBreakdown(usage, territory, utility, plan)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return b.Total, nil
}

// GasCosts prices usage under every gas plan of utility.
func (c *Calculator) GasCosts(usage GasUsage, territory model.Territory, utility model.Utility) (map[string]decimal.Decimal, error) {
	plans := c.catalog.GasPlans(utility)
	if len(plans) == 0 {
		return nil, &model.ConfigurationError{Utility: utility, Reason: "no gas rate plans"}
	}
	totals, err := bucketTotals(usage)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(plans))
	for _, p := range plans {
		b, err := c.priceBuckets(totals, territory, p)
		if err != nil {
			return nil, err
		}
		out[p.Name] = b.Total
	}
	return out, nil
}

// GasBreakdown prices usage under plan and itemizes each gas season.
//
// Each season's therms are compared with the territory allowance for that
// season. At or below the allowance the whole bucket is billed at the
// baseline rate; above it the whole bucket is billed at the excess rate.
func (c *Calculator) GasBreakdown(usage GasUsage, territory model.Territory, utility model.Utility, name string) (*GasBreakdown, error) {
	plan, err := c.catalog.GasPlan(utility, name)
	if err != nil {
		return nil, err
	}
	totals, err := bucketTotals(usage)
	if err != nil {
		return nil, err
	}
	return c.priceBuckets(totals, territory, plan)
}

func (c *Calculator) priceBuckets(totals map[model.GasSeason]decimal.Decimal, territory model.Territory, plan *tariff.GasPlan) (*GasBreakdown, error) {
	b := &GasBreakdown{Utility: plan.Utility, Plan: plan.Name, Territory: territory}
	for _, season := range model.GasSeasons {
		therms, ok := totals[season]
		if !ok {
			continue
		}
		allowance, err := plan.Allowance(territory, season)
		if err != nil {
			return nil, err
		}

		bucket := GasBucket{
			Season:    season,
			Therms:    therms,
			Allowance: allowance,
			Excess:    therms.GreaterThan(allowance),
			Rate:      plan.Baseline.Total,
		}
		if bucket.Excess {
			bucket.Rate = plan.Excess.Total
		}
		bucket.Cost = therms.Mul(bucket.Rate)

		b.Buckets = append(b.Buckets, bucket)
		b.Total = b.Total.Add(bucket.Cost)
	}

	c.log.Debug("gas plan priced",
		zap.String("utility", string(plan.Utility)),
		zap.String("plan", plan.Name),
		zap.String("territory", string(territory)),
		zap.String("total", b.Total.StringFixed(2)),
	)
	return b, nil
}

// bucketTotals sums readings by calendar month, then folds months into gas seasons.
func bucketTotals(usage GasUsage) (map[model.GasSeason]decimal.Decimal, error) {
	if len(usage.Timestamps) != len(usage.Therms) {
		return nil, &model.DataShapeError{
			Reason: fmt.Sprintf("gas usage has %d timestamps and %d readings", len(usage.Timestamps), len(usage.Therms)),
		}
	}
	if len(usage.Therms) == 0 {
		return nil, &model.DataShapeError{Reason: "gas usage has no readings"}
	}
	therms, err := toDecimals(usage.Therms, "reading")
	if err != nil {
		return nil, err
	}

	monthly := make(map[time.Month]decimal.Decimal, 12)
	for i, ts := range usage.Timestamps {
		monthly[ts.Month()] = monthly[ts.Month()].Add(therms[i])
	}

	totals := make(map[model.GasSeason]decimal.Decimal, len(model.GasSeasons))
	for month, sum := range monthly {
		season := calendar.GasSeasonFor(month)
		totals[season] = totals[season].Add(sum)
	}
	return totals, nil
}

// HourlyGasUsage wraps an hourly profile indexed from the calendar epoch.
func HourlyGasUsage(therms []float64) GasUsage {
	ts := make([]time.Time, len(therms))
	for i := range therms {
		ts[i] = calendar.HourTimestamp(i)
	}
	return GasUsage{Timestamps: ts, Therms: therms}
}
