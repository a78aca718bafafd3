// Package ratecalc accumulates annual electricity and gas bills from load
// profiles and the tariff catalog.
package ratecalc

import (
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/calendar"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/tariff"
)

// FixedChargeMode controls how a section's fixed charge enters the bill.
type FixedChargeMode string

const (
	// FixedChargeDaily adds the fixed charge once per day (365 times a year).
	FixedChargeDaily FixedChargeMode = "daily"
	// FixedChargeMonthly adds the fixed charge once per calendar month.
	FixedChargeMonthly FixedChargeMode = "monthly"
	// FixedChargeLegacy adds one twelfth of the fixed charge every hour,
	// reproducing historical output (730 daily charges a year).
	FixedChargeLegacy FixedChargeMode = "legacy"
)

// ParseFixedChargeMode validates a configured fixed-charge mode. Empty means daily.
func ParseFixedChargeMode(s string) (FixedChargeMode, error) {
	switch m := FixedChargeMode(s); m {
	case "":
		return FixedChargeDaily, nil
	case FixedChargeDaily, FixedChargeMonthly, FixedChargeLegacy:
		return m, nil
	}
	return "", eris.Errorf("ratecalc: unknown fixed charge mode %q", s)
}

// TierPolicy adjusts an hourly unit price for electric baseline tiers.
type TierPolicy interface {
	UnitPrice(plan *tariff.ElectricPlan, ts time.Time, kwh, price decimal.Decimal) decimal.Decimal
}

// FlatTier prices every kWh at the time-of-use rate and ignores baseline credits.
type FlatTier struct{}

// UnitPrice returns price unchanged.
func (FlatTier) UnitPrice(_ *tariff.ElectricPlan, _ time.Time, _, price decimal.Decimal) decimal.Decimal {
	return price
}

// Options configures a Calculator.
type Options struct {
	FixedCharge FixedChargeMode
	Tier        TierPolicy
}

// Calculator prices load profiles against a catalog. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	catalog *tariff.Catalog
	opts    Options
	log     *zap.Logger
}

// NewCalculator creates a Calculator over catalog.
func NewCalculator(catalog *tariff.Catalog, opts Options) *Calculator {
	if opts.FixedCharge == "" {
		opts.FixedCharge = FixedChargeDaily
	}
	if opts.Tier == nil {
		opts.Tier = FlatTier{}
	}
	log := zap.L().With(zap.String("component", "ratecalc"))
	if opts.FixedCharge == FixedChargeLegacy {
		log.Warn("legacy fixed charge accumulation enabled, fixed charges are counted twice per day")
	}
	return &Calculator{catalog: catalog, opts: opts, log: log}
}

// Catalog returns the catalog the calculator prices against.
func (c *Calculator) Catalog() *tariff.Catalog { return c.catalog }

// ElectricBreakdown itemizes one annual electric bill.
type ElectricBreakdown struct {
	Utility    model.Utility
	Plan       string
	KWh        map[model.TariffPeriod]decimal.Decimal
	EnergyCost decimal.Decimal
	FixedCost  decimal.Decimal
	Total      decimal.Decimal
}

// ElectricPlanCost returns the annual USD bill of load under plan.
func (c *Calculator) ElectricPlanCost(load []float64, utility model.Utility, plan string) (decimal.Decimal, error) {
	kwh, err := hourlyDecimals(load)
	if err != nil {
		return decimal.Decimal{}, err
	}
	b, err := c.electricBreakdown(kwh, utility, plan)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return b.Total, nil
}

// ElectricBreakdown prices load under plan and itemizes the result.
func (c *Calculator) ElectricBreakdown(load []float64, utility model.Utility, plan string) (*ElectricBreakdown, error) {
	kwh, err := hourlyDecimals(load)
	if err != nil {
		return nil, err
	}
	return c.electricBreakdown(kwh, utility, plan)
}

// ElectricCosts prices load under every electric plan of utility.
func (c *Calculator) ElectricCosts(load []float64, utility model.Utility) (map[string]decimal.Decimal, error) {
	plans := c.catalog.ElectricPlans(utility)
	if len(plans) == 0 {
		return nil, &model.ConfigurationError{Utility: utility, Reason: "no electric rate plans"}
	}
	kwh, err := hourlyDecimals(load)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(plans))
	for _, p := range plans {
		b, err := c.electricBreakdown(kwh, utility, p.Name)
		if err != nil {
			return nil, err
		}
		out[p.Name] = b.Total
	}
	return out, nil
}

func (c *Calculator) electricBreakdown(kwh []decimal.Decimal, utility model.Utility, name string) (*ElectricBreakdown, error) {
	plan, err := c.catalog.ElectricPlan(utility, name)
	if err != nil {
		return nil, err
	}

	// Resolve all four sections first so a gap in the catalog fails before
	// any accumulation.
	sections := make(map[model.Season]map[model.DayType]*tariff.SeasonRateSection, len(model.Seasons))
	for _, season := range model.Seasons {
		sections[season] = make(map[model.DayType]*tariff.SeasonRateSection, len(model.DayTypes))
		for _, dt := range model.DayTypes {
			sec, err := plan.Section(season, dt)
			if err != nil {
				return nil, err
			}
			sections[season][dt] = sec
		}
	}

	twelve := decimal.NewFromInt(12)
	b := &ElectricBreakdown{
		Utility: utility,
		Plan:    name,
		KWh:     make(map[model.TariffPeriod]decimal.Decimal, len(model.Periods)),
	}
	for i, load := range kwh {
		ts := calendar.HourTimestamp(i)
		season, dt := calendar.Classify(ts)
		sec := sections[season][dt]

		period, price, err := tariff.SelectPrice(sec, ts.Hour())
		if err != nil {
			return nil, eris.Wrapf(err, "ratecalc: %s %s hour %d", utility, name, i)
		}
		price = c.opts.Tier.UnitPrice(plan, ts, load, price)

		b.EnergyCost = b.EnergyCost.Add(load.Mul(price))
		b.KWh[period] = b.KWh[period].Add(load)

		switch c.opts.FixedCharge {
		case FixedChargeDaily:
			if ts.Hour() == 0 {
				b.FixedCost = b.FixedCost.Add(sec.FixedCharge)
			}
		case FixedChargeMonthly:
			if ts.Day() == 1 && ts.Hour() == 0 {
				b.FixedCost = b.FixedCost.Add(sec.FixedCharge)
			}
		case FixedChargeLegacy:
			b.FixedCost = b.FixedCost.Add(sec.FixedCharge.Div(twelve))
		}
	}
	b.Total = b.EnergyCost.Add(b.FixedCost)

	c.log.Debug("electric plan priced",
		zap.String("utility", string(utility)),
		zap.String("plan", name),
		zap.String("total", b.Total.StringFixed(2)),
	)
	return b, nil
}

// hourlyDecimals converts a full-year hourly profile to exact decimals.
func hourlyDecimals(load []float64) ([]decimal.Decimal, error) {
	if len(load) != calendar.HoursPerYear {
		return nil, &model.DataShapeError{
			Reason: fmt.Sprintf("electric load profile has %d hours, want %d", len(load), calendar.HoursPerYear),
		}
	}
	return toDecimals(load, "hour")
}

func toDecimals(values []float64, unit string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &model.DataShapeError{Reason: fmt.Sprintf("%s %d is not a finite number", unit, i)}
		}
		out[i] = decimal.NewFromFloat(v)
	}
	return out, nil
}
