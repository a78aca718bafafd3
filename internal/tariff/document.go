package tariff

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/electrify-cli/internal/model"
)

// dayTypeAll is the document key for a section shared by weekdays and weekends.
const dayTypeAll = "all"

type catalogDoc struct {
	Version  string                                   `yaml:"version"`
	Electric map[model.Utility]map[string]electricDoc `yaml:"electric"`
	Gas      map[model.Utility]map[string]gasDoc      `yaml:"gas"`
}

type electricDoc struct {
	Source             string                                               `yaml:"source"`
	BaselineCredit     *decimal.Decimal                                     `yaml:"baseline_credit"`
	MinimumDailyCharge *decimal.Decimal                                     `yaml:"minimum_daily_charge"`
	BaselineAllowances map[model.Territory]map[model.Season]decimal.Decimal `yaml:"baseline_allowances"`
	Seasons            map[model.Season]map[string]sectionDoc               `yaml:"seasons"`
}

type sectionDoc struct {
	Peak              *decimal.Decimal `yaml:"peak"`
	PartPeak          *decimal.Decimal `yaml:"part_peak"`
	SuperOffPeak      *decimal.Decimal `yaml:"super_off_peak"`
	OffPeak           *decimal.Decimal `yaml:"off_peak"`
	PeakHours         []int            `yaml:"peak_hours"`
	PartPeakHours     []int            `yaml:"part_peak_hours"`
	SuperOffPeakHours []int            `yaml:"super_off_peak_hours"`
	OffPeakHours      []int            `yaml:"off_peak_hours"`
	FixedCharge       *decimal.Decimal `yaml:"fixed_charge"`
}

type tierDoc struct {
	Procurement *decimal.Decimal `yaml:"procurement"`
	Delivery    *decimal.Decimal `yaml:"delivery"`
	Total       *decimal.Decimal `yaml:"total"`
}

type gasDoc struct {
	Source             string                                                  `yaml:"source"`
	Baseline           tierDoc                                                 `yaml:"baseline"`
	Excess             tierDoc                                                 `yaml:"excess"`
	CustomerCharge     *decimal.Decimal                                        `yaml:"customer_charge"`
	MinimumDailyCharge *decimal.Decimal                                        `yaml:"minimum_daily_charge"`
	Territories        map[model.Territory]map[model.GasSeason]decimal.Decimal `yaml:"territories"`
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func buildElectricPlan(utility model.Utility, name string, pd electricDoc) (*ElectricPlan, error) {
	plan := &ElectricPlan{
		Utility:            utility,
		Name:               name,
		Source:             pd.Source,
		BaselineCredit:     nullable(pd.BaselineCredit),
		MinimumDailyCharge: nullable(pd.MinimumDailyCharge),
		BaselineAllowances: pd.BaselineAllowances,
		sections:           make(map[model.Season]map[model.DayType]*SeasonRateSection, len(pd.Seasons)),
	}

	for season, byDay := range pd.Seasons {
		cfgErr := func(dayType model.DayType, reason string) error {
			return &model.ConfigurationError{Utility: utility, Plan: name, Season: string(season), DayType: dayType, Reason: reason}
		}

		plan.sections[season] = make(map[model.DayType]*SeasonRateSection, len(model.DayTypes))
		if shared, ok := byDay[dayTypeAll]; ok {
			if len(byDay) > 1 {
				return nil, cfgErr("", "section \"all\" cannot be combined with weekdays/weekends")
			}
			sec, reason := buildSection(shared)
			if reason != "" {
				return nil, cfgErr("", reason)
			}
			for _, dt := range model.DayTypes {
				plan.sections[season][dt] = sec
			}
			continue
		}

		for key, sd := range byDay {
			dt := model.DayType(key)
			if dt != model.DayTypeWeekday && dt != model.DayTypeWeekend {
				return nil, cfgErr(dt, "unknown day type")
			}
			sec, reason := buildSection(sd)
			if reason != "" {
				return nil, cfgErr(dt, reason)
			}
			plan.sections[season][dt] = sec
		}
	}
	return plan, nil
}

// buildSection normalizes a section so every period has a price. It returns
// a non-empty reason when the section cannot be priced.
func buildSection(sd sectionDoc) (*SeasonRateSection, string) {
	if sd.OffPeak == nil {
		return nil, "off-peak price missing"
	}
	off := decimal.NullDecimal{Decimal: *sd.OffPeak, Valid: true}

	period := func(label string, price *decimal.Decimal, hours []int) (PeriodRate, string) {
		pr := PeriodRate{Hours: sortedCopy(hours)}
		switch {
		case price != nil:
			pr.Price = nullable(price)
		case len(hours) > 0:
			return pr, fmt.Sprintf("%s hours without a %s price", label, label)
		default:
			pr.Price = off
		}
		return pr, ""
	}

	sec := &SeasonRateSection{OffPeak: PeriodRate{Price: off, Hours: sortedCopy(sd.OffPeakHours)}}
	var reason string
	if sec.Peak, reason = period("peak", sd.Peak, sd.PeakHours); reason != "" {
		return nil, reason
	}
	if sec.PartPeak, reason = period("part-peak", sd.PartPeak, sd.PartPeakHours); reason != "" {
		return nil, reason
	}
	if sec.SuperOffPeak, reason = period("super-off-peak", sd.SuperOffPeak, sd.SuperOffPeakHours); reason != "" {
		return nil, reason
	}
	if sd.FixedCharge != nil {
		sec.FixedCharge = *sd.FixedCharge
	}
	return sec, ""
}

func buildGasPlan(utility model.Utility, name string, pd gasDoc) *GasPlan {
	tier := func(td tierDoc) TierCharge {
		tc := TierCharge{Procurement: nullable(td.Procurement), Delivery: nullable(td.Delivery)}
		if td.Total != nil {
			tc.Total = *td.Total
		}
		return tc
	}
	return &GasPlan{
		Utility:            utility,
		Name:               name,
		Source:             pd.Source,
		Baseline:           tier(pd.Baseline),
		Excess:             tier(pd.Excess),
		CustomerCharge:     nullable(pd.CustomerCharge),
		MinimumDailyCharge: nullable(pd.MinimumDailyCharge),
		Allowances:         pd.Territories,
	}
}

func sortedCopy(hours []int) []int {
	out := append([]int(nil), hours...)
	sort.Ints(out)
	return out
}
