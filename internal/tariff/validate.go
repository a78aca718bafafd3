package tariff

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/electrify-cli/internal/model"
)

// Validate checks every plan of the catalog. Every electric section must
// assign each hour 0-23 to exactly one period, and every gas plan must carry
// allowances for all three gas seasons in each of its territories.
func (c *Catalog) Validate() error {
	for utility, plans := range c.electric {
		for name, plan := range plans {
			for _, season := range model.Seasons {
				for _, dt := range model.DayTypes {
					sec, err := plan.Section(season, dt)
					if err != nil {
						return err
					}
					if err := CheckHourCoverage(sec); err != nil {
						return &model.ConfigurationError{
							Utility: utility,
							Plan:    name,
							Season:  string(season),
							DayType: dt,
							Reason:  err.Error(),
						}
					}
				}
			}
		}
	}

	for _, plans := range c.gas {
		for _, plan := range plans {
			if err := validateGasPlan(plan); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckHourCoverage reports hours outside 0-23, hours claimed by more than
// one period and hours claimed by none.
func CheckHourCoverage(s *SeasonRateSection) error {
	var seen [24]int
	var outOfRange []int
	for _, p := range model.Periods {
		for _, h := range s.Period(p).Hours {
			if h < 0 || h > 23 {
				outOfRange = append(outOfRange, h)
				continue
			}
			seen[h]++
		}
	}

	var missing, overlapping []int
	for h, n := range seen {
		switch {
		case n == 0:
			missing = append(missing, h)
		case n > 1:
			overlapping = append(overlapping, h)
		}
	}

	var problems []string
	if len(outOfRange) > 0 {
		problems = append(problems, fmt.Sprintf("hours out of range %v", outOfRange))
	}
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("hours without a period %v", missing))
	}
	if len(overlapping) > 0 {
		problems = append(problems, fmt.Sprintf("hours in more than one period %v", overlapping))
	}
	if len(problems) > 0 {
		return eris.New(strings.Join(problems, "; "))
	}
	return nil
}

func validateGasPlan(p *GasPlan) error {
	cfgErr := func(territory model.Territory, season, reason string) error {
		return &model.ConfigurationError{Utility: p.Utility, Plan: p.Name, Territory: territory, Season: season, Reason: reason}
	}

	for label, tier := range map[string]TierCharge{"baseline": p.Baseline, "excess": p.Excess} {
		if !tier.Total.IsPositive() {
			return cfgErr("", "", label+" total charge must be positive")
		}
		if tier.Procurement.Valid && tier.Delivery.Valid &&
			!tier.Procurement.Decimal.Add(tier.Delivery.Decimal).Equal(tier.Total) {
			return cfgErr("", "", label+" procurement and delivery charges do not sum to the total")
		}
	}

	if len(p.Allowances) == 0 {
		return cfgErr("", "", "no territories")
	}
	for territory, bySeason := range p.Allowances {
		for _, season := range model.GasSeasons {
			a, ok := bySeason[season]
			if !ok {
				return cfgErr(territory, string(season), "no baseline allowance")
			}
			if a.IsNegative() {
				return cfgErr(territory, string(season), "negative baseline allowance")
			}
		}
	}
	return nil
}
