// Package tariff holds the residential tariff catalog: electric time-of-use
// rate sections and gas baseline/excess plans for each utility.
package tariff

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/electrify-cli/internal/model"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Catalog is an immutable, validated set of rate plans.
type Catalog struct {
	version  string
	electric map[model.Utility]map[string]*ElectricPlan
	gas      map[model.Utility]map[string]*GasPlan
}

// ElectricPlan is one electric rate product of a utility.
type ElectricPlan struct {
	Utility            model.Utility
	Name               string
	Source             string
	BaselineCredit     decimal.NullDecimal
	MinimumDailyCharge decimal.NullDecimal
	// BaselineAllowances is kWh/day per territory and season. Carried for
	// reference; the accumulator does not apply electric baseline tiers.
	BaselineAllowances map[model.Territory]map[model.Season]decimal.Decimal

	sections map[model.Season]map[model.DayType]*SeasonRateSection
}

// PeriodRate is the unit price and hours of one tariff period.
type PeriodRate struct {
	Price decimal.NullDecimal
	Hours []int
}

// SeasonRateSection prices every hour of one (season, day type) pair.
type SeasonRateSection struct {
	Peak         PeriodRate
	PartPeak     PeriodRate
	SuperOffPeak PeriodRate
	OffPeak      PeriodRate
	FixedCharge  decimal.Decimal
}

// Period returns the rate of period p.
func (s *SeasonRateSection) Period(p model.TariffPeriod) PeriodRate {
	switch p {
	case model.PeriodPeak:
		return s.Peak
	case model.PeriodPartPeak:
		return s.PartPeak
	case model.PeriodSuperOffPeak:
		return s.SuperOffPeak
	default:
		return s.OffPeak
	}
}

// TierCharge is a per-therm gas charge and its components.
type TierCharge struct {
	Procurement decimal.NullDecimal
	Delivery    decimal.NullDecimal
	Total       decimal.Decimal
}

// GasPlan is one gas rate product of a utility.
type GasPlan struct {
	Utility            model.Utility
	Name               string
	Source             string
	Baseline           TierCharge
	Excess             TierCharge
	CustomerCharge     decimal.NullDecimal
	MinimumDailyCharge decimal.NullDecimal
	// Allowances is therms per territory and gas season.
	Allowances map[model.Territory]map[model.GasSeason]decimal.Decimal
}

// Embedded returns the catalog compiled into the binary.
func Embedded() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Embedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tariff: read catalog %s", path)
	}
	return Parse(data)
}

// Parse decodes, normalizes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "tariff: decode catalog")
	}

	c := &Catalog{
		version:  doc.Version,
		electric: make(map[model.Utility]map[string]*ElectricPlan),
		gas:      make(map[model.Utility]map[string]*GasPlan),
	}
	for utility, plans := range doc.Electric {
		c.electric[utility] = make(map[string]*ElectricPlan, len(plans))
		for name, pd := range plans {
			plan, err := buildElectricPlan(utility, name, pd)
			if err != nil {
				return nil, err
			}
			c.electric[utility][name] = plan
		}
	}
	for utility, plans := range doc.Gas {
		c.gas[utility] = make(map[string]*GasPlan, len(plans))
		for name, pd := range plans {
			c.gas[utility][name] = buildGasPlan(utility, name, pd)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Version returns the catalog document version.
func (c *Catalog) Version() string { return c.version }

// Utilities returns the utilities that have at least one plan, in canonical order.
func (c *Catalog) Utilities() []model.Utility {
	var out []model.Utility
	for _, u := range model.Utilities {
		if len(c.electric[u]) > 0 || len(c.gas[u]) > 0 {
			out = append(out, u)
		}
	}
	return out
}

// ElectricPlan returns the named electric plan of utility.
func (c *Catalog) ElectricPlan(utility model.Utility, name string) (*ElectricPlan, error) {
	p, ok := c.electric[utility][name]
	if !ok {
		return nil, &model.ConfigurationError{Utility: utility, Plan: name, Reason: "unknown electric rate plan"}
	}
	return p, nil
}

// ElectricPlans returns every electric plan of utility sorted by name.
func (c *Catalog) ElectricPlans(utility model.Utility) []*ElectricPlan {
	plans := make([]*ElectricPlan, 0, len(c.electric[utility]))
	for _, p := range c.electric[utility] {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Name < plans[j].Name })
	return plans
}

// GasPlan returns the named gas plan of utility.
func (c *Catalog) GasPlan(utility model.Utility, name string) (*GasPlan, error) {
	p, ok := c.gas[utility][name]
	if !ok {
		return nil, &model.ConfigurationError{Utility: utility, Plan: name, Reason: "unknown gas rate plan"}
	}
	return p, nil
}

// GasPlans returns every gas plan of utility sorted by name.
func (c *Catalog) GasPlans(utility model.Utility) []*GasPlan {
	plans := make([]*GasPlan, 0, len(c.gas[utility]))
	for _, p := range c.gas[utility] {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Name < plans[j].Name })
	return plans
}

// Section returns the rate section for season and day type.
func (p *ElectricPlan) Section(season model.Season, dayType model.DayType) (*SeasonRateSection, error) {
	s, ok := p.sections[season][dayType]
	if !ok {
		return nil, &model.ConfigurationError{
			Utility: p.Utility,
			Plan:    p.Name,
			Season:  string(season),
			DayType: dayType,
			Reason:  "no rate section",
		}
	}
	return s, nil
}

// Allowance returns the baseline allowance of territory for a gas season.
func (p *GasPlan) Allowance(territory model.Territory, season model.GasSeason) (decimal.Decimal, error) {
	a, ok := p.Allowances[territory][season]
	if !ok {
		return decimal.Decimal{}, &model.ConfigurationError{
			Utility:   p.Utility,
			Plan:      p.Name,
			Territory: territory,
			Season:    string(season),
			Reason:    "no baseline allowance",
		}
	}
	return a, nil
}

// Territories returns the territories with allowances, sorted.
func (p *GasPlan) Territories() []model.Territory {
	out := make([]model.Territory, 0, len(p.Allowances))
	for t := range p.Allowances {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
