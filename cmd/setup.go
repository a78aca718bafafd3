package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/electrify-cli/internal/ratecalc"
	"github.com/sells-group/electrify-cli/internal/tariff"
	"github.com/sells-group/electrify-cli/internal/territory"
)

// loadCatalog returns the configured tariff catalog, or the embedded one.
func loadCatalog() (*tariff.Catalog, error) {
	return tariff.Load(cfg.Rates.CatalogPath)
}

func newCalculator() (*ratecalc.Calculator, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	mode, err := ratecalc.ParseFixedChargeMode(cfg.Rates.FixedChargeMode())
	if err != nil {
		return nil, eris.Wrap(err, "rates")
	}
	return ratecalc.NewCalculator(cat, ratecalc.Options{FixedCharge: mode}), nil
}

func newResolver() (*territory.Resolver, error) {
	return territory.New(territory.WithLegacyDefault(cfg.Rates.LegacyDefaultTerritory))
}

// selectionFlags are the scenario/housing/county selectors shared by the
// batch commands.
type selectionFlags struct {
	scenarios    []string
	housingTypes []string
	counties     []string
}

func (f *selectionFlags) scenarioList() []string {
	if len(f.scenarios) > 0 {
		return f.scenarios
	}
	return cfg.Data.Scenarios
}

func (f *selectionFlags) housingTypeList() []string {
	if len(f.housingTypes) > 0 {
		return f.housingTypes
	}
	return cfg.Data.HousingTypes
}

// countyList returns the selected counties as slugs, or every known county.
func (f *selectionFlags) countyList(resolver *territory.Resolver) []string {
	if len(f.counties) == 0 {
		return resolver.AllCounties()
	}
	out := make([]string, len(f.counties))
	for i, c := range f.counties {
		out[i] = territory.Slugify(c)
	}
	return out
}
