package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Utility identifies a California investor-owned utility.
type Utility string

const (
	UtilityPGE  Utility = "PG&E"
	UtilitySCE  Utility = "SCE"
	UtilitySDGE Utility = "SDG&E"
)

// Utilities lists every supported utility in catalog order.
var Utilities = []Utility{UtilityPGE, UtilitySCE, UtilitySDGE}

// ParseUtility accepts the canonical name or a loose spelling ("pge", "sdge").
func ParseUtility(s string) (Utility, error) {
	norm := strings.ToUpper(strings.NewReplacer("&", "", "-", "", " ", "").Replace(s))
	switch norm {
	case "PGE":
		return UtilityPGE, nil
	case "SCE":
		return UtilitySCE, nil
	case "SDGE":
		return UtilitySDGE, nil
	}
	return "", eris.Errorf("model: unknown utility %q", s)
}

// Territory is a utility-specific climate/billing sub-zone ("T", "Y&Z", "Zone1", "all").
type Territory string

// Season is the two-way electric season.
type Season string

const (
	SeasonSummer Season = "summer"
	SeasonWinter Season = "winter"
)

// Seasons lists the electric seasons.
var Seasons = []Season{SeasonSummer, SeasonWinter}

// GasSeason is the three-way gas season bucket.
type GasSeason string

const (
	GasSeasonSummer        GasSeason = "summer"
	GasSeasonWinterOffPeak GasSeason = "winter_offpeak"
	GasSeasonWinterOnPeak  GasSeason = "winter_onpeak"
)

// GasSeasons lists the gas season buckets.
var GasSeasons = []GasSeason{GasSeasonSummer, GasSeasonWinterOffPeak, GasSeasonWinterOnPeak}

// DayType splits a week into weekdays and weekends.
type DayType string

const (
	DayTypeWeekday DayType = "weekdays"
	DayTypeWeekend DayType = "weekends"
)

// DayTypes lists both day types.
var DayTypes = []DayType{DayTypeWeekday, DayTypeWeekend}

// TariffPeriod is a time-of-use pricing period.
type TariffPeriod string

const (
	PeriodPeak         TariffPeriod = "peak"
	PeriodPartPeak     TariffPeriod = "partPeak"
	PeriodSuperOffPeak TariffPeriod = "superOffPeak"
	PeriodOffPeak      TariffPeriod = "offPeak"
)

// Periods lists the tariff periods in selection precedence order.
var Periods = []TariffPeriod{PeriodPeak, PeriodPartPeak, PeriodSuperOffPeak, PeriodOffPeak}

// Commodity is the metered energy carrier.
type Commodity string

const (
	CommodityElectricity Commodity = "electricity"
	CommodityGas         Commodity = "gas"
)

// Unit returns the load-profile unit suffix for the commodity.
func (c Commodity) Unit() string {
	if c == CommodityGas {
		return "therms"
	}
	return "kwh"
}

// ParseCommodity validates a commodity name.
func ParseCommodity(s string) (Commodity, error) {
	switch Commodity(strings.ToLower(s)) {
	case CommodityElectricity:
		return CommodityElectricity, nil
	case CommodityGas:
		return CommodityGas, nil
	}
	return "", eris.Errorf("model: unknown commodity %q", s)
}

// Supply is the supply condition of a load profile.
type Supply string

const (
	SupplyDefault      Supply = "default"
	SupplySolarStorage Supply = "solarstorage"
)

// Supplies lists both supply conditions.
var Supplies = []Supply{SupplyDefault, SupplySolarStorage}

// ParseSupply validates a supply name.
func ParseSupply(s string) (Supply, error) {
	switch Supply(strings.ToLower(s)) {
	case SupplyDefault:
		return SupplyDefault, nil
	case SupplySolarStorage:
		return SupplySolarStorage, nil
	}
	return "", eris.Errorf("model: unknown supply %q", s)
}
