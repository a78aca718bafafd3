package tariff

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/sells-group/electrify-cli/internal/model"
)

// SelectPrice returns the period and unit price that apply at hour of day.
// Peak hours win over part-peak, part-peak over super-off-peak, and any hour
// not claimed by those falls to off-peak.
func SelectPrice(s *SeasonRateSection, hour int) (model.TariffPeriod, decimal.Decimal, error) {
	if hour < 0 || hour > 23 {
		return "", decimal.Decimal{}, &model.DataShapeError{Reason: fmt.Sprintf("hour of day %d outside 0-23", hour)}
	}

	for _, p := range model.Periods[:3] {
		rate := s.Period(p)
		if !slices.Contains(rate.Hours, hour) {
			continue
		}
		if !rate.Price.Valid {
			return "", decimal.Decimal{}, &model.ConfigurationError{Reason: fmt.Sprintf("%s hour %d has no price", p, hour)}
		}
		return p, rate.Price.Decimal, nil
	}

	if !s.OffPeak.Price.Valid {
		return "", decimal.Decimal{}, &model.ConfigurationError{Reason: fmt.Sprintf("hour %d falls to off-peak but off-peak has no price", hour)}
	}
	return model.PeriodOffPeak, s.OffPeak.Price.Decimal, nil
}
