// Package calendar classifies timestamps into electric seasons, gas season
// buckets and day types.
package calendar

import (
	"time"

	"github.com/sells-group/electrify-cli/internal/model"
)

// HoursPerYear is the length of a full electric load profile.
const HoursPerYear = 8760

// Epoch is the wall-clock time of hour index 0. Hour indices advance in
// plain one-hour steps with no leap-day or DST adjustment.
var Epoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// HourTimestamp returns the timestamp of hour index i.
func HourTimestamp(i int) time.Time {
	return Epoch.Add(time.Duration(i) * time.Hour)
}

// Classify returns the electric season and day type of t.
func Classify(t time.Time) (model.Season, model.DayType) {
	return SeasonFor(t.Month()), DayTypeFor(t.Weekday())
}

// SeasonFor maps June through September to summer, everything else to winter.
func SeasonFor(m time.Month) model.Season {
	if m >= time.June && m <= time.September {
		return model.SeasonSummer
	}
	return model.SeasonWinter
}

// DayTypeFor maps Monday through Friday to weekdays.
func DayTypeFor(d time.Weekday) model.DayType {
	if d == time.Saturday || d == time.Sunday {
		return model.DayTypeWeekend
	}
	return model.DayTypeWeekday
}

// GasSeasonFor maps a calendar month to its gas season bucket.
func GasSeasonFor(m time.Month) model.GasSeason {
	switch m {
	case time.December, time.January:
		return model.GasSeasonWinterOnPeak
	case time.November, time.February, time.March:
		return model.GasSeasonWinterOffPeak
	default:
		return model.GasSeasonSummer
	}
}
