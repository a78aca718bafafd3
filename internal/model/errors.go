package model

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why an evaluation could not produce a cost.
type FailureKind string

const (
	FailureResolution    FailureKind = "resolution"
	FailureConfiguration FailureKind = "configuration"
	FailureMissingInput  FailureKind = "missing_input"
	FailureDataShape     FailureKind = "data_shape"
	FailureInternal      FailureKind = "internal"
)

// ResolutionError reports a county that cannot be mapped to a utility or gas territory.
type ResolutionError struct {
	County  string
	Utility Utility // empty when the utility itself could not be resolved
}

func (e *ResolutionError) Error() string {
	if e.Utility == "" {
		return fmt.Sprintf("resolve: county %q has no utility", e.County)
	}
	return fmt.Sprintf("resolve: county %q has no %s gas territory", e.County, e.Utility)
}

// ConfigurationError reports a rate plan, season, day type or territory
// missing from (or malformed in) the tariff catalog.
type ConfigurationError struct {
	Utility   Utility
	Plan      string
	Territory Territory
	Season    string
	DayType   DayType
	Reason    string
}

func (e *ConfigurationError) Error() string {
	parts := []string{"catalog:", e.Reason}
	for _, kv := range [][2]string{
		{"utility", string(e.Utility)},
		{"plan", e.Plan},
		{"territory", string(e.Territory)},
		{"season", e.Season},
		{"day_type", string(e.DayType)},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, " ")
}

// MissingInputError reports an expected load-profile file that does not exist.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input: load profile not found: %s", e.Path)
}

func (e *MissingInputError) Unwrap() error {
	return e.Err
}

// DataShapeError reports a load profile or lookup whose shape is unusable.
type DataShapeError struct {
	Source string
	Reason string
}

func (e *DataShapeError) Error() string {
	if e.Source == "" {
		return "shape: " + e.Reason
	}
	return fmt.Sprintf("shape: %s: %s", e.Source, e.Reason)
}

// KindOf walks the error chain and returns the failure kind of the first
// taxonomy error found, or FailureInternal.
func KindOf(err error) FailureKind {
	var (
		re *ResolutionError
		ce *ConfigurationError
		me *MissingInputError
		de *DataShapeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &re):
		return FailureResolution
	case errors.As(err, &ce):
		return FailureConfiguration
	case errors.As(err, &me):
		return FailureMissingInput
	case errors.As(err, &de):
		return FailureDataShape
	}
	return FailureInternal
}
