// Package loadprofile reads the per-county hourly load profiles produced by
// the upstream simulation steps.
package loadprofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/electrify-cli/internal/calendar"
	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/ratecalc"
)

// TimestampColumn is the header of the reading timestamp column.
const TimestampColumn = "timestamp"

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
}

// Profile is one parsed load profile file. Columns are parsed on demand.
type Profile struct {
	source string
	header map[string]int
	rows   [][]string
}

// Path returns the conventional location of a county load profile.
func Path(inputDir, scenario, housingType, county string) string {
	return filepath.Join(inputDir, scenario, housingType, county,
		fmt.Sprintf("loadprofiles_for_rates_%s.csv", county))
}

// ColumnName returns the profile column holding commodity for supply,
// e.g. "default.electricity.kwh".
func ColumnName(supply model.Supply, commodity model.Commodity) string {
	return fmt.Sprintf("%s.%s.%s", supply, commodity, commodity.Unit())
}

// Read opens and parses the profile at path. A missing file is reported as
// a MissingInputError.
func Read(ctx context.Context, path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingInputError{Path: path, Err: err}
		}
		return nil, eris.Wrapf(err, "loadprofile: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Parse(ctx, f, path)
}

// Parse reads a profile from r. source names the profile in errors.
func Parse(ctx context.Context, r io.Reader, source string) (*Profile, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rowCh, errCh := streamCSV(ctx, r)

	p := &Profile{source: source}
	for record := range rowCh {
		if p.header == nil {
			p.header = make(map[string]int, len(record))
			for i, name := range record {
				p.header[strings.TrimPrefix(name, "\ufeff")] = i
			}
			continue
		}
		p.rows = append(p.rows, record)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if p.header == nil {
		return nil, &model.DataShapeError{Source: source, Reason: "empty file"}
	}
	return p, nil
}

// Source returns the path or name the profile was read from.
func (p *Profile) Source() string { return p.source }

// Len returns the number of data rows.
func (p *Profile) Len() int { return len(p.rows) }

// HasColumn reports whether the header contains name.
func (p *Profile) HasColumn(name string) bool {
	_, ok := p.header[name]
	return ok
}

// Column parses every value of the named column.
func (p *Profile) Column(name string) ([]float64, error) {
	return p.columnPrefix(name, len(p.rows))
}

func (p *Profile) columnPrefix(name string, n int) ([]float64, error) {
	idx, ok := p.header[name]
	if !ok {
		return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("missing column %q", name)}
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		row := p.rows[i]
		if idx >= len(row) {
			return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("row %d has no %q value", i+1, name)}
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("row %d: %q is not a number: %q", i+1, name, row[idx])}
		}
		out[i] = v
	}
	return out, nil
}

// Electricity returns the first 8760 hourly kWh values for supply. Rows past
// the first year are ignored.
func (p *Profile) Electricity(supply model.Supply) ([]float64, error) {
	name := ColumnName(supply, model.CommodityElectricity)
	if !p.HasColumn(name) {
		return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("missing column %q", name)}
	}
	if len(p.rows) < calendar.HoursPerYear {
		return nil, &model.DataShapeError{
			Source: p.source,
			Reason: fmt.Sprintf("%d rows, want at least %d", len(p.rows), calendar.HoursPerYear),
		}
	}
	return p.columnPrefix(name, calendar.HoursPerYear)
}

// Gas returns the timestamped therms readings for supply.
func (p *Profile) Gas(supply model.Supply) (ratecalc.GasUsage, error) {
	therms, err := p.Column(ColumnName(supply, model.CommodityGas))
	if err != nil {
		return ratecalc.GasUsage{}, err
	}
	ts, err := p.Timestamps()
	if err != nil {
		return ratecalc.GasUsage{}, err
	}
	return ratecalc.GasUsage{Timestamps: ts, Therms: therms}, nil
}

// Timestamps parses the timestamp column.
func (p *Profile) Timestamps() ([]time.Time, error) {
	idx, ok := p.header[TimestampColumn]
	if !ok {
		return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("missing column %q", TimestampColumn)}
	}

	out := make([]time.Time, len(p.rows))
	for i, row := range p.rows {
		if idx >= len(row) {
			return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("row %d has no timestamp", i+1)}
		}
		ts, err := ParseTimestamp(row[idx])
		if err != nil {
			return nil, &model.DataShapeError{Source: p.source, Reason: fmt.Sprintf("row %d: %v", i+1, err)}
		}
		out[i] = ts
	}
	return out, nil
}

// ParseTimestamp parses a profile timestamp in any of the accepted layouts.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognized timestamp %q", s)
}

// Stats summarizes a series for logging.
type Stats struct {
	Total float64
	Peak  float64
}

// Summarize returns the total and the largest value of values.
func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	return Stats{Total: floats.Sum(values), Peak: floats.Max(values)}
}
