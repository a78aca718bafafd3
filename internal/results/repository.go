package results

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/model"
)

// Repository reads and writes the result files under one base directory.
// It is safe for concurrent use.
type Repository struct {
	base  string
	locks Locker
	now   func() time.Time
	log   *zap.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithClock overrides the clock used to stamp result file names.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// NewRepository returns a Repository rooted at base.
func NewRepository(base string, opts ...RepositoryOption) *Repository {
	r := &Repository{
		base: base,
		now:  time.Now,
		log:  zap.L().With(zap.String("component", "results")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Base returns the root directory.
func (r *Repository) Base() string { return r.base }

// Merge merges t into the current-hour result file of kind for county and
// returns the file path.
func (r *Repository) Merge(scenario, housingType, county string, kind Kind, t *Table) (string, error) {
	path := Path(r.base, scenario, housingType, county, kind, Timestamp(r.now()))
	if _, err := r.locks.MergeInto(path, t); err != nil {
		return "", err
	}
	r.log.Debug("merged result row",
		zap.String("path", path),
		zap.Strings("rows", t.Rows()),
		zap.Int("columns", len(t.Columns())),
	)
	return path, nil
}

// Latest returns the newest result file of kind for county.
func (r *Repository) Latest(scenario, housingType, county string, kind Kind) (string, error) {
	return Latest(r.base, scenario, housingType, county, kind)
}

// LatestTable reads the newest result file of kind for county.
func (r *Repository) LatestTable(scenario, housingType, county string, kind Kind) (*Table, string, error) {
	path, err := r.Latest(scenario, housingType, county, kind)
	if err != nil {
		return nil, "", err
	}
	t, err := ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return t, path, nil
}

// CombineTotals adds every electric plan to every gas plan of the same
// utility using the newest electricity and gas files of county, merges the
// sums into the current totals file and returns its path.
func (r *Repository) CombineTotals(scenario, housingType, county string) (string, *Table, error) {
	electric, _, err := r.LatestTable(scenario, housingType, county, KindElectricity)
	if err != nil {
		return "", nil, err
	}
	gas, _, err := r.LatestTable(scenario, housingType, county, KindGas)
	if err != nil {
		return "", nil, err
	}

	totals, err := Totals(electric, gas)
	if err != nil {
		return "", nil, err
	}
	if len(totals.Rows()) == 0 {
		return "", nil, &model.DataShapeError{Source: county, Reason: "electricity and gas results share no priced rows"}
	}

	path, err := r.Merge(scenario, housingType, county, KindTotal, totals)
	if err != nil {
		return "", nil, err
	}
	return path, totals, nil
}

// TotalColumnKey names the sum of an electric and a gas plan.
func TotalColumnKey(utility model.Utility, electricPlan, gasPlan string) string {
	return fmt.Sprintf("%s.%s.%s+%s.%s", KindTotal, utility, electricPlan, utility, gasPlan)
}

type planColumn struct {
	name    string
	utility model.Utility
	plan    string
}

func planColumns(t *Table, commodity model.Commodity) []planColumn {
	var out []planColumn
	for _, col := range t.Columns() {
		parts := strings.SplitN(col, ".", 3)
		if len(parts) != 3 || parts[0] != string(commodity) {
			continue
		}
		out = append(out, planColumn{name: col, utility: model.Utility(parts[1]), plan: parts[2]})
	}
	return out
}

// Totals sums each electric column with each gas column of the same utility,
// row by row. Rows missing from either table are skipped.
func Totals(electric, gas *Table) (*Table, error) {
	eCols := planColumns(electric, model.CommodityElectricity)
	gCols := planColumns(gas, model.CommodityGas)

	out := NewTable()
	for _, row := range electric.Rows() {
		for _, ec := range eCols {
			ev, ok := electric.Get(row, ec.name)
			if !ok {
				continue
			}
			for _, gc := range gCols {
				if gc.utility != ec.utility {
					continue
				}
				gv, ok := gas.Get(row, gc.name)
				if !ok {
					continue
				}
				sum, err := addCells(ev, gv)
				if err != nil {
					return nil, eris.Wrapf(err, "results: row %s %s + %s", row, ec.name, gc.name)
				}
				out.SetUSD(row, TotalColumnKey(ec.utility, ec.plan, gc.plan), sum)
			}
		}
	}
	return out, nil
}

func addCells(a, b string) (decimal.Decimal, error) {
	x, err := decimal.NewFromString(a)
	if err != nil {
		return decimal.Decimal{}, &model.DataShapeError{Reason: fmt.Sprintf("cell %q is not a number", a)}
	}
	y, err := decimal.NewFromString(b)
	if err != nil {
		return decimal.Decimal{}, &model.DataShapeError{Reason: fmt.Sprintf("cell %q is not a number", b)}
	}
	return x.Add(y), nil
}
