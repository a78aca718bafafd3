package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/electrify-cli/internal/model"
)

// TimestampLayout formats the run hour embedded in result file names.
const TimestampLayout = "20060102_15"

// Kind names a family of result files.
type Kind string

const (
	KindElectricity Kind = "electricity"
	KindGas         Kind = "gas"
	KindTotal       Kind = "total"
)

// KindFor returns the result kind of a commodity.
func KindFor(c model.Commodity) Kind {
	if c == model.CommodityGas {
		return KindGas
	}
	return KindElectricity
}

// ParseKind validates a result kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindElectricity, KindGas, KindTotal:
		return k, nil
	case "totals":
		return KindTotal, nil
	}
	return "", eris.Errorf("results: unknown result kind %q", s)
}

func (k Kind) dir() string {
	if k == KindTotal {
		return "totals"
	}
	return string(k)
}

// Timestamp formats t as a result file timestamp.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Dir returns the directory holding a county's result files of kind.
func Dir(base, scenario, housingType, county string, kind Kind) string {
	return filepath.Join(base, scenario, housingType, county, "results", kind.dir())
}

// FilePrefix returns the file name prefix shared by every timestamped
// result file of kind for county.
func FilePrefix(county string, kind Kind) string {
	return fmt.Sprintf("RESULTS_%s_annual_costs_%s_", kind, county)
}

// Path returns the result file of kind for county written at ts.
func Path(base, scenario, housingType, county string, kind Kind, ts string) string {
	return filepath.Join(Dir(base, scenario, housingType, county, kind), FilePrefix(county, kind)+ts+".csv")
}

// RowKey returns the table row of scenario under supply.
func RowKey(scenario string, supply model.Supply) string {
	if supply == model.SupplyDefault || supply == "" {
		return scenario
	}
	return scenario + "." + string(supply)
}

// ColumnKey returns the table column of a rate plan.
func ColumnKey(commodity model.Commodity, utility model.Utility, plan string) string {
	return fmt.Sprintf("%s.%s.%s", commodity, utility, plan)
}

// Latest returns the newest result file of kind for county. Timestamps sort
// lexically, so the greatest file name wins.
func Latest(base, scenario, housingType, county string, kind Kind) (string, error) {
	dir := Dir(base, scenario, housingType, county, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &model.MissingInputError{Path: dir, Err: err}
		}
		return "", eris.Wrapf(err, "results: list %s", dir)
	}

	prefix := FilePrefix(county, kind)
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".csv") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", &model.MissingInputError{Path: filepath.Join(dir, prefix+"*.csv"), Err: os.ErrNotExist}
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
