package results

import (
	"errors"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/model"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// ExportSummary reports what an export wrote.
type ExportSummary struct {
	Sheets  int
	Skipped []string
}

// ExportXLSX writes the newest result table of kind for each county into
// one workbook at out, one sheet per county. Counties without results are
// skipped.
func (r *Repository) ExportXLSX(scenario, housingType string, counties []string, kind Kind, out string) (*ExportSummary, error) {
	f := xlsx.NewFile()
	summary := &ExportSummary{}

	for _, county := range counties {
		t, path, err := r.LatestTable(scenario, housingType, county, kind)
		if err != nil {
			var missing *model.MissingInputError
			if errors.As(err, &missing) {
				r.log.Info("no results to export", zap.String("county", county), zap.String("kind", string(kind)))
				summary.Skipped = append(summary.Skipped, county)
				continue
			}
			return nil, err
		}

		if err := addSheet(f, county, t); err != nil {
			return nil, eris.Wrapf(err, "results: export %s", path)
		}
		summary.Sheets++
	}

	if summary.Sheets == 0 {
		return summary, eris.Errorf("results: no %s results found for %s/%s", kind, scenario, housingType)
	}
	if err := f.Save(out); err != nil {
		return nil, eris.Wrapf(err, "results: save workbook %s", out)
	}
	return summary, nil
}

func addSheet(f *xlsx.File, name string, t *Table) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "add sheet %s", name)
	}

	header := sheet.AddRow()
	header.AddCell().SetString(IndexColumn)
	for _, col := range t.Columns() {
		header.AddCell().SetString(col)
	}

	for _, row := range t.Rows() {
		xr := sheet.AddRow()
		xr.AddCell().SetString(row)
		for _, col := range t.Columns() {
			cell := xr.AddCell()
			v, ok := t.Get(row, col)
			if !ok {
				continue
			}
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cell.SetFloat(n)
			} else {
				cell.SetString(v)
			}
		}
	}
	return nil
}
