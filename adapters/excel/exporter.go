package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pacbayes/domain/connectivity"
	"pacbayes/internal/errors"
)

// Exporter writes run manifests to Excel workbooks for downstream review.
type Exporter struct {
	IncludeFragments bool
}

// NewExporter creates an exporter that includes per-fragment sheets.
func NewExporter() *Exporter {
	return &Exporter{IncludeFragments: true}
}

// Export builds the workbook for one run manifest.
func (e *Exporter) Export(manifest *connectivity.RunManifest) (*excelize.File, error) {
	f := excelize.NewFile()

	const aggregate = "Aggregate"
	if err := f.SetSheetName("Sheet1", aggregate); err != nil {
		return nil, errors.Wrap(err, "failed to rename aggregate sheet")
	}
	if err := writeMatrixSheet(f, aggregate, manifest.Result.Aggregate); err != nil {
		return nil, err
	}

	if err := e.writePriorSheet(f, manifest); err != nil {
		return nil, err
	}

	thresholded := fmt.Sprintf("Thresholded (tau=%g)", manifest.Settings.PosteriorThreshold)
	if _, err := f.NewSheet(thresholded); err != nil {
		return nil, errors.Wrap(err, "failed to create thresholded sheet")
	}
	if err := writeMatrixSheet(f, thresholded, manifest.Thresholded); err != nil {
		return nil, err
	}

	if e.IncludeFragments {
		for fi, matrix := range manifest.Result.Posteriors {
			name := fmt.Sprintf("Fragment %d", fi+1)
			if _, err := f.NewSheet(name); err != nil {
				return nil, errors.Wrapf(err, "failed to create sheet for fragment %d", fi)
			}
			if err := writeMatrixSheet(f, name, matrix); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// ExportTo writes the workbook for one run manifest to w.
func (e *Exporter) ExportTo(w io.Writer, manifest *connectivity.RunManifest) error {
	f, err := e.Export(manifest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

// ExportFile writes the workbook for one run manifest to path.
func (e *Exporter) ExportFile(path string, manifest *connectivity.RunManifest) error {
	f, err := e.Export(manifest)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook to %s", path)
	}
	return nil
}

func (e *Exporter) writePriorSheet(f *excelize.File, manifest *connectivity.RunManifest) error {
	const name = "Prior"
	if _, err := f.NewSheet(name); err != nil {
		return errors.Wrap(err, "failed to create prior sheet")
	}

	if err := f.SetCellValue(name, "A1", "destination"); err != nil {
		return errors.Wrap(err, "failed to write prior header")
	}
	if err := f.SetCellValue(name, "B1", "P(destination)"); err != nil {
		return errors.Wrap(err, "failed to write prior header")
	}
	for i, p := range manifest.Result.Prior {
		row := i + 2
		if err := f.SetCellValue(name, fmt.Sprintf("A%d", row), i); err != nil {
			return errors.Wrap(err, "failed to write prior row")
		}
		if err := f.SetCellValue(name, fmt.Sprintf("B%d", row), p); err != nil {
			return errors.Wrap(err, "failed to write prior row")
		}
	}
	return nil
}

// writeMatrixSheet lays a (destination x source) matrix out with source
// channels across the header row and destination channels down the first
// column.
func writeMatrixSheet(f *excelize.File, sheet string, matrix [][]float64) error {
	if err := f.SetCellValue(sheet, "A1", "dest \\ src"); err != nil {
		return errors.Wrapf(err, "failed to write header on %s", sheet)
	}

	if len(matrix) == 0 {
		return nil
	}
	for x := range matrix[0] {
		cell, err := excelize.CoordinatesToCellName(x+2, 1)
		if err != nil {
			return errors.Wrapf(err, "bad header coordinates on %s", sheet)
		}
		if err := f.SetCellValue(sheet, cell, x); err != nil {
			return errors.Wrapf(err, "failed to write header on %s", sheet)
		}
	}

	for i, row := range matrix {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrapf(err, "bad row coordinates on %s", sheet)
		}
		if err := f.SetCellValue(sheet, cell, i); err != nil {
			return errors.Wrapf(err, "failed to write row label on %s", sheet)
		}
		for x, v := range row {
			cell, err := excelize.CoordinatesToCellName(x+2, i+2)
			if err != nil {
				return errors.Wrapf(err, "bad cell coordinates on %s", sheet)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to write cell on %s", sheet)
			}
		}
	}
	return nil
}
