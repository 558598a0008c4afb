package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "sleepsense/internal/errors"
)

// readXLSX reads Sheet1 of a workbook and feeds the rows through the
// same column handling as the CSV path.
func (r *Reader) readXLSX() (Result, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return Result{}, apperrors.IngestError(r.filePath, err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return Result{}, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	if len(rows) < 2 {
		return Result{}, fmt.Errorf("XLSX file must have a header row and at least one data row")
	}

	return r.parseClockRows(rows)
}
