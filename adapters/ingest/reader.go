// Package ingest normalizes vendor sound-meter exports into sample
// series. It is the only place raw records exist: unparsable rows are
// skipped and counted here, and the analysis core never sees them.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"sleepsense/domain/core"
	"sleepsense/domain/series"
	"sleepsense/internal"
)

// Result is a normalized series plus ingestion bookkeeping.
type Result struct {
	Series      series.Series
	RowsRead    int
	RowsSkipped int
}

// Reader handles reading sound-level exports in the supported formats:
// standard CSV (Time,dB), dBMeter app exports, and XLSX workbooks.
type Reader struct {
	filePath string
	fileType string // "csv", "xlsx" or "dbmeter"
	log      *internal.Logger
}

// NewReader creates a reader for the given file, picking the format
// from the extension. CSV content is further sniffed for the dBMeter
// export layout on read.
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType, log: internal.DefaultLogger}
}

// Read parses the file into a normalized Series. It fails with
// ErrNoUsableRows when nothing in the file could be parsed; individual
// bad rows are skipped and counted, not fatal.
func (r *Reader) Read() (Result, error) {
	switch r.fileType {
	case "xlsx":
		return r.readXLSX()
	case "csv":
		return r.readCSV()
	default:
		return Result{}, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// finalize validates row bookkeeping and builds the series.
func (r *Reader) finalize(samples []series.Sample, read, skipped int) (Result, error) {
	if len(samples) == 0 {
		return Result{}, fmt.Errorf("%s: %w", r.filePath, core.ErrNoUsableRows)
	}
	if skipped > 0 {
		r.log.Warn("[ingest] %s: skipped %d of %d rows", r.filePath, skipped, read)
	}
	r.log.Info("[ingest] %s: %d samples loaded", r.filePath, len(samples))
	return Result{
		Series:      series.New(samples),
		RowsRead:    read,
		RowsSkipped: skipped,
	}, nil
}
