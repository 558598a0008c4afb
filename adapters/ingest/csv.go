package ingest

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"sleepsense/domain/series"
	apperrors "sleepsense/internal/errors"
)

// Header aliases seen in real exports. The Korean names come from the
// dBMeter app's locale.
var (
	timeHeaders  = map[string]bool{"time": true, "시간": true, "timestamp": true}
	levelHeaders = map[string]bool{"db": true, "decibel": true, "level_db": true}
)

// readCSV parses a Time,dB file. Times are HH:MM:SS wall-clock strings
// starting at sleep onset; offsets are computed relative to the first
// row with a midnight rollover when the clock wraps. Content that looks
// like a raw dBMeter export is routed to that parser instead.
func (r *Reader) readCSV() (Result, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return Result{}, apperrors.IngestError(r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, apperrors.IngestError(r.filePath, err)
	}
	if len(rows) == 0 {
		return r.finalize(nil, 0, 0)
	}

	if looksLikeDBMeter(rows) {
		r.log.Debug("[ingest] %s: detected dBMeter export layout", r.filePath)
		return r.parseDBMeterRows(rows)
	}

	return r.parseClockRows(rows)
}

// parseClockRows handles the shared Time,dB layout for CSV and XLSX
// input.
func (r *Reader) parseClockRows(rows [][]string) (Result, error) {
	timeCol, levelCol, hasHeader := locateColumns(rows[0])
	dataRows := rows
	if hasHeader {
		dataRows = rows[1:]
	}

	var samples []series.Sample
	read, skipped := 0, 0
	var prevClock float64
	dayOffset := 0.0
	first := true
	var origin float64

	for _, row := range dataRows {
		read++
		if len(row) <= timeCol || len(row) <= levelCol {
			skipped++
			continue
		}
		clock, err := parseClock(strings.TrimSpace(row[timeCol]))
		if err != nil {
			skipped++
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSpace(row[levelCol]), 64)
		if err != nil {
			skipped++
			continue
		}

		if !first && clock < prevClock {
			// Clock wrapped past midnight.
			dayOffset += 24 * 3600
		}
		prevClock = clock

		abs := clock + dayOffset
		if first {
			origin = abs
			first = false
		}
		samples = append(samples, series.Sample{Offset: abs - origin, LevelDB: level})
	}

	return r.finalize(samples, read, skipped)
}

// locateColumns finds the time and level columns from a header row.
// Headerless two-column files fall back to positional columns.
func locateColumns(header []string) (timeCol, levelCol int, hasHeader bool) {
	timeCol, levelCol = 0, 1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if timeHeaders[name] {
			timeCol = i
			hasHeader = true
		}
		if levelHeaders[name] {
			levelCol = i
			hasHeader = true
		}
	}
	return timeCol, levelCol, hasHeader
}

// parseClock converts an HH:MM:SS string to seconds of day.
func parseClock(s string) (float64, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, err
	}
	return float64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}
