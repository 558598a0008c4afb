package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sleepsense/domain/series"
)

// The dBMeter app exports Korean-locale timestamps like
// "2025. 11. 15. 오전 3:02:46, 53.058983" with no header row.

// looksLikeDBMeter sniffs the first non-empty row for a Korean AM/PM
// marker.
func looksLikeDBMeter(rows [][]string) bool {
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		first := row[0]
		return strings.Contains(first, "오전") || strings.Contains(first, "오후")
	}
	return false
}

// parseDBMeterRows converts already-split dBMeter rows to samples.
// Offsets are relative to the first parsable timestamp; full dates mean
// no rollover handling is needed.
func (r *Reader) parseDBMeterRows(rows [][]string) (Result, error) {
	var samples []series.Sample
	read, skipped := 0, 0
	first := true
	var origin time.Time

	for _, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		read++
		if len(row) < 2 {
			skipped++
			continue
		}
		ts, err := parseKoreanTimestamp(strings.TrimSpace(row[0]))
		if err != nil {
			skipped++
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			skipped++
			continue
		}
		if first {
			origin = ts
			first = false
		}
		samples = append(samples, series.Sample{
			Offset:  ts.Sub(origin).Seconds(),
			LevelDB: level,
		})
	}

	return r.finalize(samples, read, skipped)
}

// parseKoreanTimestamp parses "2025. 11. 15. 오전 3:02:46".
func parseKoreanTimestamp(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, "오전", "AM")
	s = strings.ReplaceAll(s, "오후", "PM")

	fields := strings.Fields(s)
	if len(fields) != 5 {
		return time.Time{}, fmt.Errorf("unexpected timestamp layout: %q", s)
	}

	year, err1 := strconv.Atoi(strings.TrimSuffix(fields[0], "."))
	month, err2 := strconv.Atoi(strings.TrimSuffix(fields[1], "."))
	day, err3 := strconv.Atoi(strings.TrimSuffix(fields[2], "."))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("unparsable date in %q", s)
	}

	meridiem := fields[3]
	clock := strings.Split(fields[4], ":")
	if len(clock) != 3 {
		return time.Time{}, fmt.Errorf("unparsable clock in %q", s)
	}
	hour, err1 := strconv.Atoi(clock[0])
	minute, err2 := strconv.Atoi(clock[1])
	second, err3 := strconv.Atoi(clock[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("unparsable clock in %q", s)
	}

	if meridiem == "PM" && hour != 12 {
		hour += 12
	} else if meridiem == "AM" && hour == 12 {
		hour = 0
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// ConvertDBMeter rewrites a dBMeter export as a standard Time,dB CSV so
// it can be shared with tools that only understand the plain layout.
func ConvertDBMeter(inputPath, outputPath string) error {
	reader := NewReader(inputPath)
	result, err := reader.Read()
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"Time", "dB"}); err != nil {
		return err
	}
	for _, smp := range result.Series.Samples {
		secs := int(smp.Offset)
		clock := fmt.Sprintf("%02d:%02d:%02d", secs/3600%24, secs/60%60, secs%60)
		if err := w.Write([]string{clock, strconv.FormatFloat(smp.LevelDB, 'f', 1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
