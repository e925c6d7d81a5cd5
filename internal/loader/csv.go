// Package loader reads per-link CSV tables into the in-memory form the
// preprocessing pipeline consumes.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/telcosense/cmlrain/internal/cleaner"
)

// Required columns of a link table. Extra columns are ignored.
const (
	colTime = "time"
	colRSLA = "rsl_A"
	colRSLB = "rsl_B"
	colRain = "rain"
)

// timeLayouts are the timestamp formats accepted in the time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ReadLinkTable loads a CSV link table with columns time, rsl_A, rsl_B
// and rain. Empty or unparseable numeric cells become missing values.
// Timestamps must be monotonically non-decreasing.
func ReadLinkTable(path string) (*cleaner.LinkTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open link table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range []string{colTime, colRSLA, colRSLB, colRain} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("link table %s is missing column %q", path, name)
		}
	}

	table := &cleaner.LinkTable{}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line++

		ts, err := parseTime(record[cols[colTime]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n := len(table.Times); n > 0 && ts.Before(table.Times[n-1]) {
			return nil, fmt.Errorf("line %d: timestamps not monotonic: %s before %s", line, ts, table.Times[n-1])
		}

		table.Times = append(table.Times, ts)
		table.RSLA = append(table.RSLA, parseFloat(record[cols[colRSLA]]))
		table.RSLB = append(table.RSLB, parseFloat(record[cols[colRSLB]]))
		table.Rain = append(table.Rain, parseFloat(record[cols[colRain]]))
	}

	if table.Len() == 0 {
		return nil, fmt.Errorf("link table %s has no data rows", path)
	}
	return table, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	// Unix seconds fallback.
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
