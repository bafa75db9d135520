package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/chartpin/pkg/debug"
)

// Row is one county value read from an upload.
type Row struct {
	FIPS   string
	Value  float64
	County string // optional county name
	State  string // optional USPS state code
}

// ReadCSV reads rows from a CSV with a header. FIPS and Value columns are
// required; County and State are optional and, when present, let Import
// register the county. Header names are case-insensitive. FIPS codes are
// left padded to 5 digits.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: empty input")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	fipsCol, ok := col["fips"]
	if !ok {
		return nil, fmt.Errorf("csv: missing FIPS column")
	}
	valueCol, ok := col["value"]
	if !ok {
		return nil, fmt.Errorf("csv: missing Value column")
	}
	countyCol, hasCounty := col["county"]
	stateCol, hasState := col["state"]

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: value %q: %w", line, rec[valueCol], err)
		}
		row := Row{FIPS: padFIPS(rec[fipsCol]), Value: v}
		if hasCounty {
			row.County = strings.TrimSpace(rec[countyCol])
		}
		if hasState {
			row.State = strings.ToUpper(strings.TrimSpace(rec[stateCol]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func padFIPS(s string) string {
	s = strings.TrimSpace(s)
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

// Import registers any named counties from rows and stores their values as
// a new data set. Duplicate FIPS codes keep the last value.
func (s *Store) Import(ctx context.Context, name string, year int, rows []Row) (int64, error) {
	start := time.Now()
	defer func() { debug.LogTiming("datasource.Import", time.Since(start)) }()

	values := make(map[string]float64, len(rows))
	states := make(map[string]bool)
	for _, r := range rows {
		values[r.FIPS] = r.Value
		if r.County == "" || r.State == "" {
			continue
		}
		if !states[r.State] {
			// keep a name set by an earlier import
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO states (code, name, fips) VALUES (?, ?, ?) ON CONFLICT(code) DO NOTHING`,
				r.State, r.State, r.FIPS[:2]); err != nil {
				return 0, fmt.Errorf("register state %s: %w", r.State, err)
			}
			states[r.State] = true
		}
		if err := s.PutCounty(ctx, County{FIPS: r.FIPS, Name: r.County, State: r.State}); err != nil {
			return 0, err
		}
	}
	return s.InsertDataSet(ctx, name, year, values)
}
