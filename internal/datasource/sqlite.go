// Package datasource stores county-level data sets in SQLite and builds the
// percentile and point series the chart endpoints serve.
package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/debug"
	"github.com/vanderheijden86/chartpin/pkg/metrics"
	"github.com/vanderheijden86/chartpin/pkg/percentile"
	"github.com/vanderheijden86/chartpin/pkg/series"
)

var (
	// ErrNotFound is returned for unknown data sets and states.
	ErrNotFound = errors.New("not found")
	// ErrNoQuery is returned when a point query names neither a state nor
	// counties.
	ErrNoQuery = errors.New("endpoint must be called with a state or county query string")
)

const schema = `
CREATE TABLE IF NOT EXISTS states (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	fips TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS counties (
	fips  TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	state TEXT NOT NULL REFERENCES states(code)
);
CREATE INDEX IF NOT EXISTS idx_counties_state ON counties(state);
CREATE TABLE IF NOT EXISTS data_sets (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	year INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS data_points (
	data_set_id INTEGER NOT NULL REFERENCES data_sets(id) ON DELETE CASCADE,
	fips        TEXT NOT NULL,
	value       REAL NOT NULL,
	rank        REAL NOT NULL,
	PRIMARY KEY (data_set_id, fips)
);
CREATE TABLE IF NOT EXISTS percentiles (
	data_set_id INTEGER NOT NULL REFERENCES data_sets(id) ON DELETE CASCADE,
	rank        REAL NOT NULL,
	value       REAL NOT NULL,
	PRIMARY KEY (data_set_id, rank)
);
`

// State is a U.S. state.
type State struct {
	Code string `json:"usps"`
	Name string `json:"name"`
	FIPS string `json:"fips"`
}

// County is a U.S. county keyed by its 5-digit FIPS code.
type County struct {
	FIPS  string
	Name  string
	State string
}

// DataSet describes one stored data set.
type DataSet struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Year   int    `json:"year"`
	Points int    `json:"points"`
}

// PointQuery selects counties for PointSeries: every county of State, or
// the listed FIPS codes when State is empty.
type PointQuery struct {
	State    string
	Counties []string
}

// Store is a data set database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			debug.Log("datasource: %s: %v", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// PutState inserts or replaces a state.
func (s *Store) PutState(ctx context.Context, st State) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO states (code, name, fips) VALUES (?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET name = excluded.name, fips = excluded.fips`,
		strings.ToUpper(st.Code), st.Name, st.FIPS)
	if err != nil {
		return fmt.Errorf("put state %s: %w", st.Code, err)
	}
	return nil
}

// PutCounty inserts or replaces a county. Its state must exist.
func (s *Store) PutCounty(ctx context.Context, c County) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO counties (fips, name, state) VALUES (?, ?, ?)
		 ON CONFLICT(fips) DO UPDATE SET name = excluded.name, state = excluded.state`,
		c.FIPS, c.Name, strings.ToUpper(c.State))
	if err != nil {
		return fmt.Errorf("put county %s: %w", c.FIPS, err)
	}
	return nil
}

// States lists every state ordered by code.
func (s *Store) States(ctx context.Context) ([]State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, fips FROM states ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var out []State
	for rows.Next() {
		var st State
		if err := rows.Scan(&st.Code, &st.Name, &st.FIPS); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// InsertDataSet stores values (FIPS code to value) as a new data set with
// the 0.1st..99.9th percentiles. Each point is ranked at the first
// percentile whose value reaches it. It returns the new data set id.
func (s *Store) InsertDataSet(ctx context.Context, name string, year int, values map[string]float64) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("data set %q: no values", name)
	}

	fips := make([]string, 0, len(values))
	for f := range values {
		fips = append(fips, f)
	}
	sort.Strings(fips)
	vals := make([]float64, len(fips))
	for i, f := range fips {
		vals[i] = values[f]
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	pcts, err := percentile.Values(percentile.Default(), sorted)
	if err != nil {
		return 0, fmt.Errorf("data set %q: %w", name, err)
	}
	ranks := percentile.AssignRanks(vals, pcts)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO data_sets (name, year) VALUES (?, ?)`, name, year)
	if err != nil {
		return 0, fmt.Errorf("insert data set: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, f := range fips {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO data_points (data_set_id, fips, value, rank) VALUES (?, ?, ?, ?)`,
			id, f, vals[i], ranks[i]); err != nil {
			return 0, fmt.Errorf("insert point %s: %w", f, err)
		}
	}
	for _, p := range pcts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO percentiles (data_set_id, rank, value) VALUES (?, ?, ?)`,
			id, p.Rank, p.Value); err != nil {
			return 0, fmt.Errorf("insert percentile %v: %w", p.Rank, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	debug.Log("datasource: data set %d %q (%d) with %d points", id, name, year, len(fips))
	return id, nil
}

// DataSets lists stored data sets, newest first.
func (s *Store) DataSets(ctx context.Context) ([]DataSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.year, COUNT(p.fips)
		FROM data_sets d LEFT JOIN data_points p ON p.data_set_id = d.id
		GROUP BY d.id ORDER BY d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list data sets: %w", err)
	}
	defer rows.Close()

	var out []DataSet
	for rows.Next() {
		var d DataSet
		if err := rows.Scan(&d.ID, &d.Name, &d.Year, &d.Points); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) requireDataSet(ctx context.Context, id int64) error {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM data_sets WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("data set %d: %w", id, ErrNotFound)
	}
	return nil
}

// PercentileSeries returns the gray, untracked percentile spline of a data
// set.
func (s *Store) PercentileSeries(ctx context.Context, id int64) (chart.SeriesConfig, error) {
	defer metrics.Timer(metrics.DataSetQuery)()

	if err := s.requireDataSet(ctx, id); err != nil {
		return chart.SeriesConfig{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT rank, value FROM percentiles WHERE data_set_id = ? ORDER BY rank`, id)
	if err != nil {
		return chart.SeriesConfig{}, fmt.Errorf("percentiles: %w", err)
	}
	defer rows.Close()

	cfg := chart.SeriesConfig{
		Name:                "Percentiles",
		Type:                chart.SeriesSpline,
		Color:               "gray",
		EnableMouseTracking: chart.Bool(false),
		Marker:              chart.MarkerOptions{Enabled: chart.Bool(false)},
		ZIndex:              -1,
		Data:                []chart.DataPoint{},
	}
	for rows.Next() {
		var rank, value float64
		if err := rows.Scan(&rank, &value); err != nil {
			return chart.SeriesConfig{}, err
		}
		cfg.Data = append(cfg.Data, chart.DataPoint{X: round2(rank * 100), Y: value})
	}
	return cfg, rows.Err()
}

// PointSeries returns the dark red scatter series of the counties selected
// by q. Requested FIPS codes with no county are listed in Errors.NoCounty;
// counties with no value in the data set in Errors.NoFIPS.
func (s *Store) PointSeries(ctx context.Context, id int64, q PointQuery) (chart.SeriesConfig, series.Errors, error) {
	defer metrics.Timer(metrics.DataSetQuery)()

	var errs series.Errors
	if err := s.requireDataSet(ctx, id); err != nil {
		return chart.SeriesConfig{}, errs, err
	}

	counties, unmatched, err := s.requestedCounties(ctx, q)
	if err != nil {
		return chart.SeriesConfig{}, errs, err
	}

	cfg := chart.SeriesConfig{
		Name:                "Values",
		Type:                chart.SeriesScatter,
		Color:               "darkred",
		EnableMouseTracking: chart.Bool(true),
		Marker:              chart.MarkerOptions{Radius: 3, Symbol: "circle"},
		Tooltip: chart.SeriesTooltip{
			PointFormat:   "{point.name}<br/>p: <b>{point.x}%</b><br/>v: <b>{point.y}</b><br/>",
			ValueDecimals: chart.Int(1),
		},
		Data: []chart.DataPoint{},
	}

	var missing []string
	for _, c := range counties {
		var value, rank float64
		err := s.db.QueryRowContext(ctx,
			`SELECT value, rank FROM data_points WHERE data_set_id = ? AND fips = ?`, id, c.FIPS).Scan(&value, &rank)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			missing = append(missing, fmt.Sprintf("%s, %s", c.Name, c.State))
		case err != nil:
			return chart.SeriesConfig{}, errs, fmt.Errorf("point %s: %w", c.FIPS, err)
		default:
			cfg.Data = append(cfg.Data, chart.DataPoint{X: round2(rank * 100), Y: value, Name: c.Name})
		}
	}

	errs.NoCounty = strings.Join(unmatched, "; ")
	errs.NoFIPS = strings.Join(missing, "; ")
	return cfg, errs, nil
}

func (s *Store) requestedCounties(ctx context.Context, q PointQuery) ([]County, []string, error) {
	if code := strings.ToUpper(strings.TrimSpace(q.State)); code != "" {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM states WHERE code = ?`, code).Scan(&n); err != nil {
			return nil, nil, err
		}
		if n == 0 {
			return nil, nil, fmt.Errorf("state %s: %w", code, ErrNotFound)
		}
		rows, err := s.db.QueryContext(ctx, `SELECT fips, name, state FROM counties WHERE state = ? ORDER BY fips`, code)
		if err != nil {
			return nil, nil, err
		}
		defer rows.Close()
		var out []County
		for rows.Next() {
			var c County
			if err := rows.Scan(&c.FIPS, &c.Name, &c.State); err != nil {
				return nil, nil, err
			}
			out = append(out, c)
		}
		return out, nil, rows.Err()
	}

	if len(q.Counties) == 0 {
		return nil, nil, ErrNoQuery
	}
	var (
		matched   []County
		unmatched []string
	)
	for _, f := range q.Counties {
		f = strings.TrimSpace(f)
		var c County
		err := s.db.QueryRowContext(ctx, `SELECT fips, name, state FROM counties WHERE fips = ?`, f).Scan(&c.FIPS, &c.Name, &c.State)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			unmatched = append(unmatched, f)
		case err != nil:
			return nil, nil, err
		default:
			matched = append(matched, c)
		}
	}
	return matched, unmatched, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
