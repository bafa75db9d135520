package datasource

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "chartpin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seed loads two Alabama counties with values and one without, plus an
// empty Wyoming.
func seed(t *testing.T, s *Store) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.PutState(ctx, State{Code: "al", Name: "Alabama", FIPS: "01"}))
	require.NoError(t, s.PutState(ctx, State{Code: "WY", Name: "Wyoming", FIPS: "56"}))
	for _, c := range []County{
		{FIPS: "01001", Name: "Autauga", State: "AL"},
		{FIPS: "01003", Name: "Baldwin", State: "AL"},
		{FIPS: "01005", Name: "Barbour", State: "AL"},
	} {
		require.NoError(t, s.PutCounty(ctx, c))
	}
	id, err := s.InsertDataSet(ctx, "Obesity", 2018, map[string]float64{
		"01001": 10,
		"01003": 20,
		"99001": 30,
		"99003": 40,
	})
	require.NoError(t, err)
	return id
}

func TestOpen_MigratesIdempotently(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	sets, err := s.DataSets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestStates(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	states, err := s.States(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, State{Code: "AL", Name: "Alabama", FIPS: "01"}, states[0])
	assert.Equal(t, "WY", states[1].Code)
}

func TestPercentileSeries(t *testing.T) {
	s := openTestStore(t)
	id := seed(t, s)

	cfg, err := s.PercentileSeries(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Percentiles", cfg.Name)
	assert.False(t, cfg.MouseTracking())
	assert.Equal(t, -1, cfg.ZIndex)
	require.Len(t, cfg.Data, 999)
	assert.InDelta(t, 0.1, cfg.Data[0].X, 1e-9)
	assert.Equal(t, 10.0, cfg.Data[0].Y)
	assert.InDelta(t, 50.0, cfg.Data[499].X, 1e-9)
	assert.InDelta(t, 25.0, cfg.Data[499].Y, 1e-9)
	assert.InDelta(t, 99.9, cfg.Data[998].X, 1e-9)
	assert.Equal(t, 40.0, cfg.Data[998].Y)
}

func TestPointSeries_ByState(t *testing.T) {
	s := openTestStore(t)
	id := seed(t, s)

	cfg, errs, err := s.PointSeries(context.Background(), id, PointQuery{State: "al"})
	require.NoError(t, err)

	require.Len(t, cfg.Data, 2)
	assert.Equal(t, "Autauga", cfg.Data[0].Name)
	assert.InDelta(t, 0.1, cfg.Data[0].X, 1e-9)
	assert.Equal(t, 10.0, cfg.Data[0].Y)
	assert.Equal(t, "Baldwin", cfg.Data[1].Name)
	assert.Equal(t, 40.0, cfg.Data[1].X)
	assert.True(t, cfg.MouseTracking())
	assert.Equal(t, "darkred", cfg.Color)

	assert.Empty(t, errs.NoCounty)
	assert.Equal(t, "Barbour, AL", errs.NoFIPS)
}

func TestPointSeries_ByCounties(t *testing.T) {
	s := openTestStore(t)
	id := seed(t, s)

	cfg, errs, err := s.PointSeries(context.Background(), id, PointQuery{Counties: []string{"01003", "12345", "01005", "54321"}})
	require.NoError(t, err)

	require.Len(t, cfg.Data, 1)
	assert.Equal(t, "Baldwin", cfg.Data[0].Name)
	assert.Equal(t, "12345; 54321", errs.NoCounty)
	assert.Equal(t, "Barbour, AL", errs.NoFIPS)
}

func TestPointSeries_Errors(t *testing.T) {
	s := openTestStore(t)
	id := seed(t, s)
	ctx := context.Background()

	_, _, err := s.PointSeries(ctx, id, PointQuery{})
	assert.ErrorIs(t, err, ErrNoQuery)

	_, _, err = s.PointSeries(ctx, id, PointQuery{State: "ZZ"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.PointSeries(ctx, id+100, PointQuery{State: "AL"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.PercentileSeries(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPointSeries_EmptyState(t *testing.T) {
	s := openTestStore(t)
	id := seed(t, s)

	cfg, errs, err := s.PointSeries(context.Background(), id, PointQuery{State: "WY"})
	require.NoError(t, err)
	assert.Empty(t, cfg.Data)
	assert.True(t, errs.Empty())
}

func TestInsertDataSet_Empty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.InsertDataSet(context.Background(), "Nothing", 2020, nil)
	assert.Error(t, err)
}

func TestDataSets(t *testing.T) {
	s := openTestStore(t)
	first := seed(t, s)
	second, err := s.InsertDataSet(context.Background(), "Smoking", 2019, map[string]float64{"01001": 1})
	require.NoError(t, err)

	sets, err := s.DataSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, DataSet{ID: second, Name: "Smoking", Year: 2019, Points: 1}, sets[0])
	assert.Equal(t, first, sets[1].ID)
	assert.Equal(t, 4, sets[1].Points)
}

func TestReadCSVAndImport(t *testing.T) {
	in := "FIPS,Value,County,State\n1001,12.5,Autauga,al\n01003, 7,Baldwin,AL\n56001,3,Albany,WY\n"
	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{FIPS: "01001", Value: 12.5, County: "Autauga", State: "AL"}, rows[0])

	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.Import(ctx, "Uploads", 2021, rows)
	require.NoError(t, err)

	cfg, errs, err := s.PointSeries(ctx, id, PointQuery{State: "AL"})
	require.NoError(t, err)
	assert.True(t, errs.Empty())
	require.Len(t, cfg.Data, 2)
	assert.Equal(t, "Autauga", cfg.Data[0].Name)

	states, err := s.States(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"no fips":       "Value\n1\n",
		"no value":      "FIPS\n01001\n",
		"bad value":     "FIPS,Value\n01001,abc\n",
		"ragged record": "FIPS,Value\n01001\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
