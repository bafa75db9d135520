// Package testutil provides deterministic chart fixtures for tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/percentile"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed       int64   // Random seed for determinism (0 = 42)
	Points     int     // Number of scatter points (default 12)
	NamePrefix string  // Prefix for point names (default "County")
	MinValue   float64 // Lower bound of generated values
	MaxValue   float64 // Upper bound of generated values (default 100)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:       42,
		Points:     12,
		NamePrefix: "County",
		MinValue:   0,
		MaxValue:   100,
	}
}

// Generator creates percentile/scatter series fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.Points <= 0 {
		cfg.Points = 12
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "County"
	}
	if cfg.MaxValue <= cfg.MinValue {
		cfg.MaxValue = cfg.MinValue + 100
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Values returns cfg.Points values sorted ascending.
func (g *Generator) Values() []float64 {
	out := make([]float64, g.cfg.Points)
	for i := range out {
		out[i] = g.cfg.MinValue + g.rng.Float64()*(g.cfg.MaxValue-g.cfg.MinValue)
	}
	sort.Float64s(out)
	return out
}

// PointSeries returns a scatter series with distinct x positions, shaped
// like the per-county series the API serves.
func (g *Generator) PointSeries() chart.SeriesConfig {
	values := g.Values()
	data := make([]chart.DataPoint, len(values))
	for i, v := range values {
		data[i] = chart.DataPoint{
			X:    float64(i+1) * 100 / float64(len(values)+1),
			Y:    v,
			Name: fmt.Sprintf("%s %02d", g.cfg.NamePrefix, i+1),
		}
	}
	return chart.SeriesConfig{
		Name:                "Values",
		Type:                chart.SeriesScatter,
		Color:               "darkred",
		EnableMouseTracking: chart.Bool(true),
		Marker:              chart.MarkerOptions{Radius: 3, Symbol: "circle"},
		Tooltip: chart.SeriesTooltip{
			PointFormat:   "{point.name}<br/>p: <b>{point.x}%</b><br/>v: <b>{point.y}</b><br/>",
			ValueDecimals: chart.Int(1),
		},
		Data: data,
	}
}

// PercentileSeries returns the spline of the 1st..99th percentiles of the
// generated values.
func (g *Generator) PercentileSeries() chart.SeriesConfig {
	values := g.Values()
	ranks, _ := percentile.Values(percentile.Steps(100), values)
	data := make([]chart.DataPoint, len(ranks))
	for i, r := range ranks {
		data[i] = chart.DataPoint{X: r.Rank * 100, Y: r.Value}
	}
	return chart.SeriesConfig{
		Name:                "Percentiles",
		Type:                chart.SeriesSpline,
		Color:               "gray",
		EnableMouseTracking: chart.Bool(false),
		Marker:              chart.MarkerOptions{Enabled: chart.Bool(false)},
		ZIndex:              -1,
		Data:                data,
	}
}

// Options returns preset options carrying both generated series.
func (g *Generator) Options(preset string) chart.Options {
	opts, err := chart.PresetOptions(preset)
	if err != nil {
		panic(err)
	}
	opts.Title = "Fixture"
	opts.Series = []chart.SeriesConfig{g.PercentileSeries(), g.PointSeries()}
	return opts
}
