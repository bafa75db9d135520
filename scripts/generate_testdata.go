//go:build ignore

// generate_testdata.go creates sample series payloads and county CSVs.
// Usage: go run scripts/generate_testdata.go
//
// Creates, per dataset:
//   testdata/<name>/percentiles.json  (spline of the 1st..99th percentiles)
//   testdata/<name>/points.json       (scatter of named county values)
//   testdata/<name>/values.csv        (FIPS,Value,County,State for chartpin import)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/series"
	"github.com/vanderheijden86/chartpin/pkg/testutil"
)

type datasetSpec struct {
	name   string
	points int
	max    float64
}

var datasets = []datasetSpec{
	{"small", 8, 40},
	{"medium", 40, 60},
	{"large", 200, 100},
}

func main() {
	outputDir := "testdata"
	for _, ds := range datasets {
		dir := filepath.Join(outputDir, ds.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", dir, err)
			os.Exit(1)
		}
		fmt.Printf("Generating %s dataset (%d points)...\n", ds.name, ds.points)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:     int64(ds.points), // Reproducible per-size
			Points:   ds.points,
			MaxValue: ds.max,
		})
		pcts, points := gen.PercentileSeries(), gen.PointSeries()

		write(filepath.Join(dir, "percentiles.json"), payload(pcts))
		write(filepath.Join(dir, "points.json"), payload(points))
		write(filepath.Join(dir, "values.csv"), []byte(toCSV(points)))
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}

func payload(cfg chart.SeriesConfig) []byte {
	data, err := json.MarshalIndent(series.Payload{Config: &cfg}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", cfg.Name, err)
		os.Exit(1)
	}
	return data
}

// toCSV lays the points out as counties of one made-up state, FIPS 90xxx.
func toCSV(cfg chart.SeriesConfig) string {
	var b strings.Builder
	b.WriteString("FIPS,Value,County,State\n")
	for i, d := range cfg.Data {
		fmt.Fprintf(&b, "90%03d,%.2f,%s,ZZ\n", 2*i+1, d.Y, d.Name)
	}
	return b.String()
}

func write(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("  Written %s (%d bytes)\n", path, len(data))
}
