package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/config"
	"github.com/vanderheijden86/chartpin/pkg/export"
	"github.com/vanderheijden86/chartpin/pkg/pin"
	"github.com/vanderheijden86/chartpin/pkg/series"
)

// runExport builds the chart from the sources, replays a selection and a
// hover, and exports it. The image shows the tooltip of the selected point
// even when a different point is hovered afterwards.
func runExport(cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	chartFlags(fs, &cfg)
	format := fs.String("format", "", "png or svg (default: from -out, else the configured format)")
	out := fs.String("out", "", "Output file (default: save to the snapshot store)")
	sel := fs.Int("select", -1, "Select the N-th tracked point (ordered by x)")
	hover := fs.Int("hover", -1, "Hover the N-th tracked point after selecting")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "export: at least one source is required")
		fs.Usage()
		return errUsage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	c, err := buildChart(cfg)
	if err != nil {
		return err
	}
	if err := series.LoadInto(ctx, c, fs.Args()...); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
		if len(c.Series()) == 0 {
			return errors.New("export: no series loaded")
		}
	}

	tracked := c.TrackedPoints()
	pick := func(name string, idx int) (*chart.Point, error) {
		if idx < 0 || idx >= len(tracked) {
			return nil, fmt.Errorf("-%s %d: chart has %d tracked points", name, idx, len(tracked))
		}
		return tracked[idx], nil
	}
	if *sel >= 0 {
		p, err := pick("select", *sel)
		if err != nil {
			return err
		}
		c.Select(p, false)
	}
	if *hover >= 0 {
		p, err := pick("hover", *hover)
		if err != nil {
			return err
		}
		c.HoverOn(p)
	}

	f := chart.Format(*format)
	if *out != "" {
		res, err := c.Export(chart.ExportOptions{Path: *out, Format: f}, chart.Options{})
		if err != nil {
			return err
		}
		name := ""
		if res.TooltipFrom != nil {
			name = res.TooltipFrom.Name
		}
		fmt.Fprintf(stdout, "%s\t%s\n", res.Path, orDash(name))
		return nil
	}

	if f == "" {
		f = cfg.ExportFormat()
	}
	store, err := export.NewStore(cfg.Export.Dir)
	if err != nil {
		return err
	}
	meta, img, err := export.Capture(c, f, cfg.Chart.Width, cfg.Chart.Height)
	if err != nil {
		return err
	}
	path, err := store.Save(meta, img)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\t%s\n", path, orDash(meta.PinnedPoint))
	return nil
}

// buildChart returns an empty chart with a pin coordinator installed.
func buildChart(cfg config.Config) (*chart.Chart, error) {
	opts, err := cfg.ChartOptions()
	if err != nil {
		return nil, err
	}
	return chart.New(opts, pin.New().Options()...), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runSnapshots(cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", cfg.Export.Dir, "Snapshot directory")
	del := fs.String("delete", "", "Delete the snapshot with this id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := os.Stat(*dir); os.IsNotExist(err) {
		fmt.Fprintln(stdout, "no snapshots")
		return nil
	}
	store, err := export.NewStore(*dir)
	if err != nil {
		return err
	}
	if *del != "" {
		return store.Delete(*del)
	}

	metas, err := store.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Fprintln(stdout, "no snapshots")
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFORMAT\tSIZE\tTOOLTIP")
	for _, m := range metas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\n", m.ID, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Format, m.Width, m.Height, orDash(m.PinnedPoint))
	}
	return tw.Flush()
}
