// Package chart implements the interactive chart widget: series and point
// ownership, pointer hover, point selection events, a tooltip, and static
// PNG/SVG export.
//
// The widget has no plugin mechanism of its own. Behavior that other
// packages want to change is reached through seams installed at
// construction time:
//
//	c := chart.New(opts,
//	    chart.WithTooltipInterceptor(x), // wraps Tooltip.Refresh and Tooltip.Hide
//	    chart.WithExportInterceptor(y),  // wraps Export and ExportLocal
//	    chart.OnSelect(fn), chart.OnUnselect(fn),
//	)
//
// A Chart is not safe for concurrent use. All calls are expected to come from
// one event loop.
package chart

import (
	"sort"

	"github.com/vanderheijden86/chartpin/pkg/debug"
)

// Point is a single rendered observation. A *Point is the identity handed to
// event listeners and to the tooltip; the chart owns it.
type Point struct {
	Series   *Series
	Index    int
	X, Y     float64
	Name     string
	selected bool
}

// Selected reports whether the point is in the selected state.
func (p *Point) Selected() bool { return p != nil && p.selected }

// Chart returns the chart that owns the point, or nil for a detached point.
func (p *Point) Chart() *Chart {
	if p == nil || p.Series == nil {
		return nil
	}
	return p.Series.Chart
}

// Series is a data series attached to a chart.
type Series struct {
	Chart  *Chart
	Index  int
	Config SeriesConfig
	Points []*Point
}

// PointEvent is delivered to select and unselect listeners.
type PointEvent struct {
	Chart      *Chart
	Point      *Point
	Accumulate bool
}

// PointEventFunc handles a PointEvent.
type PointEventFunc func(ev PointEvent)

// Option configures a Chart at construction.
type Option func(*Chart)

// WithTooltipInterceptor routes Tooltip.Refresh and Tooltip.Hide through i.
func WithTooltipInterceptor(i TooltipInterceptor) Option {
	return func(c *Chart) { c.tooltipInterceptor = i }
}

// WithExportInterceptor routes Export and ExportLocal through i.
func WithExportInterceptor(i ExportInterceptor) Option {
	return func(c *Chart) { c.exportInterceptor = i }
}

// OnSelect registers a listener for points entering the selected state.
func OnSelect(fn PointEventFunc) Option {
	return func(c *Chart) { c.onSelect = append(c.onSelect, fn) }
}

// OnUnselect registers a listener for points leaving the selected state.
func OnUnselect(fn PointEventFunc) Option {
	return func(c *Chart) { c.onUnselect = append(c.onUnselect, fn) }
}

// Chart is the widget instance.
type Chart struct {
	opts     Options
	settings []Option
	series   []*Series
	tooltip  *Tooltip
	layout   Layout

	tooltipInterceptor TooltipInterceptor
	exportInterceptor  ExportInterceptor
	onSelect           []PointEventFunc
	onUnselect         []PointEventFunc

	hoverPoint *Point
	loading    bool
	loadingMsg string
}

// New builds a chart from opts, lays it out and runs the Load hooks.
func New(opts Options, settings ...Option) *Chart {
	c := &Chart{
		opts:     MergeOptions(opts),
		settings: settings,
	}
	for _, s := range settings {
		s(c)
	}
	c.tooltip = &Tooltip{chart: c}
	for i := range c.opts.Series {
		c.attach(i)
	}
	c.relayout()

	for _, fn := range c.opts.Events.Load {
		fn(c)
	}
	return c
}

// Options returns a copy of the configuration the chart currently renders,
// including series added after construction and point selection flags.
func (c *Chart) Options() Options {
	return MergeOptions(c.opts)
}

// Tooltip returns the chart's tooltip.
func (c *Chart) Tooltip() *Tooltip { return c.tooltip }

// Series returns the attached series in drawing order.
func (c *Chart) Series() []*Series { return c.series }

// Layout returns the current plot geometry.
func (c *Chart) Layout() Layout { return c.layout }

// AddSeries attaches a new series and returns it.
func (c *Chart) AddSeries(cfg SeriesConfig) *Series {
	c.opts.Series = append(c.opts.Series, cfg.clone())
	s := c.attach(len(c.opts.Series) - 1)
	c.relayout()
	debug.Log("chart: added series %q (%d points)", cfg.Name, len(cfg.Data))
	return s
}

// RemoveSeries detaches every series. Points handed out earlier stay valid
// as detached values.
func (c *Chart) RemoveSeries() {
	for _, s := range c.series {
		s.Chart = nil
	}
	c.series = nil
	c.opts.Series = nil
	c.hoverPoint = nil
	c.relayout()
}

func (c *Chart) attach(idx int) *Series {
	cfg := c.opts.Series[idx]
	s := &Series{Chart: c, Index: idx, Config: cfg}
	s.Points = make([]*Point, len(cfg.Data))
	for i, d := range cfg.Data {
		s.Points[i] = &Point{
			Series:   s,
			Index:    i,
			X:        d.X,
			Y:        d.Y,
			Name:     d.Name,
			selected: d.Selected,
		}
	}
	c.series = append(c.series, s)
	return s
}

// TrackedPoints returns the points that respond to the pointer, ordered by
// x then by series.
func (c *Chart) TrackedPoints() []*Point {
	var pts []*Point
	for _, s := range c.series {
		if !s.Config.MouseTracking() {
			continue
		}
		pts = append(pts, s.Points...)
	}
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Series.Index < pts[j].Series.Index
	})
	return pts
}

// SelectedPoints returns every point currently selected.
func (c *Chart) SelectedPoints() []*Point {
	var out []*Point
	for _, s := range c.series {
		for _, p := range s.Points {
			if p.selected {
				out = append(out, p)
			}
		}
	}
	return out
}

// HoverPoint returns the point under the pointer, if any.
func (c *Chart) HoverPoint() *Point { return c.hoverPoint }

// Hover moves the pointer to data coordinate x and refreshes the tooltip
// with the nearest tracked point. It returns that point.
func (c *Chart) Hover(x float64) *Point {
	p := nearestPoint(c.TrackedPoints(), x)
	if p == nil {
		return nil
	}
	c.hoverPoint = p
	c.tooltip.Refresh(p, &PointerEvent{X: x, Y: p.Y})
	return p
}

// HoverOn moves the pointer onto p and refreshes the tooltip with it.
func (c *Chart) HoverOn(p *Point) {
	if p == nil || p.Chart() != c {
		return
	}
	c.hoverPoint = p
	c.tooltip.Refresh(p, &PointerEvent{X: p.X, Y: p.Y})
}

// PointerOut reports that the pointer left the plot area.
func (c *Chart) PointerOut() {
	c.hoverPoint = nil
	c.tooltip.Hide()
}

// Select toggles the selection of p. Without accumulate every other selected
// point is unselected first and the tooltip is refreshed at p before the
// select event fires. With accumulate other selections are kept.
func (c *Chart) Select(p *Point, accumulate bool) {
	if p == nil || p.Chart() != c {
		return
	}
	if p.selected {
		c.setSelected(p, false)
		c.fire(c.onUnselect, PointEvent{Chart: c, Point: p, Accumulate: accumulate})
		return
	}
	if !accumulate {
		for _, q := range c.SelectedPoints() {
			c.setSelected(q, false)
			c.fire(c.onUnselect, PointEvent{Chart: c, Point: q})
		}
		c.tooltip.Refresh(p, &PointerEvent{X: p.X, Y: p.Y})
	}
	c.setSelected(p, true)
	c.fire(c.onSelect, PointEvent{Chart: c, Point: p, Accumulate: accumulate})
}

func (c *Chart) setSelected(p *Point, on bool) {
	p.selected = on
	// mirror into the options so a rebuilt chart shows the same markers
	s := p.Series
	if s.Index < len(c.opts.Series) && p.Index < len(c.opts.Series[s.Index].Data) {
		c.opts.Series[s.Index].Data[p.Index].Selected = on
	}
}

func (c *Chart) fire(listeners []PointEventFunc, ev PointEvent) {
	for _, fn := range listeners {
		fn(ev)
	}
}

// ShowLoading displays a loading indicator with msg.
func (c *Chart) ShowLoading(msg string) {
	if msg == "" {
		msg = "Loading..."
	}
	c.loading = true
	c.loadingMsg = msg
}

// HideLoading removes the loading indicator.
func (c *Chart) HideLoading() {
	c.loading = false
	c.loadingMsg = ""
}

// Loading reports the loading indicator state and message.
func (c *Chart) Loading() (bool, string) { return c.loading, c.loadingMsg }

// Resize changes the pixel size and lays the chart out again.
func (c *Chart) Resize(width, height int) {
	c.opts.Width = width
	c.opts.Height = height
	c.relayout()
}

func (c *Chart) relayout() {
	c.layout = computeLayout(c.opts, c.series)
}
