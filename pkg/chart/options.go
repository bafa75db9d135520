package chart

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// SeriesType selects how a series is drawn.
type SeriesType string

const (
	SeriesSpline  SeriesType = "spline"
	SeriesLine    SeriesType = "line"
	SeriesScatter SeriesType = "scatter"
)

// DataPoint is one observation in a series configuration. It decodes from
// either an object ({"x":..,"y":..,"name":..}) or a two element array.
type DataPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Name     string  `json:"name,omitempty"`
	Selected bool    `json:"selected,omitempty"`
}

// UnmarshalJSON accepts both the object and the [x, y] pair form.
func (d *DataPoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("data point pair: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("data point pair: want 2 values, got %d", len(pair))
		}
		*d = DataPoint{X: pair[0], Y: pair[1]}
		return nil
	}
	type plain DataPoint
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("data point: %w", err)
	}
	*d = DataPoint(p)
	return nil
}

// MarkerOptions controls point markers of a series.
type MarkerOptions struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Radius  float64 `json:"radius,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
}

// SeriesTooltip customizes tooltip content for points of one series.
type SeriesTooltip struct {
	// PointFormat supports {point.name}, {point.x}, {point.y} and
	// {series.name}. <br/> starts a new line; other tags are dropped.
	PointFormat   string `json:"pointFormat,omitempty"`
	ValueDecimals *int   `json:"valueDecimals,omitempty"`
}

// SeriesConfig describes one data series.
type SeriesConfig struct {
	Name                string        `json:"name"`
	Type                SeriesType    `json:"type,omitempty"`
	Color               string        `json:"color,omitempty"`
	EnableMouseTracking *bool         `json:"enableMouseTracking,omitempty"`
	Marker              MarkerOptions `json:"marker,omitempty"`
	ZIndex              int           `json:"zIndex,omitempty"`
	Tooltip             SeriesTooltip `json:"tooltip,omitempty"`
	Data                []DataPoint   `json:"data"`
}

// MouseTracking reports whether hovering this series drives the tooltip.
func (s SeriesConfig) MouseTracking() bool {
	return s.EnableMouseTracking == nil || *s.EnableMouseTracking
}

func (s SeriesConfig) clone() SeriesConfig {
	out := s
	out.Data = append([]DataPoint(nil), s.Data...)
	return out
}

// TooltipOptions positions the tooltip box.
type TooltipOptions struct {
	// Fixed pins the box at X,Y (pixels from the top-left corner) instead
	// of next to the point.
	Fixed *bool
	X, Y  float64
}

// AxisOptions configures one axis.
type AxisOptions struct {
	Title        string
	Min, Max     *float64
	TickInterval float64
	// Ordinal labels ticks as 1st, 2nd, 5th, ... (percentile axes).
	Ordinal    bool
	MinPadding *float64
	MaxPadding *float64
}

// LoadFunc runs once a chart has finished its initial layout.
type LoadFunc func(c *Chart)

// Events holds chart level lifecycle hooks.
type Events struct {
	Load []LoadFunc
}

// Options is the full configuration a chart is built from. An exported
// snapshot is rebuilt from Options alone.
type Options struct {
	Title       string
	Width       int
	Height      int
	AspectRatio float64 // height/width, used when Height is zero
	ShowLegend  *bool
	Tooltip     TooltipOptions
	XAxis       AxisOptions
	YAxis       AxisOptions
	Series      []SeriesConfig
	Events      Events
}

// Bool returns a pointer to b, for the tri-state option fields.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// MergeOptions overlays each options value onto base and returns the result.
// Zero-valued overlay fields leave base untouched. Load hooks are appended,
// so a caller's own hooks survive an injected one. Series are replaced when
// an overlay carries any. base is not modified.
func MergeOptions(base Options, overlays ...Options) Options {
	out := base
	out.Series = cloneSeries(base.Series)
	out.Events.Load = append([]LoadFunc(nil), base.Events.Load...)

	for _, o := range overlays {
		if o.Title != "" {
			out.Title = o.Title
		}
		if o.Width != 0 {
			out.Width = o.Width
		}
		if o.Height != 0 {
			out.Height = o.Height
		}
		if o.AspectRatio != 0 {
			out.AspectRatio = o.AspectRatio
		}
		if o.ShowLegend != nil {
			out.ShowLegend = o.ShowLegend
		}
		if o.Tooltip.Fixed != nil {
			out.Tooltip.Fixed = o.Tooltip.Fixed
		}
		if o.Tooltip.X != 0 {
			out.Tooltip.X = o.Tooltip.X
		}
		if o.Tooltip.Y != 0 {
			out.Tooltip.Y = o.Tooltip.Y
		}
		out.XAxis = mergeAxis(out.XAxis, o.XAxis)
		out.YAxis = mergeAxis(out.YAxis, o.YAxis)
		if o.Series != nil {
			out.Series = cloneSeries(o.Series)
		}
		out.Events.Load = append(out.Events.Load, o.Events.Load...)
	}
	return out
}

func mergeAxis(base, o AxisOptions) AxisOptions {
	if o.Title != "" {
		base.Title = o.Title
	}
	if o.Min != nil {
		base.Min = o.Min
	}
	if o.Max != nil {
		base.Max = o.Max
	}
	if o.TickInterval != 0 {
		base.TickInterval = o.TickInterval
	}
	if o.Ordinal {
		base.Ordinal = true
	}
	if o.MinPadding != nil {
		base.MinPadding = o.MinPadding
	}
	if o.MaxPadding != nil {
		base.MaxPadding = o.MaxPadding
	}
	return base
}

func cloneSeries(in []SeriesConfig) []SeriesConfig {
	if in == nil {
		return nil
	}
	out := make([]SeriesConfig, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}

// Preset names accepted by PresetOptions.
const (
	PresetLarge = "large"
	PresetSmall = "small"
)

// PresetOptions returns the base configuration for a named preset. The large
// preset is the full page chart with a fixed tooltip box and a percentile x
// axis; the small preset is the compact overview chart without title or
// legend at a 16:10 aspect ratio.
func PresetOptions(name string) (Options, error) {
	switch name {
	case "", PresetLarge:
		return Options{
			Width:      960,
			Height:     540,
			ShowLegend: Bool(true),
			Tooltip:    TooltipOptions{Fixed: Bool(true), X: 80, Y: 50},
			XAxis: AxisOptions{
				Title:        "Percentile",
				Min:          Float(0),
				Max:          Float(100),
				TickInterval: 5,
				Ordinal:      true,
			},
		}, nil
	case PresetSmall:
		return Options{
			Width:       480,
			AspectRatio: 10.0 / 16.0,
			ShowLegend:  Bool(false),
			XAxis: AxisOptions{
				Title:        "Percentile",
				Min:          Float(0),
				Max:          Float(100),
				TickInterval: 10,
				Ordinal:      true,
			},
			YAxis: AxisOptions{
				MinPadding: Float(0.01),
				MaxPadding: Float(0.01),
			},
		}, nil
	default:
		return Options{}, fmt.Errorf("unknown chart preset %q (want %s or %s)", name, PresetLarge, PresetSmall)
	}
}
