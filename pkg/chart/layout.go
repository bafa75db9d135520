package chart

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

const (
	defaultWidth  = 960
	defaultHeight = 540

	marginLeft   = 72.0
	marginRight  = 28.0
	marginTop    = 28.0
	titleHeight  = 36.0
	marginBottom = 64.0
	legendHeight = 28.0

	defaultPadding = 0.05
)

// Layout is the pixel geometry of a laid out chart.
type Layout struct {
	Width, Height int
	PlotLeft      float64
	PlotTop       float64
	PlotWidth     float64
	PlotHeight    float64
	XMin, XMax    float64
	YMin, YMax    float64
	XTicks        []float64
	YTicks        []float64
}

// PixelX maps data x to a horizontal pixel.
func (l Layout) PixelX(x float64) float64 {
	return l.PlotLeft + (x-l.XMin)/(l.XMax-l.XMin)*l.PlotWidth
}

// PixelY maps data y to a vertical pixel.
func (l Layout) PixelY(y float64) float64 {
	return l.PlotTop + l.PlotHeight - (y-l.YMin)/(l.YMax-l.YMin)*l.PlotHeight
}

// DataX maps a horizontal pixel back to data x.
func (l Layout) DataX(px float64) float64 {
	if l.PlotWidth <= 0 {
		return l.XMin
	}
	return l.XMin + (px-l.PlotLeft)/l.PlotWidth*(l.XMax-l.XMin)
}

func computeLayout(opts Options, series []*Series) Layout {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		if opts.AspectRatio > 0 {
			h = int(math.Round(float64(w) * opts.AspectRatio))
		} else {
			h = defaultHeight
		}
	}

	l := Layout{Width: w, Height: h}
	top := marginTop
	if opts.Title != "" {
		top += titleHeight
	}
	bottom := marginBottom
	if opts.ShowLegend == nil || *opts.ShowLegend {
		bottom += legendHeight
	}
	l.PlotLeft = marginLeft
	l.PlotTop = top
	l.PlotWidth = math.Max(1, float64(w)-marginLeft-marginRight)
	l.PlotHeight = math.Max(1, float64(h)-top-bottom)

	var xs, ys []float64
	for _, s := range series {
		for _, p := range s.Points {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}
	l.XMin, l.XMax = axisRange(opts.XAxis, xs, 0)
	l.YMin, l.YMax = axisRange(opts.YAxis, ys, defaultPadding)
	l.XTicks = ticks(l.XMin, l.XMax, opts.XAxis.TickInterval)
	l.YTicks = ticks(l.YMin, l.YMax, opts.YAxis.TickInterval)
	return l
}

func axisRange(a AxisOptions, values []float64, padding float64) (float64, float64) {
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	span := hi - lo
	minPad, maxPad := padding, padding
	if a.MinPadding != nil {
		minPad = *a.MinPadding
	}
	if a.MaxPadding != nil {
		maxPad = *a.MaxPadding
	}
	lo -= span * minPad
	hi += span * maxPad
	if a.Min != nil {
		lo = *a.Min
	}
	if a.Max != nil {
		hi = *a.Max
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func ticks(lo, hi, interval float64) []float64 {
	if interval <= 0 {
		interval = niceStep((hi - lo) / 8)
	}
	if interval <= 0 || math.IsInf(interval, 0) || math.IsNaN(interval) {
		return nil
	}
	start := math.Ceil(lo/interval) * interval
	var out []float64
	for v := start; v <= hi+interval*1e-9 && len(out) < 200; v += interval {
		out = append(out, math.Round(v/interval)*interval)
	}
	return out
}

func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	switch f := raw / base; {
	case f <= 1:
		return base
	case f <= 2:
		return 2 * base
	case f <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

// TickLabel formats an axis tick value.
func TickLabel(a AxisOptions, v float64) string {
	if !a.Ordinal {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v <= 0 || v != math.Trunc(v) {
		return ""
	}
	return ordinal(int(v))
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// nearestPoint picks the point whose x is closest to x. Ties keep the first.
func nearestPoint(points []*Point, x float64) *Point {
	var best *Point
	bestD := math.MaxFloat64
	for _, p := range points {
		if d := math.Abs(p.X - x); d < bestD {
			bestD = d
			best = p
		}
	}
	return best
}
