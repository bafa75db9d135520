package ui

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/chartpin/pkg/chart"
)

const (
	glyphLine     = '·'
	glyphPoint    = '●'
	glyphSelected = '◆'
	glyphCursor   = '◉'
)

type cell struct {
	r     rune
	style *lipgloss.Style
}

// plot rasterizes the chart's plot area onto a character grid. Rows grow
// downwards; column 0 is the first cell right of the y axis.
type plot struct {
	layout chart.Layout
	cols   int
	rows   int
	gutter int // y label width, the axis line sits right after it
	yTicks map[int]string
	cells  [][]cell
}

func newPlot(l chart.Layout, yAxis chart.AxisOptions, width, height int) *plot {
	p := &plot{layout: l, yTicks: map[int]string{}}
	p.rows = max(1, height-2)

	labels := make([]string, len(l.YTicks))
	for i, v := range l.YTicks {
		labels[i] = yLabel(yAxis, v)
		p.gutter = max(p.gutter, runewidth.StringWidth(labels[i]))
	}
	p.cols = max(1, width-p.gutter-1)
	for i, v := range l.YTicks {
		p.yTicks[p.row(v)] = labels[i]
	}

	p.cells = make([][]cell, p.rows)
	for r := range p.cells {
		p.cells[r] = make([]cell, p.cols)
	}
	return p
}

func yLabel(a chart.AxisOptions, v float64) string {
	if a.Ordinal {
		return chart.TickLabel(a, v)
	}
	return axisNumber(v)
}

func (p *plot) col(x float64) int {
	span := p.layout.XMax - p.layout.XMin
	if span <= 0 || p.cols == 1 {
		return 0
	}
	return clamp(int(math.Round((x-p.layout.XMin)/span*float64(p.cols-1))), 0, p.cols-1)
}

func (p *plot) row(y float64) int {
	span := p.layout.YMax - p.layout.YMin
	if span <= 0 || p.rows == 1 {
		return p.rows - 1
	}
	return clamp(p.rows-1-int(math.Round((y-p.layout.YMin)/span*float64(p.rows-1))), 0, p.rows-1)
}

// dataX maps a plot column back to data x.
func (p *plot) dataX(col int) float64 {
	if p.cols <= 1 {
		return p.layout.XMin
	}
	return p.layout.XMin + float64(col)/float64(p.cols-1)*(p.layout.XMax-p.layout.XMin)
}

func (p *plot) set(col, row int, r rune, style *lipgloss.Style) {
	if col < 0 || col >= p.cols || row < 0 || row >= p.rows {
		return
	}
	p.cells[row][col] = cell{r: r, style: style}
}

func (p *plot) drawLine(pts []*chart.Point, style *lipgloss.Style) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		c0, c1 := p.col(a.X), p.col(b.X)
		if c0 == c1 {
			p.set(c0, p.row(b.Y), glyphLine, style)
			continue
		}
		for c := c0; c <= c1; c++ {
			t := float64(c-c0) / float64(c1-c0)
			p.set(c, p.row(a.Y+t*(b.Y-a.Y)), glyphLine, style)
		}
	}
	if len(pts) == 1 {
		p.set(p.col(pts[0].X), p.row(pts[0].Y), glyphLine, style)
	}
}

func (p *plot) drawPoints(pts []*chart.Point, style, mark *lipgloss.Style) {
	for _, pt := range pts {
		if pt.Selected() {
			p.set(p.col(pt.X), p.row(pt.Y), glyphSelected, mark)
			continue
		}
		p.set(p.col(pt.X), p.row(pt.Y), glyphPoint, style)
	}
}

// render returns the plot with its y labels, the x axis line and the x tick
// labels.
func (p *plot) render(xAxis chart.AxisOptions, th Theme) string {
	var b strings.Builder
	for r := 0; r < p.rows; r++ {
		b.WriteString(th.Axis.Render(padLeft(p.yTicks[r], p.gutter) + "│"))
		for _, c := range p.cells[r] {
			switch {
			case c.r == 0:
				b.WriteByte(' ')
			case c.style != nil:
				b.WriteString(c.style.Render(string(c.r)))
			default:
				b.WriteRune(c.r)
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(th.Axis.Render(strings.Repeat(" ", p.gutter) + "└" + strings.Repeat("─", p.cols)))
	b.WriteByte('\n')
	b.WriteString(th.Axis.Render(strings.Repeat(" ", p.gutter+1) + p.xLabels(xAxis)))
	return b.String()
}

// xLabels lays the tick labels out on one line, dropping those that would
// overlap their left neighbour.
func (p *plot) xLabels(a chart.AxisOptions) string {
	line := []rune(strings.Repeat(" ", p.cols))
	next := 0
	for _, v := range p.layout.XTicks {
		label := chart.TickLabel(a, v)
		if label == "" {
			continue
		}
		w := runewidth.StringWidth(label)
		start := p.col(v) - w/2
		if start < next || start+w > p.cols {
			continue
		}
		copy(line[start:], []rune(label))
		next = start + w + 1
	}
	return strings.TrimRight(string(line), " ")
}

// renderPlot draws every series of c, the selection markers and the cursor.
func renderPlot(c *chart.Chart, cursor *chart.Point, width, height int, th Theme) (string, *plot) {
	opts := c.Options()
	p := newPlot(c.Layout(), opts.YAxis, width, height)

	series := append([]*chart.Series(nil), c.Series()...)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Config.ZIndex < series[j].Config.ZIndex
	})
	for _, s := range series {
		style := th.SeriesStyle(s)
		switch s.Config.Type {
		case chart.SeriesScatter:
			p.drawPoints(s.Points, &style, &th.Mark)
		default:
			p.drawLine(s.Points, &style)
			if s.Config.Marker.Enabled != nil && *s.Config.Marker.Enabled {
				p.drawPoints(s.Points, &style, &th.Mark)
			}
		}
	}
	if cursor != nil && cursor.Chart() == c {
		p.set(p.col(cursor.X), p.row(cursor.Y), glyphCursor, &th.Cursor)
	}
	return p.render(opts.XAxis, th), p
}
