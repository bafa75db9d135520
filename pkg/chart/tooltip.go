package chart

import (
	"regexp"
	"strconv"
	"strings"
)

// PointerEvent carries the pointer position that triggered a refresh, in
// data coordinates. Refreshes that do not come from the pointer pass nil.
type PointerEvent struct {
	X, Y float64
}

// RefreshFunc is the signature of the tooltip's own refresh implementation.
type RefreshFunc func(p *Point, ev *PointerEvent)

// TooltipInterceptor replaces the tooltip's Refresh and Hide. Each method is
// handed the built-in behavior and the unchanged call arguments and
// decides whether to delegate.
type TooltipInterceptor interface {
	Hide(original func())
	Refresh(original RefreshFunc, p *Point, ev *PointerEvent)
}

// Tooltip is the floating box describing one point.
type Tooltip struct {
	chart   *Chart
	visible bool
	point   *Point
	lines   []string
}

// Refresh shows p in the tooltip.
func (t *Tooltip) Refresh(p *Point, ev *PointerEvent) {
	if i := t.chart.tooltipInterceptor; i != nil {
		i.Refresh(t.refresh, p, ev)
		return
	}
	t.refresh(p, ev)
}

// Hide hides the tooltip.
func (t *Tooltip) Hide() {
	if i := t.chart.tooltipInterceptor; i != nil {
		i.Hide(t.hide)
		return
	}
	t.hide()
}

func (t *Tooltip) refresh(p *Point, _ *PointerEvent) {
	if p == nil {
		return
	}
	t.point = p
	t.lines = FormatTooltip(p)
	t.visible = true
}

func (t *Tooltip) hide() {
	t.visible = false
}

// Visible reports whether the tooltip box is drawn.
func (t *Tooltip) Visible() bool { return t.visible }

// Point returns the point whose data fills the tooltip, visible or not.
func (t *Tooltip) Point() *Point { return t.point }

// Lines returns the formatted content lines.
func (t *Tooltip) Lines() []string { return append([]string(nil), t.lines...) }

// Text returns the content as newline separated text.
func (t *Tooltip) Text() string { return strings.Join(t.lines, "\n") }

const defaultPointFormat = "{series.name}<br/>x: {point.x}<br/>y: {point.y}"

var (
	breakTag  = regexp.MustCompile(`(?i)<br\s*/?>`)
	markupTag = regexp.MustCompile(`<[^>]*>`)
)

// FormatTooltip renders the tooltip lines for p from its series' point
// format.
func FormatTooltip(p *Point) []string {
	if p == nil {
		return nil
	}
	format := defaultPointFormat
	decimals := -1
	seriesName := ""
	if p.Series != nil {
		seriesName = p.Series.Config.Name
		if f := p.Series.Config.Tooltip.PointFormat; f != "" {
			format = f
		}
		if d := p.Series.Config.Tooltip.ValueDecimals; d != nil {
			decimals = *d
		}
	}

	r := strings.NewReplacer(
		"{point.name}", p.Name,
		"{point.x}", formatValue(p.X, -1),
		"{point.y}", formatValue(p.Y, decimals),
		"{series.name}", seriesName,
	)
	text := breakTag.ReplaceAllString(r.Replace(format), "\n")
	text = markupTag.ReplaceAllString(text, "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func formatValue(v float64, decimals int) string {
	if decimals < 0 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
