package chart

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"sort"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// --- styling ---------------------------------------------------------------

var (
	colorBackdrop   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorText       = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorSubtle     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorGrid       = color.RGBA{0xe6, 0xe6, 0xe6, 0xff}
	colorAxis       = color.RGBA{0xcc, 0xd6, 0xeb, 0xff}
	colorSelected   = color.RGBA{0x66, 0xb3, 0xff, 0xff}
	colorTooltipBG  = color.RGBA{0xff, 0xff, 0xff, 0xcc}
	colorTooltipBdr = color.RGBA{0x96, 0x96, 0x96, 0xcc}
	colorLoadingBG  = color.RGBA{0xff, 0xff, 0xff, 0xb0}
)

var palette = []color.RGBA{
	{0x7c, 0xb5, 0xec, 0xff},
	{0x43, 0x43, 0x48, 0xff},
	{0x90, 0xed, 0x7d, 0xff},
	{0xf7, 0xa3, 0x5c, 0xff},
	{0x80, 0x85, 0xe9, 0xff},
}

var namedColors = map[string]color.RGBA{
	"gray":    {0x80, 0x80, 0x80, 0xff},
	"grey":    {0x80, 0x80, 0x80, 0xff},
	"black":   {0x00, 0x00, 0x00, 0xff},
	"red":     {0xff, 0x00, 0x00, 0xff},
	"darkred": {0x8b, 0x00, 0x00, 0xff},
	"blue":    {0x00, 0x00, 0xff, 0xff},
	"green":   {0x00, 0x80, 0x00, 0xff},
	"orange":  {0xff, 0xa5, 0x00, 0xff},
}

// SeriesColor resolves the configured color of s, falling back to the
// default palette by series index.
func SeriesColor(s *Series) color.RGBA {
	if s == nil {
		return palette[0]
	}
	if c, ok := ParseColor(s.Config.Color); ok {
		return c
	}
	return palette[s.Index%len(palette)]
}

// ParseColor understands a few color names and #rgb / #rrggbb hex values.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	var r, g, b uint8
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, false
		}
	case 4:
		if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, false
		}
		r, g, b = r*17, g*17, b*17
	default:
		return color.RGBA{}, false
	}
	return color.RGBA{r, g, b, 0xff}, true
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(c color.RGBA) string {
	return fmt.Sprintf("%.2f", float64(c.A)/255)
}

// drawOrder sorts series by zIndex, keeping configuration order for ties.
func drawOrder(series []*Series) []*Series {
	out := append([]*Series(nil), series...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Config.ZIndex < out[j].Config.ZIndex
	})
	return out
}

func markerRadius(s *Series) float64 {
	if s.Config.Marker.Radius > 0 {
		return s.Config.Marker.Radius
	}
	return 4
}

func markersEnabled(s *Series) bool {
	if s.Config.Marker.Enabled != nil {
		return *s.Config.Marker.Enabled
	}
	return s.Config.Type == SeriesScatter
}

// tooltipBox computes the top-left corner and size of the tooltip box.
func tooltipBox(c *Chart, lines []string) (x, y, w, h float64) {
	const charW, lineH, pad = 7.0, 16.0, 8.0
	longest := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > longest {
			longest = n
		}
	}
	w = float64(longest)*charW + pad*2
	h = float64(len(lines))*lineH + pad*2 - 4

	lay := c.layout
	tt := c.opts.Tooltip
	if tt.Fixed != nil && *tt.Fixed {
		return tt.X, tt.Y, w, h
	}
	p := c.tooltip.point
	x = lay.PixelX(p.X) + 12
	y = lay.PixelY(p.Y) - h - 12
	if x+w > float64(lay.Width)-4 {
		x = lay.PixelX(p.X) - w - 12
	}
	if y < 4 {
		y = lay.PixelY(p.Y) + 12
	}
	return x, y, w, h
}

// --- PNG -------------------------------------------------------------------

func renderPNG(w io.Writer, c *Chart) error {
	lay := c.layout
	dc := gg.NewContext(lay.Width, lay.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	if c.opts.Title != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(c.opts.Title, float64(lay.Width)/2, marginTop+titleHeight/2-6, 0.5, 0.5)
	}

	// grid and tick labels
	dc.SetLineWidth(1)
	for _, v := range lay.YTicks {
		y := lay.PixelY(v)
		dc.SetColor(colorGrid)
		dc.DrawLine(lay.PlotLeft, y, lay.PlotLeft+lay.PlotWidth, y)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(TickLabel(c.opts.YAxis, v), lay.PlotLeft-8, y, 1, 0.5)
	}
	base := lay.PlotTop + lay.PlotHeight
	for _, v := range lay.XTicks {
		x := lay.PixelX(v)
		dc.SetColor(colorAxis)
		dc.DrawLine(x, base, x, base+5)
		dc.Stroke()
		if label := TickLabel(c.opts.XAxis, v); label != "" {
			dc.SetColor(colorSubtle)
			dc.DrawStringAnchored(label, x, base+16, 0.5, 0.5)
		}
	}
	dc.SetColor(colorAxis)
	dc.DrawLine(lay.PlotLeft, base, lay.PlotLeft+lay.PlotWidth, base)
	dc.Stroke()
	if t := c.opts.XAxis.Title; t != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(t, lay.PlotLeft+lay.PlotWidth/2, base+36, 0.5, 0.5)
	}
	if t := c.opts.YAxis.Title; t != "" {
		dc.Push()
		dc.SetColor(colorText)
		dc.RotateAbout(gg.Radians(-90), 18, lay.PlotTop+lay.PlotHeight/2)
		dc.DrawStringAnchored(t, 18, lay.PlotTop+lay.PlotHeight/2, 0.5, 0.5)
		dc.Pop()
	}

	// series
	for _, s := range drawOrder(c.series) {
		col := SeriesColor(s)
		if s.Config.Type != SeriesScatter && len(s.Points) > 1 {
			dc.SetColor(col)
			dc.SetLineWidth(2)
			for i, p := range s.Points {
				if i == 0 {
					dc.MoveTo(lay.PixelX(p.X), lay.PixelY(p.Y))
					continue
				}
				dc.LineTo(lay.PixelX(p.X), lay.PixelY(p.Y))
			}
			dc.Stroke()
		}
		for _, p := range s.Points {
			x, y := lay.PixelX(p.X), lay.PixelY(p.Y)
			switch {
			case p.selected:
				dc.SetColor(colorSelected)
				dc.DrawCircle(x, y, 7)
				dc.Fill()
			case markersEnabled(s):
				dc.SetColor(col)
				dc.DrawCircle(x, y, markerRadius(s))
				dc.Fill()
			}
		}
	}

	if c.legendShown() {
		drawLegend(dc, c)
	}

	if c.tooltip.visible && c.tooltip.point != nil {
		lines := c.tooltip.Lines()
		x, y, w, h := tooltipBox(c, lines)
		dc.SetColor(colorTooltipBG)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
		dc.SetColor(colorTooltipBdr)
		dc.SetLineWidth(1)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()
		dc.SetColor(colorText)
		for i, line := range lines {
			dc.DrawStringAnchored(line, x+8, y+14+float64(i)*16, 0, 0.5)
		}
	}

	if c.loading {
		dc.SetColor(colorLoadingBG)
		dc.DrawRectangle(lay.PlotLeft, lay.PlotTop, lay.PlotWidth, lay.PlotHeight)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(c.loadingMsg, lay.PlotLeft+lay.PlotWidth/2, lay.PlotTop+lay.PlotHeight/2, 0.5, 0.5)
	}

	return png.Encode(w, dc.Image())
}

func drawLegend(dc *gg.Context, c *Chart) {
	x := c.layout.PlotLeft
	y := float64(c.layout.Height) - legendHeight/2 - 6
	for _, s := range c.series {
		dc.SetColor(SeriesColor(s))
		dc.DrawCircle(x+5, y, 5)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(s.Config.Name, x+16, y, 0, 0.5)
		x += 16 + float64(len([]rune(s.Config.Name)))*7 + 24
	}
}

func (c *Chart) legendShown() bool {
	return c.opts.ShowLegend == nil || *c.opts.ShowLegend
}

// --- SVG -------------------------------------------------------------------

func renderSVG(w io.Writer, c *Chart) error {
	lay := c.layout
	canvas := svg.New(w)
	canvas.Start(lay.Width, lay.Height)
	canvas.Rect(0, 0, lay.Width, lay.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	text := func(x, y float64, s, anchor string, col color.RGBA) {
		canvas.Text(int(x), int(y), s, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:%s", css(col), anchor))
	}

	if c.opts.Title != "" {
		canvas.Text(lay.Width/2, int(marginTop+titleHeight/2), c.opts.Title,
			fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold;text-anchor:middle", css(colorText)))
	}

	for _, v := range lay.YTicks {
		y := int(lay.PixelY(v))
		canvas.Line(int(lay.PlotLeft), y, int(lay.PlotLeft+lay.PlotWidth), y, fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		text(lay.PlotLeft-8, float64(y)+4, TickLabel(c.opts.YAxis, v), "end", colorSubtle)
	}
	base := lay.PlotTop + lay.PlotHeight
	for _, v := range lay.XTicks {
		x := int(lay.PixelX(v))
		canvas.Line(x, int(base), x, int(base+5), fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis)))
		if label := TickLabel(c.opts.XAxis, v); label != "" {
			text(float64(x), base+20, label, "middle", colorSubtle)
		}
	}
	canvas.Line(int(lay.PlotLeft), int(base), int(lay.PlotLeft+lay.PlotWidth), int(base), fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis)))
	if t := c.opts.XAxis.Title; t != "" {
		text(lay.PlotLeft+lay.PlotWidth/2, base+40, t, "middle", colorText)
	}

	for _, s := range drawOrder(c.series) {
		col := SeriesColor(s)
		if s.Config.Type != SeriesScatter && len(s.Points) > 1 {
			xs := make([]int, len(s.Points))
			ys := make([]int, len(s.Points))
			for i, p := range s.Points {
				xs[i] = int(lay.PixelX(p.X))
				ys[i] = int(lay.PixelY(p.Y))
			}
			canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(col)))
		}
		for _, p := range s.Points {
			x, y := int(lay.PixelX(p.X)), int(lay.PixelY(p.Y))
			switch {
			case p.selected:
				canvas.Circle(x, y, 7, fmt.Sprintf("fill:%s", css(colorSelected)))
			case markersEnabled(s):
				canvas.Circle(x, y, int(markerRadius(s)), fmt.Sprintf("fill:%s", css(col)))
			}
		}
	}

	if c.legendShown() {
		x := lay.PlotLeft
		y := float64(lay.Height) - legendHeight/2 - 6
		for _, s := range c.series {
			canvas.Circle(int(x+5), int(y), 5, fmt.Sprintf("fill:%s", css(SeriesColor(s))))
			text(x+16, y+4, s.Config.Name, "start", colorText)
			x += 16 + float64(len([]rune(s.Config.Name)))*7 + 24
		}
	}

	if c.tooltip.visible && c.tooltip.point != nil {
		lines := c.tooltip.Lines()
		x, y, w, h := tooltipBox(c, lines)
		canvas.Rect(int(x), int(y), int(w), int(h),
			fmt.Sprintf("fill:%s;fill-opacity:%s;stroke:%s;stroke-width:1", css(colorTooltipBG), opacity(colorTooltipBG), css(colorTooltipBdr)))
		for i, line := range lines {
			text(x+8, y+18+float64(i)*16, line, "start", colorText)
		}
	}

	if c.loading {
		canvas.Rect(int(lay.PlotLeft), int(lay.PlotTop), int(lay.PlotWidth), int(lay.PlotHeight),
			fmt.Sprintf("fill:%s;fill-opacity:%s", css(colorLoadingBG), opacity(colorLoadingBG)))
		text(lay.PlotLeft+lay.PlotWidth/2, lay.PlotTop+lay.PlotHeight/2, c.loadingMsg, "middle", colorText)
	}

	canvas.End()
	return nil
}
