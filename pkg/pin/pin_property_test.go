package pin

import (
	"io"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/testutil"
)

// TestCoordinator_Properties drives a pinned chart with random pointer,
// selection and export sequences and checks the tooltip invariants after
// every step.
func TestCoordinator_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := testutil.New(testutil.GeneratorConfig{Points: rapid.IntRange(1, 8).Draw(rt, "points")})
		co := New()
		c := chart.New(g.Options(chart.PresetSmall), co.Options()...)
		var pts []*chart.Point
		for _, s := range c.Series() {
			if s.Config.MouseTracking() {
				pts = s.Points
			}
		}
		everVisible := false

		rt.Repeat(map[string]func(*rapid.T){
			"hover": func(rt *rapid.T) {
				p := pts[rapid.IntRange(0, len(pts)-1).Draw(rt, "hover")]
				wasSelected := co.AnySelected()
				before := co.LastPoint()
				c.HoverOn(p)
				if wasSelected && co.LastPoint() != before {
					rt.Fatalf("hover on %s changed the last point while selected", p.Name)
				}
				if !wasSelected && co.LastPoint() != p {
					rt.Fatalf("hover on %s while idle did not record it", p.Name)
				}
			},
			"out": func(rt *rapid.T) {
				c.PointerOut()
			},
			"select": func(rt *rapid.T) {
				p := pts[rapid.IntRange(0, len(pts)-1).Draw(rt, "select")]
				accumulate := rapid.Bool().Draw(rt, "accumulate")
				wasSelected, pinned := p.Selected(), co.AnySelected()
				c.Select(p, accumulate)
				// an accumulating select from idle leaves the tooltip where the pointer put it
				if !wasSelected && (!accumulate || pinned) && co.LastPoint() != p {
					rt.Fatalf("select of %s left last point %v", p.Name, co.LastPoint())
				}
			},
			"deselect": func(rt *rapid.T) {
				co.OnDeselect(chart.PointEvent{Chart: c})
				if co.State() != Idle {
					rt.Fatalf("state after deselect = %s", co.State())
				}
			},
			"export": func(rt *rapid.T) {
				state, last := co.State(), co.LastPoint()
				res, err := c.ExportLocal(chart.ExportOptions{Writer: io.Discard, Format: chart.FormatSVG, Width: 160, Height: 100}, chart.Options{})
				if err != nil {
					rt.Fatalf("export: %v", err)
				}
				if co.State() != state || co.LastPoint() != last {
					rt.Fatalf("export changed coordinator state: %s/%v -> %s/%v", state, last, co.State(), co.LastPoint())
				}
				if res.TooltipFrom != last {
					rt.Fatalf("export tooltip from %v, want %v", res.TooltipFrom, last)
				}
			},
			"": func(rt *rapid.T) {
				tt := c.Tooltip()
				if everVisible && !tt.Visible() {
					rt.Fatalf("tooltip was hidden after being shown")
				}
				everVisible = tt.Visible()
				if last := co.LastPoint(); last != nil && tt.Point() != last {
					rt.Fatalf("tooltip shows %v, last point is %s", tt.Point(), last.Name)
				}
			},
		})
	})
}
