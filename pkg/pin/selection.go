package pin

import (
	"strconv"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/debug"
)

// OnSelect handles a point entering the selected state.
//
// If another point is still selected the gate would reject the refresh for
// the new point, so the state is dropped to Idle, the tooltip is refreshed
// with the new point through the gate, and the state returns to Selected.
// From Idle the state just becomes Selected; the refresh that accompanies a
// fresh selection already went through while Idle. An event without a
// point is ignored.
func (c *Coordinator) OnSelect(ev chart.PointEvent) {
	if ev.Point == nil {
		return
	}
	if c.state != Selected {
		c.state = Selected
		return
	}

	target := ev.Chart
	if target == nil {
		target = ev.Point.Chart()
	}
	if target == nil {
		// detached point: nothing to refresh, but the selection stands
		return
	}
	debug.Log("pin: selection switch to %s", describe(ev.Point))
	c.withState(Idle, Selected, func() {
		target.Tooltip().Refresh(ev.Point, nil)
	})
}

// OnDeselect handles a point leaving the selected state. It always returns
// to Idle and keeps the last tooltip point.
func (c *Coordinator) OnDeselect(ev chart.PointEvent) {
	debug.LogIf(c.state == Selected, "pin: unselect %s", describe(ev.Point))
	c.state = Idle
}

func describe(p *chart.Point) string {
	if p == nil {
		return "<nil>"
	}
	if p.Name != "" {
		return p.Name
	}
	series := ""
	if p.Series != nil {
		series = p.Series.Config.Name
	}
	return series + "[" + strconv.Itoa(p.Index) + "]"
}
