package pin

import "github.com/vanderheijden86/chartpin/pkg/chart"

// Hide never hides the tooltip. Once shown, only a refresh changes it.
func (c *Coordinator) Hide(original func()) {}

// Refresh lets the refresh through while Idle and records p as the last
// tooltip point. While Selected it does nothing at all.
func (c *Coordinator) Refresh(original chart.RefreshFunc, p *chart.Point, ev *chart.PointerEvent) {
	if c.state == Selected {
		return
	}
	original(p, ev)
	if p != nil {
		c.last = p
	}
}
