package pin

import (
	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/debug"
)

// Export wraps both chart export paths. It merges a Load hook into the
// caller's chart options and hands everything to the original export, whose
// errors are returned unchanged.
func (c *Coordinator) Export(original chart.ExportFunc, exp chart.ExportOptions, chartOpts chart.Options) (chart.ExportResult, error) {
	hook := chart.Options{Events: chart.Events{Load: []chart.LoadFunc{c.reapply}}}
	return original(exp, chart.MergeOptions(chartOpts, hook))
}

// reapply draws the last tooltip into a chart rebuilt for export. The state
// is forced to Idle only for the duration of the refresh so the gate lets it
// through, then put back to what it was.
func (c *Coordinator) reapply(rebuilt *chart.Chart) {
	if c.last == nil {
		return
	}
	debug.Log("pin: re-applying tooltip for %s on export (state %s)", describe(c.last), c.state)
	prev := c.state
	c.withState(Idle, prev, func() {
		rebuilt.Tooltip().Refresh(c.last, nil)
	})
}
