// Package pin keeps a chart's tooltip pinned to the selected point.
//
// By default the chart tooltip follows the pointer and disappears when the
// pointer leaves the plot. A Coordinator changes that:
//
//   - the tooltip is never hidden automatically;
//   - while a point is selected, pointer driven refreshes are suppressed, so
//     the tooltip stays on the selected point;
//   - static exports rebuild the chart from configuration, and the
//     coordinator re-applies the last tooltip to the rebuilt chart so the
//     image shows what the screen shows.
//
// The coordinator is a two state machine:
//
//	Idle     --select-->         Selected
//	Selected --select(other)-->  Selected   (forced refresh with the new point)
//	any      --unselect-->       Idle
//
// Install it on a chart with Options:
//
//	co := pin.New()
//	c := chart.New(opts, co.Options()...)
//
// A Coordinator is not safe for concurrent use. It must be driven from the
// same goroutine as the charts it is installed on.
package pin

import "github.com/vanderheijden86/chartpin/pkg/chart"

// State is the selection state of the coordinator.
type State int

const (
	// Idle means no point is selected; the tooltip follows the pointer.
	Idle State = iota
	// Selected means some point is selected; the tooltip is frozen.
	Selected
)

func (s State) String() string {
	switch s {
	case Selected:
		return "selected"
	default:
		return "idle"
	}
}

// Coordinator tracks selection and gates the tooltip of every chart it is
// installed on. One coordinator outlives the charts built for exports.
type Coordinator struct {
	state State
	// last is the point whose data last filled a tooltip. It is set only by
	// a refresh that went through and never cleared by unselect.
	last *chart.Point
}

var (
	_ chart.TooltipInterceptor = (*Coordinator)(nil)
	_ chart.ExportInterceptor  = (*Coordinator)(nil)
)

// New returns an idle coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Options returns the chart options that install the coordinator: the
// tooltip and export interceptors plus the select and unselect listeners.
func (c *Coordinator) Options() []chart.Option {
	return []chart.Option{
		chart.WithTooltipInterceptor(c),
		chart.WithExportInterceptor(c),
		chart.OnSelect(c.OnSelect),
		chart.OnUnselect(c.OnDeselect),
	}
}

// State returns the current state.
func (c *Coordinator) State() State { return c.state }

// AnySelected reports whether a point is currently selected.
func (c *Coordinator) AnySelected() bool { return c.state == Selected }

// LastPoint returns the point that last filled a tooltip, or nil.
func (c *Coordinator) LastPoint() *chart.Point { return c.last }

// withState runs fn with the state forced to s, then sets the state to
// after. fn runs synchronously, so no other event can observe s.
func (c *Coordinator) withState(s State, after State, fn func()) {
	c.state = s
	fn()
	c.state = after
}
