package testutil

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/chartpin/pkg/chart"
)

// AssertTooltipPoint verifies the tooltip content comes from want.
func AssertTooltipPoint(t *testing.T, tt *chart.Tooltip, want *chart.Point) {
	t.Helper()
	if got := tt.Point(); got != want {
		t.Errorf("tooltip point = %s, want %s", name(got), name(want))
	}
}

// AssertTooltipVisible verifies the tooltip visibility.
func AssertTooltipVisible(t *testing.T, tt *chart.Tooltip, want bool) {
	t.Helper()
	if tt.Visible() != want {
		t.Errorf("tooltip visible = %v, want %v", tt.Visible(), want)
	}
}

// AssertTooltipContains verifies some tooltip line contains substr.
func AssertTooltipContains(t *testing.T, lines []string, substr string) {
	t.Helper()
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return
		}
	}
	t.Errorf("tooltip lines %q do not contain %q", lines, substr)
}

// ScatterPoints returns the points of the first mouse-tracked series.
func ScatterPoints(t *testing.T, c *chart.Chart) []*chart.Point {
	t.Helper()
	for _, s := range c.Series() {
		if s.Config.MouseTracking() {
			return s.Points
		}
	}
	t.Fatalf("chart has no mouse-tracked series")
	return nil
}

func name(p *chart.Point) string {
	if p == nil {
		return "<nil>"
	}
	return p.Name
}
