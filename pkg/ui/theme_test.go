package ui

import (
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chartpin/pkg/chart"
)

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(nil)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	for name, c := range map[string]lipgloss.AdaptiveColor{
		"Primary": theme.Primary,
		"Pinned":  theme.Pinned,
		"Error":   theme.Error,
	} {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("DefaultTheme %s color is empty", name)
		}
	}
}

func TestThemeFgBg_FollowProfile(t *testing.T) {
	saved := TermProfile
	t.Cleanup(func() { TermProfile = saved })

	TermProfile = colorprofile.ANSI
	if got := ThemeFg("#FF0000"); got != lipgloss.ANSIColor(7) {
		t.Errorf("ThemeFg on ANSI = %v", got)
	}
	if got := ThemeBg("#FF0000"); got != (lipgloss.NoColor{}) {
		t.Errorf("ThemeBg on ANSI = %v", got)
	}

	TermProfile = colorprofile.TrueColor
	if got := ThemeFg("#FF0000"); got != lipgloss.Color("#FF0000") {
		t.Errorf("ThemeFg on TrueColor = %v", got)
	}
	if got := ThemeBg("#FF0000"); got != lipgloss.Color("#FF0000") {
		t.Errorf("ThemeBg on TrueColor = %v", got)
	}
}

func TestSeriesStyle_UsesSeriesColor(t *testing.T) {
	saved := TermProfile
	t.Cleanup(func() { TermProfile = saved })
	TermProfile = colorprofile.TrueColor

	c := chart.New(chart.Options{Series: []chart.SeriesConfig{{Name: "v", Color: "darkred"}}})
	style := TestTheme().SeriesStyle(c.Series()[0])
	if got := style.GetForeground(); got != lipgloss.Color("#8B0000") {
		t.Errorf("foreground = %v, want #8B0000", got)
	}
}
