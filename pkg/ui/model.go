// Package ui is the terminal chart viewer. It draws a chart with a pinned
// tooltip, moves a pointer over its points with the keyboard or mouse,
// selects points and exports snapshots that show the same tooltip.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/config"
	"github.com/vanderheijden86/chartpin/pkg/debug"
	"github.com/vanderheijden86/chartpin/pkg/export"
	"github.com/vanderheijden86/chartpin/pkg/metrics"
	"github.com/vanderheijden86/chartpin/pkg/pin"
	"github.com/vanderheijden86/chartpin/pkg/series"
	"github.com/vanderheijden86/chartpin/pkg/watcher"
)

const (
	loadTimeout   = 30 * time.Second
	tooltipWidth  = 30
	headerHeight  = 1
	footerHeight  = 2
	minPlotHeight = 4
)

var errExportsDisabled = errors.New("exports are disabled (no snapshot store)")

// Options configures a Model.
type Options struct {
	Config config.Config
	// Series are attached at construction and again after every reload.
	Series []chart.SeriesConfig
	// Sources are series files or URLs, fetched concurrently and attached
	// in order after Series.
	Sources []string
	Client  *series.Client // nil uses series.DefaultClient
	Store   *export.Store  // nil disables exports
	// Watch reloads the sources when a source file changes.
	Watch bool
}

type seriesLoadedMsg struct {
	results []series.Result
}

type sourceChangedMsg struct {
	path string
}

type exportedMsg struct {
	path string
	meta export.Meta
	err  error
}

type statusMsg struct {
	text string
	err  bool
}

// Model is the bubbletea model of the viewer.
type Model struct {
	chart *chart.Chart
	pin   *pin.Coordinator
	opts  Options
	theme Theme
	keys  keyMap
	help  help.Model

	helpView viewport.Model
	showHelp bool

	watcher *watcher.Watcher

	cursor    int // index into the tracked points, -1 when the pointer is out
	width     int
	height    int
	ready     bool
	status    string
	statusErr bool
}

// NewModel builds the chart with a pin coordinator installed and, when
// Watch is set, starts watching the file sources.
func NewModel(opts Options) (Model, error) {
	chartOpts, err := opts.Config.ChartOptions()
	if err != nil {
		return Model{}, err
	}
	chartOpts.Series = opts.Series

	co := pin.New()
	m := Model{
		chart:  chart.New(chartOpts, co.Options()...),
		pin:    co,
		opts:   opts,
		theme:  DefaultTheme(lipgloss.DefaultRenderer()),
		keys:   defaultKeyMap(),
		help:   help.New(),
		cursor: -1,
	}
	if len(opts.Sources) > 0 {
		m.chart.ShowLoading("")
	}

	if opts.Watch {
		var files []string
		for _, src := range opts.Sources {
			if !strings.Contains(src, "://") {
				files = append(files, src)
			}
		}
		if len(files) > 0 {
			w, err := watcher.NewWatcher(files)
			if err != nil {
				return Model{}, err
			}
			if err := w.Start(); err != nil {
				return Model{}, fmt.Errorf("watch sources: %w", err)
			}
			m.watcher = w
		}
	}
	return m, nil
}

// Chart returns the chart the model draws.
func (m Model) Chart() *chart.Chart { return m.chart }

// Coordinator returns the pin coordinator installed on the chart.
func (m Model) Coordinator() *pin.Coordinator { return m.pin }

// Close stops the source watcher.
func (m Model) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if len(m.opts.Sources) > 0 {
		cmds = append(cmds, m.loadCmd())
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForChange(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) client() *series.Client {
	if m.opts.Client != nil {
		return m.opts.Client
	}
	return series.DefaultClient
}

// loadCmd fetches the sources off the event loop. The chart is only
// touched when seriesLoadedMsg comes back.
func (m Model) loadCmd() tea.Cmd {
	client, sources := m.client(), append([]string(nil), m.opts.Sources...)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return seriesLoadedMsg{results: client.FetchAll(ctx, sources...)}
	}
}

// waitForChange delivers the next source change. It returns nil once the
// watcher is stopped.
func waitForChange(w *watcher.Watcher) tea.Cmd {
	ch := w.Changed()
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return sourceChangedMsg{path: path}
	}
}

func saveCmd(store *export.Store, meta export.Meta, img []byte) tea.Cmd {
	return func() tea.Msg {
		path, err := store.Save(meta, img)
		return exportedMsg{path: path, meta: meta, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return statusMsg{text: "copy failed: " + err.Error(), err: true}
		}
		return statusMsg{text: "tooltip copied"}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.helpView = viewport.New(msg.Width, max(1, msg.Height-footerHeight))
		if m.showHelp {
			m.helpView.SetContent(renderHelp(m.keys, msg.Width))
		}
		return m, nil

	case seriesLoadedMsg:
		m.replaceSeries(msg.results)
		return m, nil

	case sourceChangedMsg:
		debug.Log("ui: %s changed, reloading", msg.path)
		m.chart.ShowLoading("Reloading...")
		return m, tea.Batch(m.loadCmd(), waitForChange(m.watcher))

	case exportedMsg:
		if msg.err != nil {
			m.setStatus("export failed: "+msg.err.Error(), true)
			return m, nil
		}
		text := "saved " + msg.path
		if msg.meta.PinnedPoint != "" {
			text += " (tooltip: " + msg.meta.PinnedPoint + ")"
		}
		m.setStatus(text, false)
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.err)
		return m, nil

	case tea.MouseMsg:
		if !m.showHelp {
			m.handleMouse(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			switch {
			case key.Matches(msg, m.keys.Help), msg.String() == "esc", msg.String() == "q":
				m.showHelp = false
				return m, nil
			}
			var cmd tea.Cmd
			m.helpView, cmd = m.helpView.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pts := m.chart.TrackedPoints()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return *m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView.SetContent(renderHelp(m.keys, m.width))
		m.helpView.GotoTop()

	case key.Matches(msg, m.keys.Right):
		if len(pts) > 0 {
			m.moveTo(pts, min(m.cursor+1, len(pts)-1))
		}

	case key.Matches(msg, m.keys.Left):
		if len(pts) > 0 {
			next := m.cursor - 1
			if m.cursor < 0 {
				next = len(pts) - 1
			}
			m.moveTo(pts, max(next, 0))
		}

	case key.Matches(msg, m.keys.First):
		if len(pts) > 0 {
			m.moveTo(pts, 0)
		}

	case key.Matches(msg, m.keys.Last):
		if len(pts) > 0 {
			m.moveTo(pts, len(pts)-1)
		}

	case key.Matches(msg, m.keys.Out):
		m.pointerOut()

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Accumulate):
		if m.cursor >= 0 && m.cursor < len(pts) {
			m.chart.Select(pts[m.cursor], key.Matches(msg, m.keys.Accumulate))
		}

	case key.Matches(msg, m.keys.ExportPNG):
		return *m, m.export(chart.FormatPNG)

	case key.Matches(msg, m.keys.ExportSVG):
		return *m, m.export(chart.FormatSVG)

	case key.Matches(msg, m.keys.Copy):
		if !m.chart.Tooltip().Visible() {
			m.setStatus("no tooltip to copy", true)
			break
		}
		return *m, copyCmd(m.chart.Tooltip().Text())

	case key.Matches(msg, m.keys.Reload):
		if len(m.opts.Sources) == 0 {
			m.setStatus("nothing to reload", false)
			break
		}
		m.chart.ShowLoading("Reloading...")
		return *m, m.loadCmd()
	}
	return *m, nil
}

func (m *Model) moveTo(pts []*chart.Point, idx int) {
	m.cursor = idx
	m.chart.HoverOn(pts[idx])
}

func (m *Model) pointerOut() {
	m.cursor = -1
	m.chart.PointerOut()
}

// handleMouse maps motion over the plot to a hover at the column's data x
// and motion elsewhere to pointer out. A left click selects the hovered
// point.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	pw, ph := m.plotSize()
	pl := newPlot(m.chart.Layout(), m.chart.Options().YAxis, pw, ph)
	col := msg.X - pl.gutter - 1
	row := msg.Y - headerHeight
	inside := col >= 0 && col < pl.cols && row >= 0 && row < pl.rows

	switch {
	case msg.Action == tea.MouseActionMotion && inside:
		m.hoverAt(pl.dataX(col))
	case msg.Action == tea.MouseActionMotion:
		if m.cursor >= 0 {
			m.pointerOut()
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		if p := m.hoverAt(pl.dataX(col)); p != nil {
			m.chart.Select(p, msg.Shift)
		}
	}
}

func (m *Model) hoverAt(x float64) *chart.Point {
	p := m.chart.Hover(x)
	m.cursor = -1
	for i, q := range m.chart.TrackedPoints() {
		if q == p {
			m.cursor = i
			break
		}
	}
	return p
}

// export captures the chart on the event loop and saves it off the loop.
func (m *Model) export(format chart.Format) tea.Cmd {
	if m.opts.Store == nil {
		m.setStatus(errExportsDisabled.Error(), true)
		return nil
	}
	cfg := m.opts.Config.Chart
	meta, img, err := export.Capture(m.chart, format, cfg.Width, cfg.Height)
	if err != nil {
		m.setStatus("export failed: "+err.Error(), true)
		return nil
	}
	m.setStatus("saving "+string(format)+"...", false)
	return saveCmd(m.opts.Store, meta, img)
}

// replaceSeries swaps the loaded series in. Selected points are unselected
// through the chart first so the coordinator sees the selection end.
func (m *Model) replaceSeries(results []series.Result) {
	for _, p := range m.chart.SelectedPoints() {
		m.chart.Select(p, true)
	}
	m.chart.RemoveSeries()
	for _, cfg := range m.opts.Series {
		m.chart.AddSeries(cfg)
	}
	err := series.Attach(m.chart, results)
	m.chart.HideLoading()
	m.cursor = -1

	loaded := 0
	for _, r := range results {
		if r.Err == nil {
			loaded++
		}
	}
	if err != nil {
		m.setStatus(fmt.Sprintf("loaded %d/%d sources: %v", loaded, len(results), err), true)
		return
	}
	m.setStatus(fmt.Sprintf("loaded %d sources", loaded), false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// plotSize is the cell area left for the plot once the header, footer and
// tooltip column are taken.
func (m Model) plotSize() (int, int) {
	return max(10, m.width-tooltipWidth-1), max(minPlotHeight, m.height-headerHeight-footerHeight)
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.helpView.View() + "\n" + m.footer()
	}

	pw, ph := m.plotSize()
	var body string
	if loading, text := m.chart.Loading(); loading {
		body = lipgloss.Place(pw, ph, lipgloss.Center, lipgloss.Center, m.theme.MutedText.Render(text))
	} else {
		var cursor *chart.Point
		if pts := m.chart.TrackedPoints(); m.cursor >= 0 && m.cursor < len(pts) {
			cursor = pts[m.cursor]
		}
		body, _ = renderPlot(m.chart, cursor, pw, ph, m.theme)
	}
	body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.tooltipView())

	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer())
}

func (m Model) header() string {
	title := m.chart.Options().Title
	if title == "" {
		title = "chartpin"
	}
	state := "following pointer"
	if m.pin.AnySelected() {
		state = fmt.Sprintf("pinned (%d selected)", len(m.chart.SelectedPoints()))
	}
	return m.theme.Header.Render(truncateRunesHelper(title, max(10, m.width/2), "…")) + " " + m.theme.MutedText.Render(state)
}

func (m Model) tooltipView() string {
	tt := m.chart.Tooltip()
	box := m.theme.Tooltip
	if m.pin.AnySelected() {
		box = m.theme.PinnedBox
	}
	inner := tooltipWidth - 4
	if !tt.Visible() {
		return box.Width(inner).Render(m.theme.MutedText.Render("no tooltip"))
	}
	lines := tt.Lines()
	for i, l := range lines {
		lines[i] = truncateRunesHelper(l, inner, "…")
	}
	if len(lines) > 0 {
		lines[0] = m.theme.Base.Bold(true).Render(lines[0])
	}
	return box.Width(inner).Render(strings.Join(lines, "\n"))
}

func (m Model) footer() string {
	text := m.status
	if runewidth.StringWidth(text) > m.width {
		text = truncateRunesHelper(text, m.width, "…")
	}
	status := m.theme.Status.Render(text)
	if m.statusErr {
		status = m.theme.ErrorText.Render(text)
	}
	return status + "\n" + m.help.View(m.keys)
}
