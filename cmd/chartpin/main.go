package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/chartpin/pkg/config"
	"github.com/vanderheijden86/chartpin/pkg/debug"
	"github.com/vanderheijden86/chartpin/pkg/export"
	"github.com/vanderheijden86/chartpin/pkg/metrics"
	"github.com/vanderheijden86/chartpin/pkg/ui"
	"github.com/vanderheijden86/chartpin/pkg/version"
)

const usage = `Usage: chartpin [command] [options] [sources...]

A chart viewer whose tooltip stays on the selected point.

Commands:
  view       open the terminal viewer (default)
  export     render a chart to PNG or SVG
  snapshots  list saved snapshots
  serve      serve data set series over HTTP
  import     load a CSV of county values into the data set store
  version    print the version

Sources are series payload files or URLs, attached in order.
Run "chartpin <command> -help" for command options.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	cmd := "view"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "view":
		err = runView(cfg, args, stderr)
	case "export":
		err = runExport(cfg, args, stdout, stderr)
	case "snapshots":
		err = runSnapshots(cfg, args, stdout, stderr)
	case "serve":
		err = runServe(cfg, args, stderr)
	case "import":
		err = runImport(cfg, args, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "chartpin %s\n", version.Version)
	case "help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

var errUsage = errors.New("usage")

// chartFlags registers the chart presentation flags shared by view and
// export on fs, defaulting to cfg.
func chartFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Chart.Preset, "preset", cfg.Chart.Preset, "Chart preset: large or small")
	fs.StringVar(&cfg.Chart.Title, "title", cfg.Chart.Title, "Chart title")
	fs.IntVar(&cfg.Chart.Width, "width", cfg.Chart.Width, "Image width in pixels (0 = preset)")
	fs.IntVar(&cfg.Chart.Height, "height", cfg.Chart.Height, "Image height in pixels (0 = preset)")
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func runView(cfg config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(stderr)
	chartFlags(fs, &cfg)
	watch := fs.Bool("watch", true, "Reload source files when they change")
	noMouse := fs.Bool("no-mouse", false, "Disable mouse tracking")
	versionFlag := fs.Bool("version", false, "Show version")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *versionFlag {
		fmt.Fprintf(stderr, "chartpin %s\n", version.Version)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the viewer needs a terminal; use \"chartpin export\" to render to a file")
	}

	store, err := export.NewStore(cfg.Export.Dir)
	if err != nil {
		return err
	}
	m, err := ui.NewModel(ui.Options{
		Config:  cfg,
		Sources: fs.Args(),
		Store:   store,
		Watch:   *watch,
	})
	if err != nil {
		return err
	}
	defer m.Close()
	if debug.Enabled() {
		defer func() { debug.Log("timings\n%s", metrics.Summary()) }()
	}

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}
	if !*noMouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	return runTUIProgram(m, opts...)
}

func runTUIProgram(m ui.Model, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, opts...)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set CHARTPIN_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CHARTPIN_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				select {
				case <-runDone:
				case <-time.After(time.Duration(ms) * time.Millisecond):
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
