package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/chartpin/pkg/debug"
	"github.com/vanderheijden86/chartpin/pkg/metrics"
)

// Format is a static image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var (
	// ErrUnsupportedFormat is returned for formats other than png and svg.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNoDestination is returned when an export has nowhere to write.
	ErrNoDestination = errors.New("export destination is required")
)

// ExportOptions controls one export.
type ExportOptions struct {
	Path   string    // Export: output file; format inferred from extension when Format is empty
	Writer io.Writer // ExportLocal: destination
	Format Format
	Width  int // overrides the chart width when non-zero
	Height int // overrides the chart height when non-zero
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path        string
	Format      Format
	Width       int
	Height      int
	Bytes       int64
	Tooltip     []string // tooltip lines drawn into the image; empty when hidden
	TooltipFrom *Point   // point that filled the drawn tooltip
}

// ExportFunc is the signature shared by both export code paths.
type ExportFunc func(exp ExportOptions, chartOpts Options) (ExportResult, error)

// ExportInterceptor wraps both export code paths. It receives the original
// export function with its unchanged arguments.
type ExportInterceptor interface {
	Export(original ExportFunc, exp ExportOptions, chartOpts Options) (ExportResult, error)
}

// Export renders a static image to exp.Path. chartOpts are merged over the
// chart's own options before the export chart is built.
func (c *Chart) Export(exp ExportOptions, chartOpts Options) (ExportResult, error) {
	if i := c.exportInterceptor; i != nil {
		return i.Export(c.exportFile, exp, chartOpts)
	}
	return c.exportFile(exp, chartOpts)
}

// ExportLocal renders a static image into exp.Writer without touching the
// filesystem.
func (c *Chart) ExportLocal(exp ExportOptions, chartOpts Options) (ExportResult, error) {
	if i := c.exportInterceptor; i != nil {
		return i.Export(c.exportLocal, exp, chartOpts)
	}
	return c.exportLocal(exp, chartOpts)
}

func (c *Chart) exportFile(exp ExportOptions, chartOpts Options) (ExportResult, error) {
	if exp.Path == "" {
		return ExportResult{}, ErrNoDestination
	}
	format, path, err := resolveFormat(exp.Format, exp.Path)
	if err != nil {
		return ExportResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("create parent dir: %w", err)
	}

	var buf bytes.Buffer
	res, err := c.render(&buf, format, exp, chartOpts)
	if err != nil {
		return ExportResult{}, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write export: %w", err)
	}
	res.Path = path
	return res, nil
}

func (c *Chart) exportLocal(exp ExportOptions, chartOpts Options) (ExportResult, error) {
	if exp.Writer == nil {
		return ExportResult{}, ErrNoDestination
	}
	format := exp.Format
	if format == "" {
		format = FormatPNG
	}
	format, _, err := resolveFormat(format, "")
	if err != nil {
		return ExportResult{}, err
	}
	return c.render(exp.Writer, format, exp, chartOpts)
}

// render builds a fresh chart from the merged configuration, which runs its
// Load hooks, and draws that chart. The live chart is never drawn.
func (c *Chart) render(w io.Writer, format Format, exp ExportOptions, chartOpts Options) (ExportResult, error) {
	defer metrics.Timer(metrics.ExportRender)()

	opts := MergeOptions(c.opts, chartOpts, Options{Width: exp.Width, Height: exp.Height})
	ec := New(opts, c.settings...)
	debug.Log("chart: export %s %dx%d tooltip=%v", format, ec.layout.Width, ec.layout.Height, ec.tooltip.visible)

	cw := &countingWriter{w: w}
	var err error
	switch format {
	case FormatPNG:
		err = renderPNG(cw, ec)
	case FormatSVG:
		err = renderSVG(cw, ec)
	default:
		err = fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return ExportResult{}, err
	}

	res := ExportResult{
		Format: format,
		Width:  ec.layout.Width,
		Height: ec.layout.Height,
		Bytes:  cw.n,
	}
	if ec.tooltip.visible {
		res.Tooltip = ec.tooltip.Lines()
		res.TooltipFrom = ec.tooltip.point
	}
	return res, nil
}

func resolveFormat(f Format, path string) (Format, string, error) {
	format := Format(strings.ToLower(strings.TrimPrefix(string(f), ".")))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = FormatSVG
		case ".png":
			format = FormatPNG
		default:
			format = FormatPNG
			if path != "" && filepath.Ext(path) == "" {
				path += ".png"
			}
		}
	}
	if format != FormatPNG && format != FormatSVG {
		return "", path, fmt.Errorf("%w %q (want png or svg)", ErrUnsupportedFormat, format)
	}
	return format, path, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
