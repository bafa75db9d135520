// Package debug provides conditional debug logging for chartpin.
//
// Debug logging is enabled by setting the CHARTPIN_DEBUG environment variable:
//
//	CHARTPIN_DEBUG=1 chartpin export points.json
//
// Output goes to stderr, or to CHARTPIN_DEBUG_FILE when set. The terminal UI
// owns the screen, so use the file variant while the viewer runs; the file is
// rotated by size.
//
// When disabled (default), all functions are no-ops.
package debug

import (
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const prefix = "[CHARTPIN_DEBUG] "

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("CHARTPIN_DEBUG") != "" {
		enabled = true
		logger = log.New(output(os.Getenv("CHARTPIN_DEBUG_FILE")), prefix, log.Ltime|log.Lmicroseconds)
	}
}

func output(path string) io.Writer {
	if path == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7,
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. Tests use it to capture log lines.
func SetOutput(w io.Writer) {
	logger = log.New(w, prefix, 0)
}

// Log writes a debug message if debug logging is enabled.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("export")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}
