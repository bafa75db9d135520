package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vanderheijden86/chartpin/internal/datasource"
	"github.com/vanderheijden86/chartpin/pkg/api"
	"github.com/vanderheijden86/chartpin/pkg/config"
	"github.com/vanderheijden86/chartpin/pkg/metrics"
)

func runServe(cfg config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Serve.Addr, "addr", cfg.Serve.Addr, "Listen address")
	fs.StringVar(&cfg.Serve.DB, "db", cfg.Serve.DB, "Data set database")
	fs.StringVar(&cfg.Serve.LogFile, "log-file", cfg.Serve.LogFile, "Log file (rotated); empty logs to stderr only")
	level := fs.String("log-level", "info", "debug, info, warn or error")
	if err := parse(fs, args); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(stderr, cfg.Serve.LogFile, *level)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()

	store, err := datasource.Open(ctx, cfg.Serve.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           api.NewRouter(store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("series api listening", "addr", cfg.Serve.Addr, "db", cfg.Serve.DB)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return err
	}
	logger.Info("series api stopped")
	if metrics.Enabled() {
		logger.Debug("timings\n" + metrics.Summary())
	}
	return nil
}

// newLogger logs text records to stderr and, when filename is set, to a
// size rotated file.
func newLogger(stderr io.Writer, filename, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		lvl = slog.LevelInfo
	default:
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}

	out, closeFn := stderr, func() {}
	if filename != "" {
		if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
			return nil, nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
		out = io.MultiWriter(stderr, lj)
		closeFn = func() { _ = lj.Close() }
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}
