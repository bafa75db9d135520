package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/chartpin/internal/datasource"
	"github.com/vanderheijden86/chartpin/pkg/config"
)

// runImport stores a CSV of county values as a new data set.
func runImport(cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Serve.DB, "db", cfg.Serve.DB, "Data set database")
	name := fs.String("name", "", "Data set name (default: file name)")
	year := fs.Int("year", time.Now().Year(), "Data set year")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "import: exactly one CSV file is required")
		fs.Usage()
		return errUsage
	}
	path := fs.Arg(0)
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := datasource.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := os.MkdirAll(filepath.Dir(cfg.Serve.DB), 0o755); err != nil {
		return err
	}
	store, err := datasource.Open(ctx, cfg.Serve.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Import(ctx, *name, *year, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %d values as data set %d (%s %d)\n", len(rows), id, *name, *year)
	return nil
}
