// Package series fetches chart series configurations from the series API or
// from local JSON files and attaches them to a chart.
package series

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/debug"
	"github.com/vanderheijden86/chartpin/pkg/metrics"
)

// ErrNoSeries is returned when a payload carries no series configuration.
var ErrNoSeries = errors.New("payload has no series config")

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

// Errors lists lookups the server could not satisfy while building a
// series. Values are "; " separated.
type Errors struct {
	NoCounty string `json:"no_county,omitempty"` // requested FIPS codes with no county
	NoFIPS   string `json:"no_fips,omitempty"`   // counties with no data point
}

// Empty reports whether no lookup failed.
func (e Errors) Empty() bool { return e.NoCounty == "" && e.NoFIPS == "" }

// Payload is the body served by the series endpoints.
type Payload struct {
	Config *chart.SeriesConfig `json:"config"`
	Errors Errors              `json:"errors"`
}

// Client fetches series payloads.
type Client struct {
	HTTP *http.Client
}

// DefaultClient is used by the package level functions.
var DefaultClient = &Client{HTTP: &http.Client{Timeout: 30 * time.Second}}

// Fetch loads one payload using DefaultClient.
func Fetch(ctx context.Context, source string) (Payload, error) {
	return DefaultClient.Fetch(ctx, source)
}

// Fetch loads the payload at source, an http(s) URL or a file path.
func (c *Client) Fetch(ctx context.Context, source string) (Payload, error) {
	defer metrics.Timer(metrics.SeriesLoad)()

	var (
		body []byte
		err  error
	)
	if isURL(source) {
		body, err = c.get(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return Payload{}, fmt.Errorf("fetch %s: %w", source, err)
	}
	return Decode(body)
}

// Decode parses a payload body.
func Decode(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, fmt.Errorf("decode series: %w", err)
	}
	if p.Config == nil {
		return Payload{}, ErrNoSeries
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Result is the outcome of fetching one source.
type Result struct {
	Source  string
	Payload Payload
	Err     error
}

// FetchAll fetches every source concurrently. Results keep the order of
// sources; individual failures are reported in Result.Err.
func (c *Client) FetchAll(ctx context.Context, sources ...string) []Result {
	results := make([]Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, src := range sources {
		g.Go(func() error {
			p, err := c.Fetch(ctx, src)
			results[i] = Result{Source: src, Payload: p, Err: err}
			return nil // failures stay per-source
		})
	}
	_ = g.Wait()
	return results
}

// LoadInto fetches sources concurrently with DefaultClient and attaches
// them to c. See Client.LoadInto.
func LoadInto(ctx context.Context, c *chart.Chart, sources ...string) error {
	return DefaultClient.LoadInto(ctx, c, sources...)
}

// LoadInto shows the loading indicator, fetches every source concurrently
// and, once all have settled, attaches the successful series in source
// order on the calling goroutine. Failed sources are logged and skipped.
// The loading indicator is hidden before returning. The returned error
// joins every failure.
func (c *Client) LoadInto(ctx context.Context, ch *chart.Chart, sources ...string) error {
	defer debug.LogEnterExit("series.LoadInto")()
	ch.ShowLoading("")
	defer ch.HideLoading()

	return Attach(ch, c.FetchAll(ctx, sources...))
}

// Attach adds each successful result to ch in order and joins the
// failures. Lookup errors reported by the server are logged.
func Attach(ch *chart.Chart, results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			debug.Log("series: %s failed: %v", r.Source, r.Err)
			errs = append(errs, r.Err)
			continue
		}
		if !r.Payload.Errors.Empty() {
			debug.Log("series: %s partial: no_county=%q no_fips=%q", r.Source, r.Payload.Errors.NoCounty, r.Payload.Errors.NoFIPS)
		}
		ch.AddSeries(*r.Payload.Config)
	}
	return errors.Join(errs...)
}
