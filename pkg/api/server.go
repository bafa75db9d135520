// Package api serves chart series from a data set store over HTTP.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/chartpin/internal/datasource"
	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/pin"
	"github.com/vanderheijden86/chartpin/pkg/series"
)

// Store is the data the endpoints read.
type Store interface {
	PercentileSeries(ctx context.Context, id int64) (chart.SeriesConfig, error)
	PointSeries(ctx context.Context, id int64, q datasource.PointQuery) (chart.SeriesConfig, series.Errors, error)
	States(ctx context.Context) ([]datasource.State, error)
	DataSets(ctx context.Context) ([]datasource.DataSet, error)
}

// stateEntry is one element of the state list.
type stateEntry struct {
	FIPS   string `json:"fips"`
	USPS   string `json:"usps"`
	Name   string `json:"name"`
	Search string `json:"search"`
}

// NewRouter returns the HTTP handler for the series API.
func NewRouter(store Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return newRouter(&handlers{store: store, log: logger, export: exportLocal})
}

func newRouter(h *handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/state/list/", h.stateList)
		r.Get("/datasets/", h.dataSets)
		r.Get("/chart/percentiles/{id}/", h.percentiles)
		r.Get("/chart/points/{id}", h.points)
		r.Get("/chart/render/{id}/{format}", h.render)
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type handlers struct {
	store  Store
	log    *slog.Logger
	export func(c *chart.Chart, w io.Writer, format chart.Format) error
}

func exportLocal(c *chart.Chart, w io.Writer, format chart.Format) error {
	_, err := c.ExportLocal(chart.ExportOptions{Writer: w, Format: format}, chart.Options{})
	return err
}

func (h *handlers) stateList(w http.ResponseWriter, r *http.Request) {
	states, err := h.store.States(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]stateEntry, len(states))
	for i, s := range states {
		out[i] = stateEntry{FIPS: s.FIPS, USPS: s.Code, Name: s.Name, Search: s.Code + " " + s.Name}
	}
	h.writeJSON(w, r, out)
}

func (h *handlers) dataSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.store.DataSets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if sets == nil {
		sets = []datasource.DataSet{}
	}
	h.writeJSON(w, r, sets)
}

func (h *handlers) percentiles(w http.ResponseWriter, r *http.Request) {
	id, err := dataSetID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cfg, err := h.store.PercentileSeries(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, series.Payload{Config: &cfg})
}

func (h *handlers) points(w http.ResponseWriter, r *http.Request) {
	id, err := dataSetID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cfg, errs, err := h.store.PointSeries(r.Context(), id, pointQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, r, series.Payload{Config: &cfg, Errors: errs})
}

// render draws the data set chart server side. With ?select=N the N-th
// tracked point is selected first, so its tooltip is pinned in the image.
func (h *handlers) render(w http.ResponseWriter, r *http.Request) {
	id, err := dataSetID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	format := chart.Format(chi.URLParam(r, "format"))
	if format != chart.FormatPNG && format != chart.FormatSVG {
		h.fail(w, r, fmt.Errorf("%w %q", chart.ErrUnsupportedFormat, format))
		return
	}
	preset := r.URL.Query().Get("preset")
	opts, err := chart.PresetOptions(preset)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	pcts, err := h.store.PercentileSeries(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	opts.Series = []chart.SeriesConfig{pcts}
	if q := pointQuery(r); q.State != "" || len(q.Counties) > 0 {
		pts, _, err := h.store.PointSeries(r.Context(), id, q)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		opts.Series = append(opts.Series, pts)
	}
	if preset != chart.PresetSmall {
		opts.Title = r.URL.Query().Get("title")
	}

	co := pin.New()
	c := chart.New(opts, co.Options()...)
	if sel := r.URL.Query().Get("select"); sel != "" {
		idx, err := strconv.Atoi(sel)
		tracked := c.TrackedPoints()
		if err != nil || idx < 0 || idx >= len(tracked) {
			h.fail(w, r, fmt.Errorf("select %q: want 0..%d", sel, len(tracked)-1))
			return
		}
		c.Select(tracked[idx], false)
	}

	var buf bytes.Buffer
	if err := h.export(c, &buf, format); err != nil {
		h.fail(w, r, fmt.Errorf("render data set %d: %w", id, err))
		return
	}
	switch format {
	case chart.FormatSVG:
		w.Header().Set("Content-Type", "image/svg+xml")
	default:
		w.Header().Set("Content-Type", "image/png")
	}
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("write rendered chart", "data_set", id, "error", err)
	}
}

func dataSetID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid data set id %q", raw)
	}
	return id, nil
}

func pointQuery(r *http.Request) datasource.PointQuery {
	q := r.URL.Query()
	pq := datasource.PointQuery{State: q.Get("state")}
	if counties := q.Get("county"); counties != "" {
		pq.Counties = strings.Split(counties, ",")
	}
	return pq
}

func (h *handlers) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// fail answers 500 with the error text for every failure, as the series
// endpoints always have.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Warn("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
