package series

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/chartpin/pkg/chart"
)

const percentileBody = `{"config":{"name":"Percentiles","type":"spline","color":"gray","enableMouseTracking":false,"marker":{"enabled":false},"zIndex":-1,"data":[[1,0.5],[50,3],[99,9]]}}`

const pointBody = `{"config":{"name":"Values","type":"scatter","color":"darkred","enableMouseTracking":true,"data":[{"x":25,"y":1,"name":"Adams"},{"x":75,"y":6,"name":"Brown"}]},"errors":{"no_county":"99999"}}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/percentiles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(percentileBody))
	})
	mux.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pointBody))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Data_Set matching query does not exist.", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_URL(t *testing.T) {
	srv := newServer(t)
	p, err := Fetch(context.Background(), srv.URL+"/points")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.Config.Name != "Values" || len(p.Config.Data) != 2 || p.Config.Data[1].Name != "Brown" {
		t.Errorf("config = %+v", p.Config)
	}
	if p.Errors.NoCounty != "99999" || p.Errors.Empty() {
		t.Errorf("errors = %+v", p.Errors)
	}
}

func TestFetch_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "percentiles.json")
	if err := os.WriteFile(path, []byte(percentileBody), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.Config.MouseTracking() || len(p.Config.Data) != 3 || p.Config.Data[2].X != 99 {
		t.Errorf("config = %+v", p.Config)
	}
	if !p.Errors.Empty() {
		t.Errorf("unexpected errors %+v", p.Errors)
	}
}

func TestFetch_Errors(t *testing.T) {
	srv := newServer(t)
	tests := map[string]string{
		"server error": srv.URL + "/broken",
		"missing file": filepath.Join(t.TempDir(), "nope.json"),
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Fetch(context.Background(), src); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Fetch(context.Background(), srv.URL+"/broken")
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("error %q should carry status and body", err)
	}
}

func TestDecode(t *testing.T) {
	if _, err := Decode([]byte(`{"errors":{}}`)); !errors.Is(err, ErrNoSeries) {
		t.Errorf("missing config: %v", err)
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Errorf("expected decode error")
	}
}

func TestLoadInto_AttachesInOrderAndJoinsFailures(t *testing.T) {
	srv := newServer(t)
	c := chart.New(chart.Options{})

	err := LoadInto(context.Background(), c, srv.URL+"/percentiles", srv.URL+"/broken", srv.URL+"/points")
	if err == nil {
		t.Fatal("expected joined error for the broken source")
	}
	if !strings.Contains(err.Error(), "/broken") {
		t.Errorf("error %q does not name the failed source", err)
	}

	series := c.Series()
	if len(series) != 2 || series[0].Config.Name != "Percentiles" || series[1].Config.Name != "Values" {
		t.Fatalf("attached series = %d", len(series))
	}
	if loading, _ := c.Loading(); loading {
		t.Error("loading indicator left on")
	}
	if got := len(c.TrackedPoints()); got != 2 {
		t.Errorf("tracked points = %d, want 2", got)
	}
}

func TestLoadInto_AllSucceed(t *testing.T) {
	srv := newServer(t)
	c := chart.New(chart.Options{})
	if err := LoadInto(context.Background(), c, srv.URL+"/percentiles", srv.URL+"/points"); err != nil {
		t.Fatalf("LoadInto: %v", err)
	}
	if len(c.Series()) != 2 {
		t.Errorf("series = %d", len(c.Series()))
	}
}

func TestFetchAll_CanceledContext(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := DefaultClient.FetchAll(ctx, srv.URL+"/points")
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("results = %+v, want a context error", results)
	}
}
