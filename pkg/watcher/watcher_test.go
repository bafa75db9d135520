package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	// Trigger rapidly 10 times
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	// Wait for debounce to complete
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func writeSeries(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, ch <-chan string, timeout time.Duration) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(timeout):
		t.Fatalf("no change reported within %v", timeout)
		return ""
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	points := filepath.Join(dir, "points.json")
	other := filepath.Join(dir, "percentiles.json")
	writeSeries(t, points, `{"config":{}}`)
	writeSeries(t, other, `{"config":{}}`)

	var (
		mu      sync.Mutex
		changed []string
	)
	w, err := NewWatcher([]string{points, other},
		WithDebounceDuration(50*time.Millisecond),
		WithOnChange(func(p string) {
			mu.Lock()
			changed = append(changed, p)
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	writeSeries(t, points, `{"config":{"name":"Values"}}`)

	if got := waitFor(t, w.Changed(), 2*time.Second); got != points {
		t.Errorf("changed path = %q, want %q", got, points)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(changed) == 0 || changed[0] != points {
		t.Errorf("callback saw %v", changed)
	}
}

func TestWatcher_IgnoresUnwatchedFiles(t *testing.T) {
	dir := t.TempDir()
	points := filepath.Join(dir, "points.json")
	writeSeries(t, points, "{}")

	w, err := NewWatcher([]string{points}, WithDebounceDuration(30*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	writeSeries(t, filepath.Join(dir, "notes.txt"), "hello")

	select {
	case p := <-w.Changed():
		t.Errorf("unexpected change for %q", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	dir := t.TempDir()
	points := filepath.Join(dir, "points.json")
	writeSeries(t, points, "initial")

	w, err := NewWatcher([]string{points},
		WithForcePoll(true),
		WithPollInterval(30*time.Millisecond),
		WithDebounceDuration(30*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}
	time.Sleep(50 * time.Millisecond)
	writeSeries(t, points, "modified content with a different size")

	if got := waitFor(t, w.Changed(), 2*time.Second); got != points {
		t.Errorf("changed path = %q", got)
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv("CHARTPIN_FORCE_POLL", "1")
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "x.json")})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.IsPolling() {
		t.Error("expected polling when CHARTPIN_FORCE_POLL is set")
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	dir := t.TempDir()
	points := filepath.Join(dir, "points.json")
	writeSeries(t, points, "x")

	errCh := make(chan error, 4)
	w, err := NewWatcher([]string{points},
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithOnError(func(err error) { errCh <- err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(points); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrFileRemoved) {
			t.Errorf("error = %v, want ErrFileRemoved", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("removal not reported")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "a.json")})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("expected started")
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	w.Stop()
	w.Stop()
	if w.IsStarted() {
		t.Error("expected stopped")
	}
	if err := w.Start(); err != nil {
		t.Errorf("restart failed: %v", err)
	}
	w.Stop()
}

func TestWatcher_StopClosesChanged(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "a.json")})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	ch := w.Changed()
	w.Stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected a closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("Changed still open after Stop")
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	select {
	case <-w.Changed():
		t.Error("restarted watcher returned a closed channel")
	default:
	}
}

func TestNewWatcher_AbsolutePaths(t *testing.T) {
	if _, err := NewWatcher(nil); err == nil {
		t.Error("expected error for no paths")
	}
	w, err := NewWatcher([]string{"relative.json"})
	if err != nil {
		t.Fatal(err)
	}
	if p := w.Paths()[0]; !filepath.IsAbs(p) {
		t.Errorf("path %q not absolute", p)
	}
}

func TestEnvBool(t *testing.T) {
	tests := map[string]bool{"1": true, "true": true, " YES ": true, "on": true, "0": false, "no": false, "": false}
	for v, want := range tests {
		t.Setenv("CHARTPIN_TEST_BOOL", v)
		if got := envBool("CHARTPIN_TEST_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v, want %v", v, got, want)
		}
	}
}
