package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"metamorphosis/internal/catalog"
	"metamorphosis/internal/convert"
)

// gatheredValue returns the value of the first sample of name whose labels
// include all of want.
func gatheredValue(t *testing.T, name string, want map[string]string) (float64, bool) {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched != len(want) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func TestInitializeMetricsExportsLabels(t *testing.T) {
	InitializeMetrics()

	for _, route := range convert.Routes() {
		if _, ok := gatheredValue(t, "metamorphosis_conversion_duration_seconds", map[string]string{"route": route.String()}); !ok {
			t.Errorf("conversion duration for route %q not exported", route)
		}
	}
	if _, ok := gatheredValue(t, "metamorphosis_batch_files_total", map[string]string{"status": "failure"}); !ok {
		t.Error("batch failure counter not exported")
	}
	if _, ok := gatheredValue(t, "metamorphosis_db_queries_total", map[string]string{"operation": "record_conversion", "status": "error"}); !ok {
		t.Error("db query counter not exported")
	}
}

func TestConversionObserver(t *testing.T) {
	obs := NewConversionObserver()
	labels := map[string]string{"route": "image", "target": ".png", "kind": "success"}
	before, _ := gatheredValue(t, "metamorphosis_conversions_total", labels)

	obs.ObserveConversion(convert.Result{Input: "a.jpg", Target: "png", Route: convert.RouteImage, Duration: 20 * time.Millisecond})

	after, ok := gatheredValue(t, "metamorphosis_conversions_total", labels)
	if !ok || after != before+1 {
		t.Errorf("success counter = %v, want %v", after, before+1)
	}

	failLabels := map[string]string{"route": "none", "target": ".mp4", "kind": "unsupported_combination"}
	before, _ = gatheredValue(t, "metamorphosis_conversions_total", failLabels)
	target, err := catalog.ParseTarget("mp4")
	if err != nil {
		t.Fatalf("ParseTarget() error: %v", err)
	}
	_, err = convert.ResolveRoute(".png", target)
	obs.ObserveConversion(convert.Result{Input: "a.png", Target: "mp4", Err: err})
	after, ok = gatheredValue(t, "metamorphosis_conversions_total", failLabels)
	if !ok || after != before+1 {
		t.Errorf("failure counter = %v, want %v", after, before+1)
	}
}

func TestTargetLabel(t *testing.T) {
	tests := map[string]string{
		"png":          ".png",
		"JPEG":         ".jpg",
		"nobg":         catalog.RemoveBackground,
		"not-a-format": "invalid",
		"":             "invalid",
	}
	for token, want := range tests {
		if got := targetLabel(token); got != want {
			t.Errorf("targetLabel(%q) = %q, want %q", token, got, want)
		}
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()
	labels := map[string]string{"operation": "open", "outcome": "attempt"}
	before, _ := gatheredValue(t, "metamorphosis_filesystem_retries_total", labels)
	obs.ObserveRetry("open", "attempt")
	after, _ := gatheredValue(t, "metamorphosis_filesystem_retries_total", labels)
	if after != before+1 {
		t.Errorf("retry counter = %v, want %v", after, before+1)
	}

	errsBefore, _ := gatheredValue(t, "metamorphosis_atomic_write_errors_total", nil)
	obs.ObserveAtomicWrite(0.01, nil)
	obs.ObserveAtomicWrite(0.02, errors.New("disk full"))
	errsAfter, _ := gatheredValue(t, "metamorphosis_atomic_write_errors_total", nil)
	if errsAfter != errsBefore+1 {
		t.Errorf("atomic write errors = %v, want %v", errsAfter, errsBefore+1)
	}
}

func TestObserveBatch(t *testing.T) {
	before, _ := gatheredValue(t, "metamorphosis_batches_total", nil)
	ObserveBatch(3, 1, 1500*time.Millisecond)

	after, _ := gatheredValue(t, "metamorphosis_batches_total", nil)
	if after != before+1 {
		t.Errorf("batches = %v, want %v", after, before+1)
	}
	last, _ := gatheredValue(t, "metamorphosis_batch_last_duration_seconds", nil)
	if last != 1.5 {
		t.Errorf("last duration = %v, want 1.5", last)
	}
}

func TestSetToolAvailable(t *testing.T) {
	SetToolAvailable("ffmpeg", true)
	SetToolAvailable("rembg", false)

	if v, _ := gatheredValue(t, "metamorphosis_tool_available", map[string]string{"tool": "ffmpeg"}); v != 1 {
		t.Errorf("ffmpeg = %v, want 1", v)
	}
	if v, _ := gatheredValue(t, "metamorphosis_tool_available", map[string]string{"tool": "rembg"}); v != 0 {
		t.Errorf("rembg = %v, want 0", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")
	path := filepath.Join(t.TempDir(), "metamorphosis.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(data), `metamorphosis_app_info{commit="abc123",go_version="go1.25",version="1.0.0"} 1`) {
		t.Errorf("textfile missing app info:\n%s", data)
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "metrics.prom")
	if err := WriteTextfile(path); err == nil {
		t.Error("expected error for missing directory")
	}
}
