package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestNewResponseWriter(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != 0 {
		t.Errorf("Expected bytesWritten to be 0, got %d", rw.bytesWritten)
	}
	if rw.wroteHeader {
		t.Error("Expected wroteHeader to be false initially")
	}
}

func TestResponseWriterWriteHeader(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	rw.WriteHeader(http.StatusNotFound)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}

	// Write header again - should be ignored
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Error("Status code should not change after first WriteHeader")
	}
}

func TestResponseWriterWrite(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	data := []byte("test data")
	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != len(data) || rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected %d bytes written, got n=%d counted=%d", len(data), n, rw.bytesWritten)
	}
	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{"logs api requests", "/api/targets", DefaultLoggingConfig(), true},
		{"skips metrics by default", "/metrics", DefaultLoggingConfig(), false},
		{"logs health checks when enabled", "/healthz", LoggingConfig{LogHealthChecks: true}, true},
		{"skips health checks when disabled", "/healthz", LoggingConfig{LogHealthChecks: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.config.Output = &buf

			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte("ok"))
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusTeapot {
				t.Errorf("Expected status 418, got %d", w.Code)
			}
			if got := buf.Len() > 0; got != tt.expectLogging {
				t.Errorf("logged = %v, want %v (%q)", got, tt.expectLogging, buf.String())
			}
		})
	}
}

func TestFormatW3C(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/convert?dry=1", http.NoBody)
	req.RemoteAddr = "10.0.0.5:4242"
	req.Header.Set("User-Agent", "curl/8.0 (x86_64)")

	rw := newResponseWriter(httptest.NewRecorder())
	rw.WriteHeader(http.StatusCreated)
	_, _ = rw.Write([]byte("12345"))

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := formatW3C(now, req, rw, 42*time.Millisecond)
	want := `2026-03-04 05:06:07 10.0.0.5 POST /api/convert dry=1 201 5 42 "curl/8.0 (x86_64)"`
	if got != want {
		t.Errorf("formatW3C() =\n%q\nwant\n%q", got, want)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := map[string]string{
		"plain":            "plain",
		"a\nb\rc":          "a b c",
		"nul\x00byte":      "nulbyte",
		"\x1b[31mred":      "[31mred",
		"tab\tkept\x07bel": "tab\tkeptbel",
	}
	for in, want := range tests {
		if got := sanitizeLogField(in); got != want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "192.168.1.9:5555"
	if got := getClientIP(req); got != "192.168.1.9" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	req.Header.Set("X-Real-IP", "172.16.0.1")
	if got := getClientIP(req); got != "172.16.0.1" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := getClientIP(req); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestEscapeW3CField(t *testing.T) {
	if got := escapeW3CField("simple"); got != "simple" {
		t.Errorf("got %q", got)
	}
	if got := escapeW3CField(`say "hi" now`); got != `"say ""hi"" now"` {
		t.Errorf("got %q", got)
	}
}

func TestMetricsMiddlewareRouteLabel(t *testing.T) {
	var label string
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		label = routeLabel(req)
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/items/123", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}
	if label != "/api/items/{id}" {
		t.Errorf("routeLabel = %q, want template", label)
	}
}

func TestRouteLabelUnmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody)
	if got := routeLabel(req); got != "unmatched" {
		t.Errorf("routeLabel = %q, want unmatched", got)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	called := false
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_, _ = w.Write([]byte(strings.Repeat("x", 3)))
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Error("skipped path must still reach the handler")
	}
}
