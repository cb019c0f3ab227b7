package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func runArgs(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("METAMORPHOSIS_CONFIG", "")
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunNoArgs(t *testing.T) {
	code, _, stderr := runArgs(t)
	if code != exitUsage {
		t.Errorf("exit = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, "Usage:") {
		t.Errorf("usage not printed: %q", stderr)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	code, _, stderr := runArgs(t, "bad;cmd")
	if code != exitUsage {
		t.Errorf("exit = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, "Unknown command: bad_cmd") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSanitizeCommand(t *testing.T) {
	tests := map[string]string{
		"convert":     "convert",
		"re-set_2":    "re-set_2",
		"a b\nc":      "a_b_c",
		"\x1b[31mred": "__31mred",
	}
	for in, want := range tests {
		if got := sanitizeCommand(in); got != want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runArgs(t, "version")
	if code != exitOK || !strings.HasPrefix(stdout, "metamorphosis ") {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}
}

func TestRunTargets(t *testing.T) {
	code, stdout, _ := runArgs(t, "targets")
	if code != exitOK || !strings.Contains(stdout, "Targets:") || !strings.Contains(stdout, ".epub") {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}

	code, stdout, _ = runArgs(t, "targets", "--source", "mp4")
	if code != exitOK || !strings.Contains(stdout, "Targets for .mp4 (video)") || !strings.Contains(stdout, ".mp3") {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}

	code, _, stderr := runArgs(t, "targets", "-s", ".xyz")
	if code != exitFailed || !strings.Contains(stderr, "unsupported source format: .xyz") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	writePNG(t, filepath.Join(dir, "b.png"))

	code, stdout, stderr := runArgs(t, "convert", "--to", "jpg", dir)
	if code != exitOK {
		t.Fatalf("exit = %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}
	for _, name := range []string{"a_meta.jpg", "b_meta.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if strings.Count(stdout, "[OK]") != 2 || !strings.Contains(stdout, "Converted 2 of 2 files to .jpg") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunConvertInPlaceSameFormat(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "a.png")
	writePNG(t, photo)

	code, stdout, _ := runArgs(t, "convert", "--naming", "in-place", "--to", "png", photo)
	if code != exitFailed {
		t.Errorf("exit = %d, want %d", code, exitFailed)
	}
	if !strings.Contains(stdout, "[FAILED] "+photo+": ignored: same format") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunConvertFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "a.png")
	writePNG(t, photo)

	code, stdout, _ := runArgs(t, "convert", "-t", "mp4", "--quiet", photo)
	if code != exitFailed {
		t.Errorf("exit = %d, want %d", code, exitFailed)
	}
	if !strings.Contains(stdout, "unsupported combination: .png -> .mp4") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunConvertUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing target", []string{"convert", "x.png"}},
		{"unknown target", []string{"convert", "--to", "tga", "x.png"}},
		{"bad naming", []string{"convert", "--to", "png", "--naming", "sideways", "x.png"}},
		{"unknown flag", []string{"convert", "--bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runArgs(t, tt.args...); code != exitUsage {
				t.Errorf("exit = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestRunConvertCreatesInputDir(t *testing.T) {
	input := filepath.Join(t.TempDir(), "input")

	code, stdout, _ := runArgs(t, "convert", "--to", "png", "--input-dir", input)
	if code != exitOK {
		t.Errorf("exit = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stdout, "Created "+input) {
		t.Errorf("stdout = %q", stdout)
	}
	if info, err := os.Stat(input); err != nil || !info.IsDir() {
		t.Errorf("input dir not created: %v", err)
	}

	// Existing but empty directory
	code, _, stderr := runArgs(t, "convert", "--to", "png", "--input-dir", input)
	if code != exitFailed || !strings.Contains(stderr, "No supported files") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestRunConvertHistoryAndMetrics(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	dbPath := filepath.Join(t.TempDir(), "history.db")
	promPath := filepath.Join(t.TempDir(), "metamorphosis.prom")

	code, stdout, stderr := runArgs(t, "convert", "--to", "bmp",
		"--history-db", dbPath, "--metrics-file", promPath, dir)
	if code != exitOK {
		t.Fatalf("exit = %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}

	prom, err := os.ReadFile(promPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(prom), `metamorphosis_conversions_total{kind="success",route="image",target=".bmp"}`) {
		t.Errorf("metrics file missing conversion counter:\n%s", prom)
	}

	code, stdout, _ = runArgs(t, "history", "--history-db", dbPath)
	if code != exitOK {
		t.Fatalf("history exit = %d", code)
	}
	if !strings.Contains(stdout, "1 conversions in 1 batches: 1 succeeded, 0 failed") {
		t.Errorf("history stdout = %q", stdout)
	}
	if !strings.Contains(stdout, filepath.Join(dir, "a.png")) {
		t.Errorf("history does not list the input: %q", stdout)
	}
}

func TestRunHistoryDisabled(t *testing.T) {
	code, _, stderr := runArgs(t, "history")
	if code != exitUsage || !strings.Contains(stderr, "history is disabled") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "a.png")
	writePNG(t, photo)

	code, stdout, _ := runArgs(t, "check", photo)
	if code != exitOK {
		t.Fatalf("exit = %d, stdout = %q", code, stdout)
	}
	for _, want := range []string{"image/png", "4x4 png", ".ico", "PNG (No Background)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("check output missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runArgs(t, "check", filepath.Join(dir, "missing.png"))
	if code != exitFailed || !strings.Contains(stdout, "file not found") {
		t.Errorf("exit = %d, stdout = %q", code, stdout)
	}

	code, _, _ = runArgs(t, "check")
	if code != exitUsage {
		t.Errorf("exit = %d, want %d", code, exitUsage)
	}
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	return addr
}

func TestRunServe(t *testing.T) {
	t.Setenv("METAMORPHOSIS_CONFIG", "")
	addr := freePort(t)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	done := make(chan int, 1)
	go func() {
		var out, errOut bytes.Buffer
		done <- run(ctx, []string{"serve", "--listen", addr}, &out, &errOut)
	}()

	url := fmt.Sprintf("http://%s/healthz", addr)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("healthz status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel(fmt.Errorf("test done"))
	select {
	case code := <-done:
		if code != exitOK {
			t.Errorf("serve exit = %d, want %d", code, exitOK)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
	}
}
