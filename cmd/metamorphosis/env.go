package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"metamorphosis/internal/batch"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/database"
	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"
	"metamorphosis/internal/media"
	"metamorphosis/internal/memory"
	"metamorphosis/internal/metrics"
	"metamorphosis/internal/startup"
	"metamorphosis/internal/transcoder"
)

// newFlagSet creates a sub-command flag set carrying every config key.
func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	startup.RegisterFlags(fs)
	return fs
}

// loadConfig parses args and loads the configuration. A nil config means
// the command should return the accompanying exit code.
func loadConfig(fs *pflag.FlagSet, args []string, stderr io.Writer) (*startup.Config, int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, exitOK
		}
		return nil, exitUsage
	}

	cfg, err := startup.LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, exitUsage
	}
	cfg.ApplyLogLevel()
	return cfg, exitOK
}

// environment holds the components shared by the converting commands.
type environment struct {
	cfg        *startup.Config
	router     *convert.Router
	transcoder *transcoder.Transcoder
	history    *database.Database
	monitor    *memory.Monitor
	tools      startup.ToolReport
}

// setup wires the router, metrics and optional history for cfg.
func setup(ctx context.Context, cfg *startup.Config) (*environment, error) {
	if _, err := memory.Configure(cfg.MemoryLimit, cfg.MemoryRatio); err != nil {
		return nil, err
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	vipsOK := true
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, WebP output disabled: %v", err)
		vipsOK = false
	}

	trans := transcoder.New(cfg.FFmpeg, cfg.FFprobe)
	env := &environment{
		cfg:        cfg,
		transcoder: trans,
		tools:      startup.CheckTools(cfg, vipsOK),
		router: convert.NewDefault(cfg.Tools(),
			convert.WithTranscoder(trans),
			convert.WithNaming(cfg.NamingConvention()),
			convert.WithTimeout(cfg.Timeout),
			convert.WithObserver(metrics.NewConversionObserver()),
		),
	}

	metrics.SetToolAvailable("libvips", env.tools.Vips)
	metrics.SetToolAvailable("ffmpeg", env.tools.FFmpeg)
	metrics.SetToolAvailable("ffprobe", env.tools.FFprobe)
	metrics.SetToolAvailable("rembg", env.tools.Rembg)

	if cfg.HistoryDB != "" {
		db, err := database.New(ctx, startup.ResolvePath(cfg.HistoryDB))
		if err != nil {
			trans.Cleanup()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		env.history = db
	}

	env.monitor = memory.NewMonitor(memory.DefaultConfig())
	env.monitor.Start()

	return env, nil
}

// batchOptions returns the options every batch of this run uses.
func (e *environment) batchOptions() batch.Options {
	return batch.Options{Workers: e.cfg.Workers, Gate: e.monitor}
}

// record stores a finished batch in the history, if enabled.
func (e *environment) record(ctx context.Context, summary *batch.Summary) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordConversions(context.WithoutCancel(ctx), summary.ID, summary.Results); err != nil {
		logging.Warn("Failed to record conversion history: %v", err)
	}
}

// close stops the memory monitor and running processes, closes the
// history and writes the metrics textfile.
func (e *environment) close() {
	e.monitor.Stop()
	e.transcoder.Cleanup()

	if e.history != nil {
		if err := e.history.Close(); err != nil {
			logging.Warn("Failed to close history database: %v", err)
		}
	}

	if e.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(e.cfg.MetricsFile); err != nil {
			logging.Warn("%v", err)
		}
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
