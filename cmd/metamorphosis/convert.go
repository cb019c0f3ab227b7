package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"metamorphosis/internal/batch"
	"metamorphosis/internal/catalog"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/metrics"
	"metamorphosis/internal/startup"
)

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("convert", stderr)
	to := fs.StringP("to", "t", "", `target format, e.g. png, mp4 or "PNG (No Background)"`)
	quiet := fs.BoolP("quiet", "q", false, "only print failures and the summary")

	cfg, code := loadConfig(fs, args, stderr)
	if cfg == nil {
		return code
	}

	if *to == "" {
		fmt.Fprintln(stderr, "Error: --to is required")
		fmt.Fprintf(stderr, "Targets: %s\n", strings.Join(catalog.ListAllTargets(), ", "))
		return exitUsage
	}
	target, err := catalog.ParseTarget(*to)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Targets: %s\n", strings.Join(catalog.ListAllTargets(), ", "))
		return exitUsage
	}

	paths := fs.Args()
	if len(paths) == 0 {
		existed, err := startup.EnsureInputDir(cfg.InputDir)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
		if !existed {
			fmt.Fprintf(stdout, "Created %s. Put your files there and run again.\n", cfg.InputDir)
			return exitOK
		}
		paths = []string{cfg.InputDir}
	}

	inputs, err := batch.Collect(paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	if len(inputs) == 0 {
		fmt.Fprintf(stderr, "No supported files found in %s\n", strings.Join(paths, ", "))
		return exitFailed
	}

	env, err := setup(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	defer env.close()

	opts := env.batchOptions()
	if isTerminal(stderr) {
		opts.Progress = func(done, total int, res convert.Result) {
			status := "done"
			if !res.OK() {
				status = "failed"
			}
			fmt.Fprintf(stderr, "[%d/%d] %s %s\n", done, total, status, res.Input)
		}
	}

	summary := batch.Run(ctx, env.router, inputs, target.Token, opts)
	metrics.ObserveBatch(summary.Succeeded, summary.Failed, summary.Duration)
	env.record(ctx, summary)

	printSummary(stdout, summary, *quiet)
	if !summary.OK() {
		return exitFailed
	}
	return exitOK
}

// printSummary writes one line per input, in input order, then the totals.
func printSummary(w io.Writer, summary *batch.Summary, quiet bool) {
	for _, res := range summary.Results {
		switch {
		case res.OK() && !quiet:
			fmt.Fprintf(w, "[OK]     %s -> %s\n", res.Input, res.Output)
		case !res.OK():
			fmt.Fprintf(w, "[FAILED] %s: %s\n", res.Input, res.Message())
		}
	}
	fmt.Fprintf(w, "Converted %d of %d files to %s in %v (batch %s)\n",
		summary.Succeeded, len(summary.Results), summary.Target,
		summary.Duration.Round(time.Millisecond), summary.ID)
}
