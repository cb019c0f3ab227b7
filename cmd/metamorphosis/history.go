package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"metamorphosis/internal/database"
	"metamorphosis/internal/startup"
)

// defaultTimeout bounds history queries.
const defaultTimeout = 30 * time.Second

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := newFlagSet("history", stderr)
	limit := flags.IntP("limit", "n", 20, "number of conversions to show")
	cfg, code := loadConfig(flags, args, stderr)
	if cfg == nil {
		return code
	}
	if cfg.HistoryDB == "" {
		fmt.Fprintln(stderr, "Error: history is disabled; set --history-db or history-db in the config file")
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	db, err := database.New(ctx, startup.ResolvePath(cfg.HistoryDB))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	defer db.Close()

	stats, err := db.Stats(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to read history: %v\n", err)
		return exitFailed
	}
	conversions, err := db.RecentConversions(ctx, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to read history: %v\n", err)
		return exitFailed
	}

	fmt.Fprintf(stdout, "%d conversions in %d batches: %d succeeded, %d failed\n",
		stats.Total, stats.Batches, stats.Succeeded, stats.Failed)
	if !stats.LastRun.IsZero() {
		fmt.Fprintf(stdout, "Last run: %s (batch %s)\n", stats.LastRun.Local().Format(time.RFC1123), stats.LastBatchID)
	}
	if len(conversions) == 0 {
		return exitOK
	}

	fmt.Fprintln(stdout)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSTATUS\tROUTE\tINPUT\tTARGET\tRESULT")
	for _, c := range conversions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.CreatedAt.Local().Format("2006-01-02 15:04:05"), c.Status, c.Route, c.Input, c.Target, c.Message)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}
