package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"metamorphosis/internal/media"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancelCause(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel(errors.New(sig.String()))
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	cancel(nil)
	media.ShutdownVips()
	os.Exit(code)
}

// run dispatches to a sub-command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "convert":
		return runConvert(ctx, rest, stdout, stderr)
	case "targets":
		return runTargets(rest, stdout, stderr)
	case "check":
		return runCheck(ctx, rest, stdout, stderr)
	case "history":
		return runHistory(ctx, rest, stdout, stderr)
	case "serve":
		return runServe(ctx, rest, stdout, stderr)
	case "version":
		return runVersion(stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(stderr)
		return exitUsage
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "metamorphosis - convert images, video, audio and e-books")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: metamorphosis <command> [flags] [paths...]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert --to TARGET [paths]  - Convert files or directories (default: the input directory)")
	fmt.Fprintln(w, "  targets [--source EXT]       - List conversion targets")
	fmt.Fprintln(w, "  check PATH...                - Show format details and targets for files")
	fmt.Fprintln(w, "  history [--limit N]          - Show recorded conversions (needs --history-db)")
	fmt.Fprintln(w, "  serve                        - Run the HTTP API")
	fmt.Fprintln(w, "  version                      - Print version information")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'metamorphosis <command> --help' for the flags of a command.")
}
