package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"metamorphosis/internal/catalog"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/filesystem"
	"metamorphosis/internal/logging"
	"metamorphosis/internal/workers"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxDefaultWorkers caps the automatic pool size.
const maxDefaultWorkers = 8

// Converter is the subset of the router a batch needs.
type Converter interface {
	Plan(input, token string) (convert.Plan, error)
	Convert(ctx context.Context, input, token string) convert.Result
}

// Gate holds back conversions, for example while memory is short. Wait
// returns an error only when ctx ends.
type Gate interface {
	Wait(ctx context.Context) error
}

// Options configures a batch run.
type Options struct {
	// Workers is the pool size (0 = auto based on CPU)
	Workers int
	// Gate is consulted before each conversion starts (nil = never wait)
	Gate Gate
	// Locks serialises conversions writing the same output
	// (nil = a lock set private to the run)
	Locks *Locks
	// Progress is called after each conversion with the number finished
	// so far. Calls are serialised.
	Progress func(done, total int, res convert.Result)
}

// Summary is the outcome of a batch.
type Summary struct {
	ID        string
	Target    string
	Results   []convert.Result
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// OK reports whether every conversion succeeded.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// Collect expands paths into conversion inputs. Directories contribute
// their catalog-supported files (not recursively), minus outputs of
// earlier runs (name_meta.ext). Other paths are kept as given so the
// router can report them. Duplicates are dropped and the first-seen order
// is kept.
func Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string

	add := func(p string) {
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		seen[key] = true
		inputs = append(inputs, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}

		files, err := filesystem.ScanDir(p, isScanSource)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p, err)
		}
		if len(files) == 0 {
			logging.Info("No supported files found in %s", p)
		}
		for _, f := range files {
			add(f)
		}
	}

	return inputs, nil
}

// isScanSource accepts supported files that are not suffixed outputs.
func isScanSource(path string) bool {
	if !catalog.IsValidSource(path) {
		return false
	}
	base := filepath.Base(path)
	return !strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), convert.Suffix)
}

// Run converts every input to target. The returned Summary holds one
// Result per input in input order. Cancelling ctx stops new conversions;
// inputs that never started are reported with the context error.
func Run(ctx context.Context, conv Converter, inputs []string, target string, opts Options) *Summary {
	start := time.Now()
	summary := &Summary{
		ID:      uuid.NewString(),
		Target:  target,
		Results: make([]convert.Result, len(inputs)),
	}

	numWorkers := workers.Resolve(opts.Workers, maxDefaultWorkers)
	if numWorkers > len(inputs) {
		numWorkers = max(1, len(inputs))
	}
	logging.Info("Batch %s: converting %d files to %s with %d workers", summary.ID, len(inputs), target, numWorkers)

	locks := opts.Locks
	if locks == nil {
		locks = NewLocks()
	}
	var progressMu sync.Mutex
	done := 0

	g := new(errgroup.Group)
	g.SetLimit(numWorkers)

	for i, input := range inputs {
		g.Go(func() error {
			var res convert.Result
			if err := admit(ctx, opts.Gate); err != nil {
				res = convert.Result{Input: input, Target: target, Err: &convert.Error{Kind: convert.UnderlyingFailure, Err: err}}
			} else {
				res = ConvertOne(ctx, conv, locks, input, target)
			}
			summary.Results[i] = res

			if opts.Progress != nil {
				progressMu.Lock()
				done++
				opts.Progress(done, len(inputs), res)
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range summary.Results {
		if res.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)

	logging.Info("Batch %s complete: %d succeeded, %d failed in %v",
		summary.ID, summary.Succeeded, summary.Failed, summary.Duration)
	return summary
}

func admit(ctx context.Context, gate Gate) error {
	if gate == nil {
		return ctx.Err()
	}
	return gate.Wait(ctx)
}

// ConvertOne runs a single conversion holding the lock of its output path.
// Requests that fail validation have no output and need no lock.
func ConvertOne(ctx context.Context, conv Converter, locks *Locks, input, target string) convert.Result {
	plan, err := conv.Plan(input, target)
	if err != nil {
		return conv.Convert(ctx, input, target)
	}

	unlock := locks.Lock(plan.Output)
	defer unlock()
	return conv.Convert(ctx, input, target)
}
