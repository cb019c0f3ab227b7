package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "METAMORPHOSIS_WORKERS"

// Count returns multiplier workers per GOMAXPROCS, at least one. The
// limit caps the result; use 0 for no limit.
//
// Can be overridden with the METAMORPHOSIS_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capped(count, limit)
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capped(workers, limit)
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Resolve returns configured when it is positive and ForCPU(limit)
// otherwise. An explicitly configured count is not capped.
func Resolve(configured, limit int) int {
	if configured > 0 {
		return configured
	}
	return ForCPU(limit)
}
