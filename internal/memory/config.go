package memory

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"metamorphosis/internal/logging"
)

// DefaultMemoryRatio is the share of the memory limit given to the Go heap.
// The rest is left for FFmpeg, libvips and rembg.
const DefaultMemoryRatio = 0.85

// ConfigResult describes how the Go memory limit was set.
type ConfigResult struct {
	// Configured indicates whether GOMEMLIMIT was set
	Configured bool

	// Source is "GOMEMLIMIT", "config", "MEMORY_LIMIT" or "none"
	Source string

	// Limit is the total memory limit in bytes (0 if not set)
	Limit int64

	// GoMemLimit is the resulting Go memory limit in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the share of Limit given to the heap (0 if not applicable)
	Ratio float64
}

// Configure sets the Go memory limit from a size such as "2GiB", "512M"
// or a plain byte count. An empty size falls back to the MEMORY_LIMIT
// environment variable (Kubernetes Downward API). A GOMEMLIMIT set in the
// environment always takes precedence. A zero ratio means
// DefaultMemoryRatio.
func Configure(size string, ratio float64) (ConfigResult, error) {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result, nil
	}

	source := "config"
	if size == "" {
		size = os.Getenv("MEMORY_LIMIT")
		source = "MEMORY_LIMIT"
	}
	if size == "" {
		logging.Debug("No memory limit configured")
		return ConfigResult{Source: "none"}, nil
	}

	limit, err := ParseSize(size)
	if err != nil {
		return ConfigResult{Source: "none"}, fmt.Errorf("invalid memory limit from %s: %w", source, err)
	}
	if ratio == 0 {
		ratio = DefaultMemoryRatio
	}
	if ratio < 0 || ratio > 1 {
		return ConfigResult{Source: "none"}, fmt.Errorf("memory ratio %.2f out of range (0.0-1.0)", ratio)
	}

	goMemLimit := int64(float64(limit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s from %s)",
		formatBytes(goMemLimit), ratio*100, formatBytes(limit), source)

	return ConfigResult{
		Configured: true,
		Source:     source,
		Limit:      limit,
		GoMemLimit: goMemLimit,
		Ratio:      ratio,
	}, nil
}

var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"kib", 1 << 10}, {"mib", 1 << 20}, {"gib", 1 << 30}, {"tib", 1 << 40},
	{"ki", 1 << 10}, {"mi", 1 << 20}, {"gi", 1 << 30}, {"ti", 1 << 40},
	{"kb", 1e3}, {"mb", 1e6}, {"gb", 1e9}, {"tb", 1e12},
	{"k", 1 << 10}, {"m", 1 << 20}, {"g", 1 << 30}, {"t", 1 << 40},
	{"b", 1},
}

// ParseSize parses a byte count with an optional unit. Binary units
// (KiB, Mi, and the bare K, M, G, T) are powers of 1024; KB, MB, GB and TB
// are powers of 1000.
func ParseSize(s string) (int64, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	factor := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
			factor = u.factor
			break
		}
	}

	n, err := strconv.ParseFloat(str, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(n * float64(factor)), nil
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
