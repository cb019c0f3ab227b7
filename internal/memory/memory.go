package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"metamorphosis/internal/logging"
	"metamorphosis/internal/metrics"
)

// Config holds the thresholds of a Monitor.
type Config struct {
	// LimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	LimitBytes int64

	// HighWaterMark is the usage ratio at which a paused monitor resumes (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which new conversions wait (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often memory usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the commands.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Monitor samples heap usage and holds back new conversions while it is
// above the critical water mark. Conversions already running are not
// interrupted.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	stop     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor creates a monitor. Without an explicit limit it uses
// GOMEMLIMIT; with neither it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
			logging.Debug("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		stop:      make(chan struct{}),
		resume:    make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Enabled reports whether the monitor has a limit to enforce.
func (m *Monitor) Enabled() bool {
	return m.limit > 0
}

// Start begins sampling. It does nothing when no limit is configured.
func (m *Monitor) Start() {
	if !m.Enabled() {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases every waiter. It is safe to call more
// than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) check() {
	alloc := m.readAlloc()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of %s), holding new conversions", usage*100, formatBytes(m.limit))
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of %s), resuming conversions", usage*100, formatBytes(m.limit))
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while the monitor is paused. It returns nil once memory has
// recovered or the monitor is stopped, and the context error if ctx ends
// first.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.RLock()
	paused, resume := m.paused, m.resume
	m.mu.RUnlock()

	if !paused {
		return ctx.Err()
	}

	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether new conversions are being held.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Stats returns the last sampled heap size, the limit and their ratio.
func (m *Monitor) Stats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = math.MaxInt64
	if m.current <= math.MaxInt64 {
		current = int64(m.current)
	}
	if m.limit > 0 {
		usage = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, usage
}
