package metrics

import (
	"time"

	"metamorphosis/internal/logging"
)

// StatsProvider reports history totals.
type StatsProvider interface {
	ConversionCounts() (succeeded, failed int, err error)
}

// ProcessCounter reports running external processes.
type ProcessCounter interface {
	Active() int
}

// Collector periodically samples gauges that have no natural event to
// update them.
type Collector struct {
	statsProvider StatsProvider
	processes     ProcessCounter
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. Either source may be nil.
func NewCollector(provider StatsProvider, processes ProcessCounter, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		processes:     processes,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.processes != nil {
		TranscoderProcessesActive.Set(float64(c.processes.Active()))
	}

	if c.statsProvider == nil {
		return
	}

	succeeded, failed, err := c.statsProvider.ConversionCounts()
	if err != nil {
		logging.Warn("Failed to collect history stats: %v", err)
		return
	}
	HistoryConversions.WithLabelValues("success").Set(float64(succeeded))
	HistoryConversions.WithLabelValues("failure").Set(float64(failed))

	logging.Debug("Metrics collected: history success=%d failure=%d", succeeded, failed)
}
