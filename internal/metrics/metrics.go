package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metamorphosis_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metamorphosis_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metamorphosis_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metamorphosis_conversions_total",
			Help: "Total number of conversion requests by route, target and outcome kind",
		},
		[]string{"route", "target", "kind"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metamorphosis_conversion_duration_seconds",
			Help:    "Conversion duration in seconds by route",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"route"},
	)

	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metamorphosis_batches_total",
			Help: "Total number of batch runs",
		},
	)

	BatchFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metamorphosis_batch_files_total",
			Help: "Total number of files processed in batches by status",
		},
		[]string{"status"}, // "success", "failure"
	)

	BatchLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metamorphosis_batch_last_duration_seconds",
			Help: "Duration of the most recent batch in seconds",
		},
	)

	TranscoderProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metamorphosis_transcoder_processes_active",
			Help: "Number of FFmpeg processes currently running",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metamorphosis_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metamorphosis_memory_paused",
			Help: "Whether new conversions are held because memory is critical (1 = held)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metamorphosis_memory_pauses_total",
			Help: "Total number of times conversions were held for memory",
		},
	)
)

// History database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metamorphosis_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metamorphosis_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	HistoryConversions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metamorphosis_history_conversions",
			Help: "Conversions recorded in the history database by status",
		},
		[]string{"status"},
	)
)

// Filesystem metrics
var (
	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metamorphosis_filesystem_retries_total",
			Help: "Stale file handle retries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AtomicWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metamorphosis_atomic_write_duration_seconds",
			Help:    "Duration of atomic output writes in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	AtomicWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "metamorphosis_atomic_write_errors_total",
			Help: "Total number of failed atomic output writes",
		},
	)
)

// ToolAvailable reports which optional tools were found at startup.
var ToolAvailable = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "metamorphosis_tool_available",
		Help: "Whether an optional external tool or library is available (1) or not (0)",
	},
	[]string{"tool"},
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metamorphosis_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// SetToolAvailable records whether tool was found.
func SetToolAvailable(tool string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	ToolAvailable.WithLabelValues(tool).Set(v)
}
