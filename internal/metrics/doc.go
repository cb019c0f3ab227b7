// Package metrics provides Prometheus instrumentation for metamorphosis.
//
// All metrics are prefixed with "metamorphosis_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Exported by the serve command's middleware:
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of requests being processed
//
// ## Conversion Metrics
//
//   - ConversionsTotal: Counter by route, target and outcome kind
//   - ConversionDuration: Histogram of conversion time by route
//   - BatchesTotal, BatchFilesTotal, BatchLastDuration: batch runs
//   - TranscoderProcessesActive: running FFmpeg processes
//
// ## History Metrics
//
//   - DBQueryTotal, DBQueryDuration: history database queries
//   - HistoryConversions: recorded conversions by status
//
// ## Memory Metrics
//
//   - MemoryUsageRatio: heap allocation relative to the memory limit
//   - MemoryPaused, MemoryPausesTotal: conversions held while memory is critical
//
// ## Filesystem Metrics
//
//   - FilesystemRetriesTotal: stale handle retries by operation and outcome
//   - AtomicWriteDuration, AtomicWriteErrors: output writes
//
// # Usage
//
// The router reports through ConversionObserver and the filesystem package
// through NewFilesystemObserver:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	router := convert.NewDefault(tools, convert.WithObserver(metrics.NewConversionObserver()))
//
// One-shot CLI runs can persist the registry for node_exporter with
// WriteTextfile. The serve command exposes it on /metrics.
package metrics
