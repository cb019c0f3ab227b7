package metrics

import "metamorphosis/internal/convert"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, route := range convert.Routes() {
		ConversionDuration.WithLabelValues(route.String())
	}

	for _, status := range []string{"success", "failure"} {
		BatchFilesTotal.WithLabelValues(status)
		HistoryConversions.WithLabelValues(status)
	}

	for _, op := range []string{"stat", "open"} {
		for _, outcome := range []string{"attempt", "success", "failure"} {
			FilesystemRetriesTotal.WithLabelValues(op, outcome)
		}
	}

	for _, op := range []string{"initialize_schema", "record_conversion", "recent_conversions", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
