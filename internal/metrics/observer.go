package metrics

import (
	"time"

	"metamorphosis/internal/catalog"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/filesystem"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetry(op, outcome string) {
	FilesystemRetriesTotal.WithLabelValues(op, outcome).Inc()
}

func (o *filesystemObserver) ObserveAtomicWrite(durationSeconds float64, err error) {
	AtomicWriteDuration.Observe(durationSeconds)
	if err != nil {
		AtomicWriteErrors.Inc()
	}
}

// ConversionObserver implements convert.Observer.
type ConversionObserver struct{}

// NewConversionObserver creates an observer that records every finished
// conversion request.
func NewConversionObserver() *ConversionObserver {
	return &ConversionObserver{}
}

// ObserveConversion records one result.
func (o *ConversionObserver) ObserveConversion(res convert.Result) {
	kind := "success"
	if !res.OK() {
		kind = res.Kind().String()
	}
	ConversionsTotal.WithLabelValues(res.Route.String(), targetLabel(res.Target), kind).Inc()
	if res.Route != convert.RouteNone {
		ConversionDuration.WithLabelValues(res.Route.String()).Observe(res.Duration.Seconds())
	}
}

// targetLabel bounds label cardinality to the catalog's tokens.
func targetLabel(token string) string {
	target, err := catalog.ParseTarget(token)
	if err != nil {
		return "invalid"
	}
	return target.Token
}

// ObserveBatch records a finished batch.
func ObserveBatch(succeeded, failed int, duration time.Duration) {
	BatchesTotal.Inc()
	BatchFilesTotal.WithLabelValues("success").Add(float64(succeeded))
	BatchFilesTotal.WithLabelValues("failure").Add(float64(failed))
	BatchLastDuration.Set(duration.Seconds())
}
