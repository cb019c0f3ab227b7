package filesystem

// Observer records filesystem outcomes. The metrics package implements it,
// which keeps this package free of a metrics import.
type Observer interface {
	// ObserveRetry records one retry event. outcome is "attempt",
	// "success" or "failure"; op is "stat" or "open".
	ObserveRetry(op, outcome string)
	// ObserveAtomicWrite records an atomic write and its duration.
	ObserveAtomicWrite(durationSeconds float64, err error)
}

// defaultObserver is nil until SetObserver is called.
var defaultObserver Observer

// SetObserver sets the package-level observer. Call it once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observeRetry(op, outcome string) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetry(op, outcome)
	}
}

func observeAtomicWrite(seconds float64, err error) {
	if defaultObserver != nil {
		defaultObserver.ObserveAtomicWrite(seconds, err)
	}
}
