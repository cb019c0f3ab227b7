package convert

import "time"

// Result is the outcome of one conversion request.
type Result struct {
	Input    string
	Target   string
	Output   string
	Route    Route
	Err      error
	Duration time.Duration
}

// OK reports whether the conversion succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind returns the failure kind, or KindNone on success.
func (r Result) Kind() Kind {
	return KindOf(r.Err)
}

// Message returns the output path on success and the diagnostic otherwise.
func (r Result) Message() string {
	if r.Err == nil {
		return r.Output
	}
	return r.Err.Error()
}
