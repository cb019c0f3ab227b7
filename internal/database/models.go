package database

import "time"

// Status values stored for each conversion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Conversion is one recorded conversion request.
type Conversion struct {
	ID         int64     `json:"id"`
	BatchID    string    `json:"batchId"`
	Input      string    `json:"input"`
	Target     string    `json:"target"`
	Output     string    `json:"output,omitempty"`
	Route      string    `json:"route"`
	Status     string    `json:"status"`
	Kind       string    `json:"kind,omitempty"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Stats summarizes the recorded history.
type Stats struct {
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Batches     int            `json:"batches"`
	ByRoute     map[string]int `json:"byRoute"`
	ByKind      map[string]int `json:"byKind"`
	LastBatchID string         `json:"lastBatchId,omitempty"`
	LastRun     time.Time      `json:"lastRun,omitempty"`
}
