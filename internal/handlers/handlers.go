package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"metamorphosis/internal/batch"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/database"
	"metamorphosis/internal/middleware"
	"metamorphosis/internal/startup"
)

// History is the subset of the history database the API uses.
type History interface {
	RecordConversions(ctx context.Context, batchID string, results []convert.Result) error
	RecentConversions(ctx context.Context, limit int) ([]database.Conversion, error)
	Stats(ctx context.Context) (database.Stats, error)
}

// Handlers serves the API. history may be nil when recording is disabled.
type Handlers struct {
	conv      batch.Converter
	history   History
	batchOpts batch.Options
	tools     startup.ToolReport
	startTime time.Time
}

// New creates the API handlers. batchOpts applies to every batch request;
// its Progress callback is ignored. Single and batch requests share one
// lock set so two requests never write the same output at once.
func New(conv batch.Converter, history History, batchOpts batch.Options, tools startup.ToolReport) *Handlers {
	batchOpts.Progress = nil
	if batchOpts.Locks == nil {
		batchOpts.Locks = batch.NewLocks()
	}
	return &Handlers{
		conv:      conv,
		history:   history,
		batchOpts: batchOpts,
		tools:     tools,
		startTime: time.Now(),
	}
}

// Router registers every route with access logging and request metrics.
func (h *Handlers) Router(logConfig middleware.LoggingConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(logConfig))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/targets", h.ListTargets).Methods(http.MethodGet).Name("targets")
	api.HandleFunc("/check", h.CheckFile).Methods(http.MethodGet).Name("check")
	api.HandleFunc("/convert", h.ConvertFile).Methods(http.MethodPost).Name("convert")
	api.HandleFunc("/batch", h.ConvertBatch).Methods(http.MethodPost).Name("batch")
	api.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet).Name("history")

	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("healthz")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet).Name("metrics")

	return r
}
