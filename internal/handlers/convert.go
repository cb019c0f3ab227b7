package handlers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/google/uuid"

	"metamorphosis/internal/batch"
	"metamorphosis/internal/catalog"
	"metamorphosis/internal/convert"
	"metamorphosis/internal/logging"
	"metamorphosis/internal/metrics"
)

// TargetsResponse lists targets, optionally for one source format.
type TargetsResponse struct {
	Source   string   `json:"source,omitempty"`
	Category string   `json:"category,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	Targets  []string `json:"targets"`
}

// CheckResponse describes a file on the server.
type CheckResponse struct {
	Path      string   `json:"path"`
	Source    string   `json:"source"`
	Category  string   `json:"category"`
	MimeType  string   `json:"mimeType"`
	Size      int64    `json:"size"`
	Supported bool     `json:"supported"`
	Targets   []string `json:"targets"`
}

// ConvertRequest asks for one conversion.
type ConvertRequest struct {
	Path   string `json:"path"`
	Target string `json:"target"`
}

// BatchRequest asks for many conversions to one target. Directories are
// expanded to their supported files.
type BatchRequest struct {
	Paths  []string `json:"paths"`
	Target string   `json:"target"`
}

// ResultResponse is one conversion outcome.
type ResultResponse struct {
	Input      string `json:"input"`
	Target     string `json:"target"`
	Output     string `json:"output,omitempty"`
	Route      string `json:"route"`
	OK         bool   `json:"ok"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message"`
	DurationMs int64  `json:"durationMs"`
}

// BatchResponse is a batch outcome.
type BatchResponse struct {
	ID         string           `json:"id"`
	Target     string           `json:"target"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	DurationMs int64            `json:"durationMs"`
	Results    []ResultResponse `json:"results"`
}

func newResultResponse(res convert.Result) ResultResponse {
	r := ResultResponse{
		Input:      res.Input,
		Target:     res.Target,
		Output:     res.Output,
		Route:      res.Route.String(),
		OK:         res.OK(),
		Message:    res.Message(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if !res.OK() {
		r.Kind = res.Kind().String()
	}
	return r
}

// statusFor maps a conversion outcome to an HTTP status.
func statusFor(res convert.Result) int {
	switch res.Kind() {
	case convert.KindNone:
		return http.StatusOK
	case convert.UnsupportedSource, convert.UnsupportedCombination:
		return http.StatusBadRequest
	case convert.NoOpSameFormat:
		return http.StatusConflict
	case convert.FeatureUnavailable:
		return http.StatusServiceUnavailable
	}
	if errors.Is(res.Err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ListTargets returns every target, or the targets of ?source=.
// GET /api/targets
func (h *Handlers) ListTargets(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		writeJSONStatus(w, http.StatusOK, TargetsResponse{
			Sources: catalog.SourceExtensions(),
			Targets: catalog.ListAllTargets(),
		})
		return
	}

	ext := catalog.NormalizeExt(source)
	category := catalog.CategoryOf(ext)
	if category == catalog.CategoryUnknown {
		writeJSONError(w, "unsupported source format: "+ext, http.StatusBadRequest)
		return
	}

	writeJSONStatus(w, http.StatusOK, TargetsResponse{
		Source:   ext,
		Category: string(category),
		Targets:  catalog.TargetsFor(ext),
	})
}

// CheckFile reports whether a file can be converted and to what.
// GET /api/check?path=
func (h *Handlers) CheckFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		writeJSONError(w, "file not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Warn("Failed to stat %s: %v", path, err)
		writeJSONError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		writeJSONError(w, "path is a directory", http.StatusBadRequest)
		return
	}

	ext := catalog.Ext(path)
	response := CheckResponse{
		Path:      path,
		Source:    ext,
		Category:  string(catalog.CategoryOf(ext)),
		MimeType:  catalog.MimeType(ext),
		Size:      info.Size(),
		Supported: catalog.IsValidSource(path),
		Targets:   []string{},
	}
	if response.Supported {
		response.Targets = catalog.TargetsFor(ext)
	}
	writeJSONStatus(w, http.StatusOK, response)
}

// ConvertFile converts one file.
// POST /api/convert
func (h *Handlers) ConvertFile(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" || req.Target == "" {
		writeJSONError(w, "path and target are required", http.StatusBadRequest)
		return
	}

	res := batch.ConvertOne(r.Context(), h.conv, h.batchOpts.Locks, req.Path, req.Target)
	h.record(r.Context(), uuid.NewString(), []convert.Result{res})

	writeJSONStatus(w, statusFor(res), newResultResponse(res))
}

// ConvertBatch converts several files to one target.
// POST /api/batch
func (h *Handlers) ConvertBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Paths) == 0 || req.Target == "" {
		writeJSONError(w, "paths and target are required", http.StatusBadRequest)
		return
	}

	inputs, err := batch.Collect(req.Paths)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(inputs) == 0 {
		writeJSONError(w, "no supported files found", http.StatusBadRequest)
		return
	}

	summary := batch.Run(r.Context(), h.conv, inputs, req.Target, h.batchOpts)
	metrics.ObserveBatch(summary.Succeeded, summary.Failed, summary.Duration)
	h.record(r.Context(), summary.ID, summary.Results)

	response := BatchResponse{
		ID:         summary.ID,
		Target:     summary.Target,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		DurationMs: summary.Duration.Milliseconds(),
		Results:    make([]ResultResponse, len(summary.Results)),
	}
	for i, res := range summary.Results {
		response.Results[i] = newResultResponse(res)
	}
	writeJSONStatus(w, http.StatusOK, response)
}

// record stores results in the history. Recording outlives a client that
// disconnects after the conversion finished.
func (h *Handlers) record(ctx context.Context, batchID string, results []convert.Result) {
	if h.history == nil {
		return
	}
	if err := h.history.RecordConversions(context.WithoutCancel(ctx), batchID, results); err != nil {
		logging.Warn("Failed to record conversion history: %v", err)
	}
}
