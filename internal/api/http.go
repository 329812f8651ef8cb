// Package api exposes the extractor over HTTP and gRPC.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"FlowSpectra/internal/engine/extractor"
	"FlowSpectra/internal/metrics"
	"FlowSpectra/internal/output"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protojson"
)

// Handler holds the dependencies for API handlers.
type Handler struct {
	extractor      *extractor.Extractor
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

// NewHandler creates the HTTP handlers. m may be nil, in which case
// /metrics is not served.
func NewHandler(ex *extractor.Extractor, m *metrics.Metrics, maxUploadBytes int64) *Handler {
	return &Handler{extractor: ex, metrics: m, maxUploadBytes: maxUploadBytes}
}

// Router returns the routes of the HTTP API.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/features", h.featuresHandler).Methods("POST")
	r.HandleFunc("/api/v1/sequences", h.sequencesHandler).Methods("POST")
	r.HandleFunc("/api/v1/schema", h.schemaHandler).Methods("GET")
	r.HandleFunc("/healthz", healthHandler).Methods("GET")
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods("GET")
	}
	return r
}

// readCapture reads the uploaded capture body, bounded by maxUploadBytes.
func (h *Handler) readCapture(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("capture exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, "", false
		}
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return nil, "", false
	}
	if len(body) == 0 {
		http.Error(w, "empty request body", http.StatusBadRequest)
		return nil, "", false
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	return body, name, true
}

// featuresHandler extracts the feature vector of an uploaded capture.
func (h *Handler) featuresHandler(w http.ResponseWriter, r *http.Request) {
	body, name, ok := h.readCapture(w, r)
	if !ok {
		return
	}

	rec := h.extractor.ExtractReader(r.Context(), name, bytes.NewReader(body))
	if rec.Failed() {
		log.Printf("Failed to extract features from upload %s: %v", name, rec.Err)
		http.Error(w, fmt.Sprintf("failed to extract features: %v", rec.Err), http.StatusUnprocessableEntity)
		return
	}

	resp, err := output.NewRecordMessage(rec, h.extractor.Columns()).Struct()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to build response: %v", err), http.StatusInternalServerError)
		return
	}
	jsonBytes, err := protojson.Marshal(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

// sequencesHandler returns the per-packet series of an uploaded capture.
func (h *Handler) sequencesHandler(w http.ResponseWriter, r *http.Request) {
	body, name, ok := h.readCapture(w, r)
	if !ok {
		return
	}

	seq, err := h.extractor.Sequences(r.Context(), name, bytes.NewReader(body))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to extract sequences: %v", err), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, seq)
}

type schemaResponse struct {
	Width   int      `json:"width"`
	Columns []string `json:"columns"`
}

func (h *Handler) schemaHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, schemaResponse{Width: h.extractor.Width(), Columns: h.extractor.Columns()})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}
