package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/segmetric/segmetric/internal/catalog"
	"github.com/segmetric/segmetric/internal/config"
	"github.com/segmetric/segmetric/internal/dataset"
	"github.com/segmetric/segmetric/internal/render"
)

// GenerateRequest asks for a new synthetic dataset snapshot.
type GenerateRequest struct {
	Name     string `json:"name"`
	NumUsers int    `json:"num_users,omitempty"`
	Seed     *int64 `json:"seed,omitempty"`
}

// DatasetInfo describes one dataset snapshot in responses.
type DatasetInfo struct {
	DatasetID   string    `json:"dataset_id"`
	Name        string    `json:"name"`
	RowCount    int64     `json:"row_count"`
	Fingerprint string    `json:"fingerprint"`
	Seed        int64     `json:"seed"`
	CreatedAt   time.Time `json:"created_at"`
}

// DatasetListResponse represents the dataset listing response.
type DatasetListResponse struct {
	Datasets  []DatasetInfo `json:"datasets"`
	RequestID string        `json:"request_id"`
}

// DatasetsHandler handles /v1/datasets requests: generation, listing,
// lookup, deletion and CSV export.
type DatasetsHandler struct {
	datasets *dataset.Service
	cfg      config.DatasetConfig
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(datasets *dataset.Service, cfg config.DatasetConfig) *DatasetsHandler {
	return &DatasetsHandler{
		datasets: datasets,
		cfg:      cfg,
	}
}

// ServeHTTP dispatches dataset requests by path and method.
func (h *DatasetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	rest := strings.TrimPrefix(r.URL.Path, "/v1/datasets")
	rest = strings.Trim(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.list(w, r, requestID)
	case rest == "generate" && r.Method == http.MethodPost:
		h.generate(w, r, requestID)
	case rest != "" && strings.HasSuffix(rest, "/export") && r.Method == http.MethodGet:
		h.export(w, r, strings.TrimSuffix(rest, "/export"), requestID)
	case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodGet:
		h.get(w, r, rest, requestID)
	case rest != "" && !strings.Contains(rest, "/") && r.Method == http.MethodDelete:
		h.delete(w, r, rest, requestID)
	default:
		writeError(w, http.StatusNotFound, "not found", requestID)
	}
}

func (h *DatasetsHandler) generate(w http.ResponseWriter, r *http.Request, requestID string) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	if req.Name == "" {
		req.Name = "dataset-" + time.Now().UTC().Format("20060102-150405")
	}
	if req.NumUsers == 0 {
		req.NumUsers = h.cfg.DefaultUsers
	}
	if req.NumUsers < 0 || req.NumUsers > h.cfg.MaxUsers {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("num_users must be between 1 and %d", h.cfg.MaxUsers), requestID)
		return
	}
	seed := h.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	rec, err := h.datasets.GenerateAndSave(r.Context(), req.Name, req.NumUsers, seed)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Dataset   DatasetInfo `json:"dataset"`
		RequestID string      `json:"request_id"`
	}{
		Dataset:   toInfo(rec),
		RequestID: requestID,
	})
}

func (h *DatasetsHandler) list(w http.ResponseWriter, r *http.Request, requestID string) {
	records, err := h.datasets.List(r.Context())
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	resp := DatasetListResponse{
		Datasets:  make([]DatasetInfo, 0, len(records)),
		RequestID: requestID,
	}
	for _, rec := range records {
		resp.Datasets = append(resp.Datasets, toInfo(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DatasetsHandler) get(w http.ResponseWriter, r *http.Request, datasetID, requestID string) {
	rec, err := h.datasets.Get(r.Context(), datasetID)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Dataset   DatasetInfo `json:"dataset"`
		RequestID string      `json:"request_id"`
	}{
		Dataset:   toInfo(rec),
		RequestID: requestID,
	})
}

func (h *DatasetsHandler) delete(w http.ResponseWriter, r *http.Request, datasetID, requestID string) {
	if err := h.datasets.Delete(r.Context(), datasetID); err != nil {
		writeDomainError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DatasetsHandler) export(w http.ResponseWriter, r *http.Request, datasetID, requestID string) {
	tbl, err := h.datasets.Load(r.Context(), datasetID)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, datasetID))
	_ = render.TableCSV(w, tbl)
}

func toInfo(rec *catalog.DatasetRecord) DatasetInfo {
	return DatasetInfo{
		DatasetID:   rec.DatasetID,
		Name:        rec.Name,
		RowCount:    rec.RowCount,
		Fingerprint: fmt.Sprintf("%016x", rec.Fingerprint),
		Seed:        rec.Seed,
		CreatedAt:   rec.CreatedAt,
	}
}
