package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/segmetric/segmetric/internal/audience"
	"github.com/segmetric/segmetric/internal/catalog"
	"github.com/segmetric/segmetric/internal/dataset"
	"github.com/segmetric/segmetric/internal/pivot"
	"github.com/segmetric/segmetric/internal/render"
)

// PivotRequest represents a pivot computation request.
type PivotRequest struct {
	DatasetID string `json:"dataset_id"`

	// Audience selects a named segment; Rules adds ad-hoc filtering on
	// top. Both are optional.
	Audience string          `json:"audience,omitempty"`
	Rules    []audience.Rule `json:"rules,omitempty"`

	Row    pivot.Axis   `json:"row"`
	Col    pivot.Axis   `json:"col"`
	Metric pivot.Metric `json:"metric"`

	// Normalize renders cells as percentages: "rows", "cols" or "total".
	Normalize string `json:"normalize,omitempty"`

	// Format selects the response encoding: "json" (default) or "csv".
	Format string `json:"format,omitempty"`
}

// PivotResponse represents the pivot computation response.
type PivotResponse struct {
	Metric    string      `json:"metric"`
	RowLabels []string    `json:"row_labels"`
	ColLabels []string    `json:"col_labels"`
	Values    [][]float64 `json:"values"`
	RowTotals []float64   `json:"row_totals"`
	ColTotals []float64   `json:"col_totals"`
	Total     float64     `json:"total"`
	Warnings  []string    `json:"warnings,omitempty"`
	RequestID string      `json:"request_id"`
}

// PivotHandler handles POST /v1/pivot requests.
type PivotHandler struct {
	datasets *dataset.Service
	builder  *pivot.Builder
	catalog  catalog.Catalog
}

// NewPivotHandler creates a new pivot handler.
func NewPivotHandler(datasets *dataset.Service, builder *pivot.Builder, cat catalog.Catalog) *PivotHandler {
	return &PivotHandler{
		datasets: datasets,
		builder:  builder,
		catalog:  cat,
	}
}

// ServeHTTP handles the pivot HTTP request.
func (h *PivotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req PivotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "dataset_id is required", requestID)
		return
	}

	tbl, err := h.datasets.Load(r.Context(), req.DatasetID)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	tbl, err = resolveSegment(r.Context(), h.catalog, tbl, req.Audience, req.Rules)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	pt, err := h.builder.Build(tbl, pivot.Request{Row: req.Row, Col: req.Col, Metric: req.Metric})
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	if req.Format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="pivot.csv"`)
		if err := render.PivotCSV(w, pt); err != nil {
			// Headers are out; nothing left to do but log via middleware.
			return
		}
		return
	}

	values := render.Normalize(pt, render.ParseNormalizeMode(req.Normalize))

	resp := PivotResponse{
		Metric:    pt.Metric,
		RowLabels: pt.RowLabels,
		ColLabels: pt.ColLabels,
		Values:    values,
		RowTotals: pt.RowTotals(),
		ColTotals: pt.ColTotals(),
		Total:     pt.Total(),
		Warnings:  pt.Warnings,
		RequestID: requestID,
	}
	if resp.RowLabels == nil {
		resp.RowLabels = []string{}
	}
	if resp.ColLabels == nil {
		resp.ColLabels = []string{}
	}
	if resp.Values == nil {
		resp.Values = [][]float64{}
	}

	writeJSON(w, http.StatusOK, resp)
}
