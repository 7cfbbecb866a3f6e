package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/segmetric/segmetric/internal/audience"
	"github.com/segmetric/segmetric/internal/catalog"
	"github.com/segmetric/segmetric/internal/dataset"
	"github.com/segmetric/segmetric/internal/pivot"
)

// CompareRequest pivots the same axes and metric over two segments of
// one dataset and reports their differences.
type CompareRequest struct {
	DatasetID string `json:"dataset_id"`

	AudienceA string          `json:"audience_a"`
	AudienceB string          `json:"audience_b"`
	RulesA    []audience.Rule `json:"rules_a,omitempty"`
	RulesB    []audience.Rule `json:"rules_b,omitempty"`

	Row    pivot.Axis   `json:"row"`
	Col    pivot.Axis   `json:"col"`
	Metric pivot.Metric `json:"metric"`
}

// SegmentResult is one segment's aligned pivot inside a comparison.
type SegmentResult struct {
	Audience string      `json:"audience"`
	Values   [][]float64 `json:"values"`
	Warnings []string    `json:"warnings,omitempty"`
}

// CompareResponse represents the comparison response. All four matrices
// share the same label universe: the union of both segments' labels.
type CompareResponse struct {
	Metric     string        `json:"metric"`
	RowLabels  []string      `json:"row_labels"`
	ColLabels  []string      `json:"col_labels"`
	SegmentA   SegmentResult `json:"segment_a"`
	SegmentB   SegmentResult `json:"segment_b"`
	Absolute   [][]float64   `json:"absolute_difference"`
	Percentage [][]float64   `json:"percentage_difference"`
	RequestID  string        `json:"request_id"`
}

// CompareHandler handles POST /v1/compare requests.
type CompareHandler struct {
	datasets *dataset.Service
	builder  *pivot.Builder
	catalog  catalog.Catalog
}

// NewCompareHandler creates a new comparison handler.
func NewCompareHandler(datasets *dataset.Service, builder *pivot.Builder, cat catalog.Catalog) *CompareHandler {
	return &CompareHandler{
		datasets: datasets,
		builder:  builder,
		catalog:  cat,
	}
}

// ServeHTTP handles the comparison HTTP request.
func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "dataset_id is required", requestID)
		return
	}
	if req.AudienceA == "" && len(req.RulesA) == 0 {
		writeError(w, http.StatusBadRequest, "audience_a or rules_a is required", requestID)
		return
	}
	if req.AudienceB == "" && len(req.RulesB) == 0 {
		writeError(w, http.StatusBadRequest, "audience_b or rules_b is required", requestID)
		return
	}

	tbl, err := h.datasets.Load(r.Context(), req.DatasetID)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	tblA, err := resolveSegment(r.Context(), h.catalog, tbl, req.AudienceA, req.RulesA)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}
	tblB, err := resolveSegment(r.Context(), h.catalog, tbl, req.AudienceB, req.RulesB)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	cmp, err := h.builder.Compare(tblA, tblB, pivot.Request{Row: req.Row, Col: req.Col, Metric: req.Metric})
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	resp := CompareResponse{
		Metric:    cmp.AlignedA.Metric,
		RowLabels: cmp.AlignedA.RowLabels,
		ColLabels: cmp.AlignedA.ColLabels,
		SegmentA: SegmentResult{
			Audience: req.AudienceA,
			Values:   cmp.AlignedA.Matrix(),
			Warnings: cmp.AlignedA.Warnings,
		},
		SegmentB: SegmentResult{
			Audience: req.AudienceB,
			Values:   cmp.AlignedB.Matrix(),
			Warnings: cmp.AlignedB.Warnings,
		},
		Absolute:   cmp.Absolute.Matrix(),
		Percentage: cmp.Percentage.Matrix(),
		RequestID:  requestID,
	}
	if resp.RowLabels == nil {
		resp.RowLabels = []string{}
	}
	if resp.ColLabels == nil {
		resp.ColLabels = []string{}
	}

	writeJSON(w, http.StatusOK, resp)
}
