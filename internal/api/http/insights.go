package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/segmetric/segmetric/internal/audience"
	"github.com/segmetric/segmetric/internal/catalog"
	"github.com/segmetric/segmetric/internal/dataset"
	"github.com/segmetric/segmetric/internal/pivot"
)

// InsightsRequest summarizes a metric field per raw value of a grouping
// dimension.
type InsightsRequest struct {
	DatasetID string          `json:"dataset_id"`
	Audience  string          `json:"audience,omitempty"`
	Rules     []audience.Rule `json:"rules,omitempty"`

	GroupDimension string `json:"group_dimension"`
	MetricField    string `json:"metric_field"`
}

// InsightsResponse represents the insights response.
type InsightsResponse struct {
	GroupDimension string               `json:"group_dimension"`
	MetricField    string               `json:"metric_field"`
	Groups         []pivot.GroupInsight `json:"groups"`
	RequestID      string               `json:"request_id"`
}

// TimeWindowsRequest summarizes a metric field over trailing windows of
// a date field.
type TimeWindowsRequest struct {
	DatasetID string          `json:"dataset_id"`
	Audience  string          `json:"audience,omitempty"`
	Rules     []audience.Rule `json:"rules,omitempty"`

	DateField   string `json:"date_field"`
	MetricField string `json:"metric_field"`

	// Windows defaults to the standard 7/30/90/365 day look-backs.
	Windows []pivot.TimeWindow `json:"windows,omitempty"`
}

// TimeWindowsResponse represents the time window metrics response.
type TimeWindowsResponse struct {
	DateField   string                    `json:"date_field"`
	MetricField string                    `json:"metric_field"`
	Windows     []pivot.TimeWindowMetrics `json:"windows"`
	RequestID   string                    `json:"request_id"`
}

// InsightsHandler handles POST /v1/insights and POST /v1/timewindows.
type InsightsHandler struct {
	datasets *dataset.Service
	catalog  catalog.Catalog
	now      func() time.Time
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(datasets *dataset.Service, cat catalog.Catalog) *InsightsHandler {
	return &InsightsHandler{
		datasets: datasets,
		catalog:  cat,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ServeHTTP handles the insights HTTP request.
func (h *InsightsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req InsightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "dataset_id is required", requestID)
		return
	}
	if req.GroupDimension == "" || req.MetricField == "" {
		writeError(w, http.StatusBadRequest, "group_dimension and metric_field are required", requestID)
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

	groups, err := pivot.Summarize(tbl, req.GroupDimension, req.MetricField)
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	resp := InsightsResponse{
		GroupDimension: req.GroupDimension,
		MetricField:    req.MetricField,
		Groups:         groups,
		RequestID:      requestID,
	}
	if resp.Groups == nil {
		resp.Groups = []pivot.GroupInsight{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// TimeWindows handles the time window metrics HTTP request.
func (h *InsightsHandler) TimeWindows(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req TimeWindowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.DatasetID == "" {
		writeError(w, http.StatusBadRequest, "dataset_id is required", requestID)
		return
	}
	if req.DateField == "" || req.MetricField == "" {
		writeError(w, http.StatusBadRequest, "date_field and metric_field are required", requestID)
		return
	}
	if len(req.Windows) == 0 {
		req.Windows = pivot.DefaultWindows()
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

	windows, err := pivot.SummarizeTimeWindows(tbl, req.DateField, req.MetricField, req.Windows, h.now())
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusOK, TimeWindowsResponse{
		DateField:   req.DateField,
		MetricField: req.MetricField,
		Windows:     windows,
		RequestID:   requestID,
	})
}
