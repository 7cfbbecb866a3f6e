package http

import (
	"net/http"

	"github.com/segmetric/segmetric/internal/pivot"
)

// MetaResponse describes what the engine can compute: the metrics, and
// per dimension the bucketing strategies available for it.
type MetaResponse struct {
	Metrics    []string            `json:"metrics"`
	Strategies map[string][]string `json:"strategies"`
	RequestID  string              `json:"request_id"`
}

// MetaHandler handles GET /v1/meta requests.
type MetaHandler struct {
	registry *pivot.Registry
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(registry *pivot.Registry) *MetaHandler {
	return &MetaHandler{registry: registry}
}

// ServeHTTP handles the meta HTTP request.
func (h *MetaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	strategies := make(map[string][]string)
	for _, dim := range h.registry.Dimensions() {
		strategies[dim] = h.registry.Strategies(dim)
	}

	writeJSON(w, http.StatusOK, MetaResponse{
		Metrics:    pivot.Metrics(),
		Strategies: strategies,
		RequestID:  requestID,
	})
}
