package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/segmetric/segmetric/internal/audience"
	"github.com/segmetric/segmetric/internal/catalog"
)

// AudienceListResponse lists built-in and saved audience definitions.
type AudienceListResponse struct {
	Audiences []audience.Definition `json:"audiences"`
	RequestID string                `json:"request_id"`
}

// AudiencesHandler handles /v1/audiences requests.
type AudiencesHandler struct {
	catalog catalog.Catalog
}

// NewAudiencesHandler creates a new audiences handler.
func NewAudiencesHandler(cat catalog.Catalog) *AudiencesHandler {
	return &AudiencesHandler{catalog: cat}
}

// ServeHTTP handles listing and saving audiences.
func (h *AudiencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, requestID)
	case http.MethodPost:
		h.save(w, r, requestID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
	}
}

// list returns the built-in definitions followed by saved ones. A saved
// audience shadowing a built-in name is omitted; built-ins win.
func (h *AudiencesHandler) list(w http.ResponseWriter, r *http.Request, requestID string) {
	builtin := audience.Definitions()
	names := make(map[string]bool, len(builtin))
	for _, d := range builtin {
		names[d.Name] = true
	}

	saved, err := h.catalog.ListAudiences(r.Context())
	if err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	all := builtin
	for _, d := range saved {
		if !names[d.Name] {
			all = append(all, d)
		}
	}

	writeJSON(w, http.StatusOK, AudienceListResponse{
		Audiences: all,
		RequestID: requestID,
	})
}

func (h *AudiencesHandler) save(w http.ResponseWriter, r *http.Request, requestID string) {
	var def audience.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if def.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", requestID)
		return
	}
	if _, exists := audience.ByName(def.Name); exists {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("audience %q is built in and cannot be replaced", def.Name), requestID)
		return
	}
	if err := audience.Validate(def.Rules); err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	if err := h.catalog.SaveAudience(r.Context(), def); err != nil {
		writeDomainError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Audience  audience.Definition `json:"audience"`
		RequestID string              `json:"request_id"`
	}{
		Audience:  def,
		RequestID: requestID,
	})
}
