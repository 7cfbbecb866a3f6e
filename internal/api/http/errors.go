package http

import (
	"errors"
	"net/http"

	segerrors "github.com/segmetric/segmetric/internal/errors"
)

// statusFor maps an internal error to an HTTP status code. Validation
// problems are the caller's fault; missing datasets are 404; storage
// trouble is a bad gateway since the object store is upstream of us.
func statusFor(err error) int {
	var serr *segerrors.SegmetricError
	if !errors.As(err, &serr) {
		return http.StatusInternalServerError
	}

	if serr.Code == segerrors.CodeDatasetNotFound {
		return http.StatusNotFound
	}

	switch serr.Category {
	case segerrors.ErrCategoryValidation, segerrors.ErrCategoryPivot:
		return http.StatusBadRequest
	case segerrors.ErrCategoryStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes an error response carrying the internal error
// code when available.
func writeDomainError(w http.ResponseWriter, err error, requestID string) {
	resp := ErrorResponse{
		Error:     err.Error(),
		RequestID: requestID,
	}
	if code := segerrors.GetCode(err); code != "" {
		resp.Code = code
	}
	writeJSON(w, statusFor(err), resp)
}
