// Package errors provides structured error types for the Segmetric system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryPivot      ErrorCategory = "PIVOT"
	ErrCategoryDataset    ErrorCategory = "DATASET"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeUnknownDimension   = "UNKNOWN_DIMENSION"
	CodeMissingMetricField = "MISSING_METRIC_FIELD"
	CodeUnknownMetric      = "UNKNOWN_METRIC"
	CodeInvalidRule        = "INVALID_RULE"

	// Pivot codes (non-fatal by policy; surfaced as warnings)
	CodeUnknownStrategy  = "UNKNOWN_STRATEGY"
	CodeCustomRangeParse = "CUSTOM_RANGE_PARSE"

	// Dataset codes
	CodeDatasetNotFound = "DATASET_NOT_FOUND"
	CodeDatasetCorrupt  = "DATASET_CORRUPT"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// SegmetricError is the structured error type used throughout the system.
type SegmetricError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *SegmetricError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SegmetricError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SegmetricError) Is(target error) bool {
	var t *SegmetricError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SegmetricError.
func New(category ErrorCategory, code, message string) *SegmetricError {
	return &SegmetricError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new SegmetricError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SegmetricError {
	return &SegmetricError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *SegmetricError) WithDetails(details map[string]interface{}) *SegmetricError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var se *SegmetricError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SegmetricError.
func GetCategory(err error) ErrorCategory {
	var se *SegmetricError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SegmetricError.
func GetCode(err error) string {
	var se *SegmetricError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Only transient
// storage failures qualify; schema and validation errors indicate a
// caller bug and retrying cannot help.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewUnknownDimension(dimension string) *SegmetricError {
	return New(ErrCategoryValidation, CodeUnknownDimension,
		fmt.Sprintf("dimension %q is not a field of the table", dimension))
}

func NewMissingMetricField(metric, field string) *SegmetricError {
	return New(ErrCategoryValidation, CodeMissingMetricField,
		fmt.Sprintf("metric %s requires field %q which is absent from the table", metric, field))
}

func NewValidationError(code, message string) *SegmetricError {
	return New(ErrCategoryValidation, code, message)
}

func NewDatasetError(code, message string, cause error) *SegmetricError {
	return Wrap(ErrCategoryDataset, code, message, cause)
}

func NewStorageError(code, message string, cause error) *SegmetricError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewInternalError(message string, cause error) *SegmetricError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
