package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(ErrCategoryValidation, CodeUnknownDimension, "bad dimension")
	want := "[VALIDATION:UNKNOWN_DIMENSION] bad dimension"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	wrapped := Wrap(ErrCategoryStorage, CodeUploadFailed, "upload", stderrors.New("timeout"))
	if got := wrapped.Error(); got != "[STORAGE:UPLOAD_FAILED] upload: timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnwrapChain(t *testing.T) {
	cause := stderrors.New("disk full")
	e := Wrap(ErrCategoryStorage, CodeUploadFailed, "upload", cause)

	if !stderrors.Is(e, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}

	// Category and code survive another layer of fmt wrapping.
	outer := fmt.Errorf("request failed: %w", e)
	if GetCode(outer) != CodeUploadFailed {
		t.Errorf("GetCode = %q", GetCode(outer))
	}
	if GetCategory(outer) != ErrCategoryStorage {
		t.Errorf("GetCategory = %q", GetCategory(outer))
	}
}

func TestIsMatchesCategoryAndCode(t *testing.T) {
	a := New(ErrCategoryDataset, CodeDatasetNotFound, "one")
	b := New(ErrCategoryDataset, CodeDatasetNotFound, "another message")
	c := New(ErrCategoryDataset, CodeDatasetCorrupt, "different code")

	if !stderrors.Is(a, b) {
		t.Error("same category/code should match")
	}
	if stderrors.Is(a, c) {
		t.Error("different code should not match")
	}
}

func TestRetryablePolicy(t *testing.T) {
	if !IsRetryable(New(ErrCategoryStorage, CodeUploadFailed, "x")) {
		t.Error("upload failure should be retryable")
	}
	if !IsRetryable(New(ErrCategoryStorage, CodeDownloadFailed, "x")) {
		t.Error("download failure should be retryable")
	}
	if IsRetryable(New(ErrCategoryValidation, CodeInvalidRule, "x")) {
		t.Error("validation errors must not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestGetCodeOnForeignError(t *testing.T) {
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("GetCode on a plain error should be empty")
	}
	if GetCategory(nil) != "" {
		t.Error("GetCategory(nil) should be empty")
	}
}

func TestWithDetailsCopies(t *testing.T) {
	e := New(ErrCategoryPivot, CodeUnknownStrategy, "x")
	d := e.WithDetails(map[string]interface{}{"strategy": "Bogus"})
	if e.Details != nil {
		t.Error("WithDetails mutated the original")
	}
	if d.Details["strategy"] != "Bogus" {
		t.Errorf("details = %v", d.Details)
	}
}
