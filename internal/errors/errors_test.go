package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpshade/promptpad/internal/logger"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category ErrorCategory
		severity ErrorSeverity
	}{
		{ErrCodeValidation, CategoryValidation, SeverityWarning},
		{ErrCodeNotFound, CategoryResource, SeverityInfo},
		{ErrCodeStorageFailure, CategoryStorage, SeverityError},
		{ErrCodeRemoteFailure, CategoryNetwork, SeverityError},
		{ErrCodeClipboardFailure, CategorySystem, SeverityWarning},
		{ErrCodeInternalError, CategorySystem, SeverityCritical},
	}

	for _, tt := range tests {
		err := NewAppError(tt.code, "x")
		if err.Category != tt.category || err.Severity != tt.severity {
			t.Errorf("%s: got (%s, %s), want (%s, %s)", tt.code, err.Category, err.Severity, tt.category, tt.severity)
		}
	}
}

func TestIsFindsWrappedCode(t *testing.T) {
	base := RemoteError("send prompt", stderrors.New("connection refused"))
	wrapped := fmt.Errorf("controller: %w", base)

	if !Is(wrapped, ErrCodeRemoteFailure) {
		t.Error("expected wrapped error to carry REMOTE_FAILURE")
	}
	if Is(wrapped, ErrCodeValidation) {
		t.Error("did not expect VALIDATION_ERROR")
	}
	if !stderrors.Is(wrapped, base.Cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestGetAppErrorConvertsPlainErrors(t *testing.T) {
	appErr := GetAppError(stderrors.New("boom"))
	if appErr.Code != ErrCodeInternalError {
		t.Errorf("expected INTERNAL_ERROR, got %s", appErr.Code)
	}
}

func TestWriteHTTPError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{ValidationError("prompt is required"), http.StatusBadRequest, `{"error":"prompt is required"}`},
		{RemoteError("upstream", stderrors.New("502")), http.StatusInternalServerError, `{"error":"Remote operation failed: upstream"}`},
		{NewAppError(ErrCodeMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, `{"error":"nope"}`},
	}

	h := NewHTTPErrorHandler(false, logger.NewNop())
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.WriteHTTPError(rec, tt.err)

		if rec.Code != tt.status {
			t.Errorf("status = %d, want %d", rec.Code, tt.status)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != tt.body {
			t.Errorf("body = %s, want %s", got, tt.body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
	}
}

func TestCLIFormatError(t *testing.T) {
	h := NewCLIErrorHandler(false, nil)
	got := h.FormatError(ValidationError("Title and content cannot be empty."))
	if got != "WARNING: Title and content cannot be empty." {
		t.Errorf("FormatError = %q", got)
	}
}
