package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/logger"
)

// ErrorHandler provides interface-specific error handling
type ErrorHandler interface {
	HandleError(err error) error
	FormatError(err error) string
}

// CLIErrorHandler handles errors for the CLI interface
type CLIErrorHandler struct {
	Verbose bool
	log     *logger.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, log *logger.Logger) *CLIErrorHandler {
	return &CLIErrorHandler{Verbose: verbose, log: log}
}

// HandleError logs the error when verbose and returns it formatted for display
func (h *CLIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	if h.Verbose && h.log != nil {
		h.log.Warn("command failed",
			zap.String("code", string(appErr.Code)),
			zap.String("severity", string(appErr.Severity)),
			zap.Error(appErr.Cause))
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	msg := appErr.Message
	if h.Verbose && appErr.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, appErr.Cause)
	}

	switch appErr.Severity {
	case SeverityCritical:
		return fmt.Sprintf("CRITICAL: %s", msg)
	case SeverityError:
		return fmt.Sprintf("ERROR: %s", msg)
	case SeverityWarning:
		return fmt.Sprintf("WARNING: %s", msg)
	case SeverityInfo:
		return fmt.Sprintf("INFO: %s", msg)
	default:
		return msg
	}
}

// HTTPErrorHandler handles errors for HTTP interfaces. Bodies follow the
// relay contract: a JSON object whose "error" member is a string.
type HTTPErrorHandler struct {
	IncludeDetails bool
	log            *logger.Logger
}

// NewHTTPErrorHandler creates a new HTTP error handler
func NewHTTPErrorHandler(includeDetails bool, log *logger.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{IncludeDetails: includeDetails, log: log}
}

// HandleError logs the error and returns it as an AppError
func (h *HTTPErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	if h.log != nil {
		fields := []zap.Field{
			zap.String("code", string(appErr.Code)),
			zap.String("severity", string(appErr.Severity)),
		}
		if appErr.Cause != nil {
			fields = append(fields, zap.NamedError("cause", appErr.Cause))
		}
		if appErr.Severity == SeverityError || appErr.Severity == SeverityCritical {
			h.log.Error(appErr.Message, fields...)
		} else {
			h.log.Info(appErr.Message, fields...)
		}
	}

	return appErr
}

// FormatError formats an error for an HTTP response body
func (h *HTTPErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	response := map[string]interface{}{
		"error": appErr.Message,
	}
	if h.IncludeDetails {
		response["code"] = appErr.Code
		if appErr.Details != "" {
			response["details"] = appErr.Details
		}
	}

	jsonBytes, _ := json.Marshal(response)
	return string(jsonBytes)
}

// WriteHTTPError writes an error response to HTTP
func (h *HTTPErrorHandler) WriteHTTPError(w http.ResponseWriter, err error) {
	appErr := GetAppError(err)

	h.HandleError(appErr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(appErr))
	w.Write([]byte(h.FormatError(appErr)))
}

// StatusCode maps error codes to HTTP status codes
func StatusCode(err error) int {
	switch GetAppError(err).Code {
	case ErrCodeValidation, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the text an interactive user should see for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return GetAppError(err).Message
}
