package engine

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode classifies errors returned by engines into actionable categories
// so the caller can explain the failure without inspecting backend-specific
// payloads.
type ErrorCode string

const (
	ErrCodeInvalidConfig  ErrorCode = "invalid_config"
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeRateLimit      ErrorCode = "rate_limit"
	ErrCodeModelNotFound  ErrorCode = "model_not_found"
	ErrCodeContentFilter  ErrorCode = "content_filter"
	ErrCodeContextLength  ErrorCode = "context_length"
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeUnavailable    ErrorCode = "unavailable"
	ErrCodeUnknown        ErrorCode = "unknown"
)

// maxDiagnostic caps how much raw backend output an unclassified error
// carries, so a dumped HTML error page does not flood the terminal.
const maxDiagnostic = 500

// Error is a structured error that carries both a normalized code and the
// original backend-specific details. It implements the standard error
// interface and supports errors.Is / errors.As unwrapping.
type Error struct {
	Code       ErrorCode
	Engine     string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s: %s (status %d)", e.Engine, e.Code, e.Message, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Engine, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Engine, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidConfig  = &Error{Code: ErrCodeInvalidConfig}
	ErrAuthentication = &Error{Code: ErrCodeAuthentication}
	ErrRateLimit      = &Error{Code: ErrCodeRateLimit}
	ErrModelNotFound  = &Error{Code: ErrCodeModelNotFound}
	ErrContentFilter  = &Error{Code: ErrCodeContentFilter}
	ErrContextLength  = &Error{Code: ErrCodeContextLength}
	ErrTimeout        = &Error{Code: ErrCodeTimeout}
	ErrUnavailable    = &Error{Code: ErrCodeUnavailable}
)

// Is allows errors.Is to match engine Errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ClassifyStatus maps an HTTP status code from a vendor API to a normalized
// engine error. The message should be the best human-readable extraction
// from the error body; it is truncated for unclassified statuses.
func ClassifyStatus(engineName string, statusCode int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}

	e := &Error{
		Engine:     engineName,
		Message:    message,
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuthentication
	case statusCode == http.StatusTooManyRequests:
		e.Code = ErrCodeRateLimit
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeModelNotFound
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		e.Code = ErrCodeTimeout
	case statusCode >= 500:
		e.Code = ErrCodeUnavailable
	default:
		e.Code = ErrCodeUnknown
		e.Message = Truncate(message, maxDiagnostic)
	}

	return e
}

// ClassifyMessage classifies free-form backend output (CLI stderr, SDK error
// strings) by substring, for backends that expose no structured error codes.
func ClassifyMessage(engineName, message string) *Error {
	lower := strings.ToLower(message)

	e := &Error{Engine: engineName, Message: Truncate(message, maxDiagnostic)}

	switch {
	case strings.Contains(lower, "api key") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "permission denied"):
		e.Code = ErrCodeAuthentication
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		e.Code = ErrCodeRateLimit
	case strings.Contains(lower, "model") && strings.Contains(lower, "not found"):
		e.Code = ErrCodeModelNotFound
	case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
		e.Code = ErrCodeContentFilter
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		e.Code = ErrCodeContextLength
	case strings.Contains(lower, "timed out") || strings.Contains(lower, "timeout"):
		e.Code = ErrCodeTimeout
	default:
		e.Code = ErrCodeUnknown
	}

	return e
}

// Truncate shortens s to at most n bytes, appending an ellipsis marker when
// anything was cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
