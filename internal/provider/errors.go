// Package provider holds the pieces shared by every upstream API wrapper: the error
// taxonomy, the per-wrapper HTTP session and JSON request helpers.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error categories matched with errors.Is. A non-2xx upstream status matches ErrAPI;
// quota, timeout and 5xx statuses also match ErrTransient.
var (
	// ErrInput indicates bad caller-supplied arguments.
	ErrInput = errors.New("invalid input")
	// ErrLocationNotFound indicates the upstream could not resolve a location or place.
	ErrLocationNotFound = errors.New("location not found")
	// ErrAPI indicates a non-2xx upstream status other than 404.
	ErrAPI = errors.New("upstream api error")
	// ErrValidation indicates a response that violates entity invariants or is malformed.
	ErrValidation = errors.New("response validation failed")
	// ErrTransient indicates a network failure, timeout, rate limit or open circuit.
	// Transient failures are never retried automatically; the caller decides.
	ErrTransient = errors.New("transient upstream failure")
	// ErrRateLimited indicates an upstream quota rejection (HTTP 429). It is transient.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrTransient)
	// ErrCircuitOpen indicates the upstream was skipped because its breaker is open.
	ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrTransient)
)

// Guidance messages attached to errors for user-facing phrasing.
const (
	GuidanceRateLimit   = "Rate limit exceeded. Please try again in a few moments."
	GuidanceTimeout     = "The request timed out. Check your connection and try again."
	GuidanceBadRequest  = "The request was invalid. Check your parameters and try again."
	GuidanceAuth        = "Access denied. Check the API key configuration."
	GuidanceServer      = "The service encountered an error. This is likely temporary, please try again later."
	GuidanceNotFound    = "Try a more standard place name or add the country."
	GuidanceNetwork     = "Check your internet connection and try again."
	GuidanceDataError   = "The data received was incomplete or malformed."
	GuidanceGeneral     = "Please try again later or modify your request parameters."
	GuidanceCircuitOpen = "The service is failing repeatedly and has been paused. Try again in a minute."
)

// Error carries detailed information about a failed wrapper call.
type Error struct {
	Provider   string // Upstream that produced the error
	Code       string // Short machine-readable code, e.g. NOT_FOUND, HTTP_401
	Message    string // Human-readable message
	StatusCode int    // Upstream HTTP status, 0 when no response was received
	Guidance   string // Hint for recovering from the error
	Err        error  // Category sentinel, optionally joined with the cause
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the failure is a network, timeout or quota problem.
func (e *Error) IsTransient() bool {
	return errors.Is(e.Err, ErrTransient)
}

// IsRetryable returns true if the caller may reasonably retry the same request.
func (e *Error) IsRetryable() bool {
	return e.IsTransient()
}

// Kind returns the category name used in agent error payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input_error"
	case errors.Is(err, ErrLocationNotFound):
		return "location_not_found"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrAPI):
		return "api_error"
	case errors.Is(err, ErrTransient):
		return "transient_error"
	default:
		return "error"
	}
}

// StatusCode extracts the upstream status code from err, or 0.
func StatusCode(err error) int {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.StatusCode
	}
	return 0
}

// InputError reports bad caller-supplied arguments.
func InputError(format string, args ...any) error {
	return &Error{
		Code:     "INVALID_INPUT",
		Message:  fmt.Sprintf(format, args...),
		Guidance: GuidanceBadRequest,
		Err:      ErrInput,
	}
}

// NotFoundError reports that providerName could not find what.
func NotFoundError(providerName, what string) error {
	return &Error{
		Provider: providerName,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found", what),
		Guidance: GuidanceNotFound,
		Err:      ErrLocationNotFound,
	}
}

// ValidationError reports a response that violates an entity invariant.
func ValidationError(format string, args ...any) error {
	return &Error{
		Code:     "INVALID_RESPONSE",
		Message:  fmt.Sprintf(format, args...),
		Guidance: GuidanceDataError,
		Err:      ErrValidation,
	}
}

// TransientError wraps a network-level failure. The cause stays reachable with errors.Is.
func TransientError(providerName string, cause error) error {
	return &Error{
		Provider: providerName,
		Code:     "UNAVAILABLE",
		Message:  "failed to reach upstream",
		Guidance: GuidanceNetwork,
		Err:      fmt.Errorf("%w: %w", ErrTransient, cause),
	}
}

// CircuitOpenError reports a call skipped because providerName's breaker is open.
func CircuitOpenError(providerName string) error {
	return &Error{
		Provider: providerName,
		Code:     "CIRCUIT_OPEN",
		Message:  "upstream temporarily disabled after repeated failures",
		Guidance: GuidanceCircuitOpen,
		Err:      ErrCircuitOpen,
	}
}

// APIError maps a non-2xx upstream status to the error taxonomy.
// body is the (possibly empty) upstream message included for diagnostics.
func APIError(providerName string, statusCode int, body string) error {
	msg := strings.TrimSpace(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	e := &Error{
		Provider:   providerName,
		Code:       fmt.Sprintf("HTTP_%d", statusCode),
		Message:    msg,
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusNotFound:
		e.Code = "NOT_FOUND"
		e.Guidance = GuidanceNotFound
		e.Err = ErrLocationNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code = "RATE_LIMIT"
		e.Guidance = GuidanceRateLimit
		e.Err = errors.Join(ErrAPI, ErrRateLimited)
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		e.Guidance = GuidanceTimeout
		e.Err = errors.Join(ErrAPI, ErrTransient)
	case statusCode >= 500:
		e.Code = fmt.Sprintf("SERVER_%d", statusCode)
		e.Guidance = GuidanceServer
		e.Err = errors.Join(ErrAPI, ErrTransient)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Guidance = GuidanceAuth
		e.Err = ErrAPI
	case statusCode == http.StatusBadRequest:
		e.Guidance = GuidanceBadRequest
		e.Err = ErrAPI
	default:
		e.Guidance = GuidanceGeneral
		e.Err = ErrAPI
	}

	return e
}
