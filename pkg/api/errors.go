package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrorCode is the closed set of failure classes produced by the client.
type ErrorCode string

const (
	ErrCodeUnauthorized            ErrorCode = "UNAUTHORIZED"
	ErrCodePremiumRequired         ErrorCode = "PREMIUM_REQUIRED"
	ErrCodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"
	ErrCodeSessionExpired          ErrorCode = "SESSION_EXPIRED"
	ErrCodeForbidden               ErrorCode = "FORBIDDEN"
	ErrCodeNotFound                ErrorCode = "NOT_FOUND"
	ErrCodeValidation              ErrorCode = "VALIDATION_ERROR"
	ErrCodeRateLimited             ErrorCode = "RATE_LIMITED"
	ErrCodeServer                  ErrorCode = "SERVER_ERROR"
	ErrCodeGeneric                 ErrorCode = "GENERIC_ERROR"
	ErrCodeNetwork                 ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout                 ErrorCode = "TIMEOUT_ERROR"
	ErrCodeCORS                    ErrorCode = "CORS_ERROR"
	ErrCodeUnknown                 ErrorCode = "UNKNOWN_ERROR"
)

// ErrorDetails carries code-specific context on an APIError. Consumers
// switch on the concrete type instead of probing untyped payloads.
type ErrorDetails interface {
	isErrorDetails()
}

// ValidationDetails holds the per-field validation messages of a 422 response.
type ValidationDetails struct {
	Fields map[string][]string
}

func (ValidationDetails) isErrorDetails() {}

// RateLimitDetails carries the server's retry-after hint, when present.
type RateLimitDetails struct {
	RetryAfter time.Duration
}

func (RateLimitDetails) isErrorDetails() {}

// RawDetails is the fallback variant holding the unclassified response body.
type RawDetails struct {
	Body json.RawMessage
}

func (RawDetails) isErrorDetails() {}

// APIError is the typed failure value raised by every client operation.
// Status is the HTTP status code, or zero for transport-level failures.
type APIError struct {
	Code      ErrorCode
	Message   string
	Status    int
	URL       string
	Details   ErrorDetails
	Timestamp time.Time
	cause     error
}

// Error returns the formatted error message.
func (apiError *APIError) Error() string {
	if apiError.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", apiError.Code, apiError.Status, apiError.Message)
	}
	return fmt.Sprintf("%s: %s", apiError.Code, apiError.Message)
}

// Unwrap returns the underlying transport error, if any.
func (apiError *APIError) Unwrap() error {
	return apiError.cause
}

// IsAuthError reports whether the failure invalidates the stored credential.
func (apiError *APIError) IsAuthError() bool {
	return apiError.Code == ErrCodeUnauthorized || apiError.Code == ErrCodeSessionExpired
}

// IsAccessError reports whether the failure is a denied-but-authenticated class.
func (apiError *APIError) IsAccessError() bool {
	switch apiError.Code {
	case ErrCodePremiumRequired, ErrCodeInsufficientPermissions, ErrCodeForbidden:
		return true
	}
	return false
}

// IsRetryable reports whether a generic retry is worthwhile. Only transport
// and server-side failures qualify; auth, validation, and not-found never do.
func (apiError *APIError) IsRetryable() bool {
	return apiError.Code == ErrCodeNetwork || apiError.Code == ErrCodeServer
}

var userMessages = map[ErrorCode]string{
	ErrCodeUnauthorized:            "Please log in to continue.",
	ErrCodePremiumRequired:         "This content requires a premium subscription.",
	ErrCodeInsufficientPermissions: "You do not have permission to perform this action.",
	ErrCodeSessionExpired:          "Your session has expired, please log in again.",
	ErrCodeForbidden:               "Access to this resource is not allowed.",
	ErrCodeNotFound:                "The requested resource could not be found.",
	ErrCodeValidation:              "Some of the submitted values are invalid.",
	ErrCodeRateLimited:             "Too many requests, please wait a moment and try again.",
	ErrCodeServer:                  "The server encountered a problem, please try again shortly.",
	ErrCodeNetwork:                 "Could not reach the server, please check your connection.",
	ErrCodeTimeout:                 "The request took too long, please try again.",
	ErrCodeCORS:                    "The request was blocked before reaching the server.",
}

// UserMessage returns a single user-facing sentence for the error code,
// falling back to the raw message for unmapped codes.
func (apiError *APIError) UserMessage() string {
	if message, ok := userMessages[apiError.Code]; ok {
		return message
	}
	return apiError.Message
}

const (
	defaultMessage500 = "internal server error"
	defaultMessage502 = "bad gateway"
	defaultMessage503 = "service temporarily unavailable"
	defaultMessage504 = "gateway timeout"
)

var premiumPatterns = []string{"premium", "subscription", "upgrade"}

var permissionPatterns = []string{"permission", "access denied", "not allowed"}

// errorBody is the union of the error shapes the backend emits. Responses
// carry either detail/message/error strings or a field -> messages map.
type errorBody struct {
	message string
	fields  map[string][]string
	raw     json.RawMessage
}

func parseErrorBody(body []byte) errorBody {
	parsed := errorBody{}
	if len(body) == 0 {
		return parsed
	}
	parsed.raw = json.RawMessage(body)
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(body, &generic); err != nil {
		return parsed
	}
	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := generic[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil && text != "" {
			parsed.message = text
			return parsed
		}
	}
	fields := map[string][]string{}
	for key, raw := range generic {
		var messages []string
		if err := json.Unmarshal(raw, &messages); err == nil && len(messages) > 0 {
			fields[key] = messages
		}
	}
	if len(fields) > 0 {
		parsed.fields = fields
	}
	return parsed
}

func joinFieldErrors(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(fields))
	for _, key := range keys {
		for _, message := range fields[key] {
			parts = append(parts, key+": "+message)
		}
	}
	return strings.Join(parts, "; ")
}

func matchesAny(message string, patterns []string) bool {
	lowered := strings.ToLower(message)
	for _, pattern := range patterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// classifyResponse maps a non-2xx response to exactly one error code.
// Classification is total: malformed or absent bodies never fail it.
func classifyResponse(response *http.Response, body []byte, requestURL string, tokenAttached bool) *APIError {
	parsed := parseErrorBody(body)
	apiError := &APIError{
		Status:    response.StatusCode,
		URL:       requestURL,
		Message:   parsed.message,
		Timestamp: time.Now(),
	}
	if len(parsed.raw) > 0 {
		apiError.Details = RawDetails{Body: parsed.raw}
	}

	switch response.StatusCode {
	case http.StatusUnauthorized:
		apiError.Code = ErrCodeUnauthorized
		if apiError.Message == "" {
			apiError.Message = "authentication required"
		}
	case http.StatusForbidden:
		classifyForbidden(apiError, parsed.message, tokenAttached)
	case http.StatusNotFound:
		apiError.Code = ErrCodeNotFound
		if apiError.Message == "" {
			apiError.Message = "resource not found"
		}
	case http.StatusUnprocessableEntity:
		apiError.Code = ErrCodeValidation
		if len(parsed.fields) > 0 {
			apiError.Message = joinFieldErrors(parsed.fields)
			apiError.Details = ValidationDetails{Fields: parsed.fields}
		} else if apiError.Message == "" {
			apiError.Message = "validation failed"
		}
	case http.StatusTooManyRequests:
		apiError.Code = ErrCodeRateLimited
		if apiError.Message == "" {
			apiError.Message = "rate limit exceeded"
		}
		if retryAfter := parseRetryAfter(response.Header.Get("Retry-After")); retryAfter > 0 {
			apiError.Details = RateLimitDetails{RetryAfter: retryAfter}
		}
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		apiError.Code = ErrCodeServer
		if apiError.Message == "" {
			apiError.Message = serverDefaultMessage(response.StatusCode)
		}
	default:
		apiError.Code = ErrCodeGeneric
		if apiError.Message == "" {
			apiError.Message = genericFallbackMessage(response, body)
		}
	}
	return apiError
}

// classifyForbidden applies the 403 disambiguation heuristic: the backend
// does not emit machine-readable codes, so the message text decides between
// a premium wall, a permission failure, and an expired credential.
func classifyForbidden(apiError *APIError, message string, tokenAttached bool) {
	switch {
	case matchesAny(message, premiumPatterns):
		apiError.Code = ErrCodePremiumRequired
	case matchesAny(message, permissionPatterns):
		apiError.Code = ErrCodeInsufficientPermissions
	case tokenAttached:
		apiError.Code = ErrCodeSessionExpired
		if apiError.Message == "" {
			apiError.Message = "session expired"
		}
	default:
		apiError.Code = ErrCodeForbidden
		if apiError.Message == "" {
			apiError.Message = "forbidden"
		}
	}
}

func serverDefaultMessage(status int) string {
	switch status {
	case http.StatusBadGateway:
		return defaultMessage502
	case http.StatusServiceUnavailable:
		return defaultMessage503
	case http.StatusGatewayTimeout:
		return defaultMessage504
	default:
		return defaultMessage500
	}
}

func genericFallbackMessage(response *http.Response, body []byte) string {
	if text := http.StatusText(response.StatusCode); text != "" {
		return text
	}
	if len(body) > 0 {
		return string(body)
	}
	return "request failed with status " + strconv.Itoa(response.StatusCode)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"failed to fetch",
	"dial tcp",
}

var timeoutPatterns = []string{"timeout", "timed out", "deadline exceeded", "aborted", "canceled"}

var corsPatterns = []string{"cors", "cross-origin"}

// classifyTransport maps a failure with no HTTP response to exactly one
// status-zero error code, by inspecting the error chain and message.
func classifyTransport(transportError error, requestURL string) *APIError {
	apiError := &APIError{
		Status:    0,
		URL:       requestURL,
		Message:   transportError.Error(),
		Timestamp: time.Now(),
		cause:     transportError,
	}

	var netError net.Error
	switch {
	case errors.Is(transportError, context.DeadlineExceeded),
		errors.Is(transportError, context.Canceled):
		apiError.Code = ErrCodeTimeout
	case errors.As(transportError, &netError) && netError.Timeout():
		apiError.Code = ErrCodeTimeout
	case matchesAny(apiError.Message, corsPatterns):
		apiError.Code = ErrCodeCORS
	case matchesAny(apiError.Message, timeoutPatterns):
		apiError.Code = ErrCodeTimeout
	case matchesAny(apiError.Message, networkPatterns):
		apiError.Code = ErrCodeNetwork
	default:
		var opError *net.OpError
		if errors.As(transportError, &opError) {
			apiError.Code = ErrCodeNetwork
		} else {
			apiError.Code = ErrCodeUnknown
		}
	}
	return apiError
}
