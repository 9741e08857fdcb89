// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Extraction providers
	ErrCodeProviderNotConfigured ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrCodeProviderRequestFailed ErrorCode = "PROVIDER_REQUEST_FAILED"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderEmptyResponse ErrorCode = "PROVIDER_EMPTY_RESPONSE"
	ErrCodeResponseParseFailed   ErrorCode = "RESPONSE_PARSE_FAILED"

	// Stores
	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"

	// Turn processing
	ErrCodeInvalidTurnInput ErrorCode = "INVALID_TURN_INPUT"

	// Notifications
	ErrCodeNotificationPublishFailed ErrorCode = "NOTIFICATION_PUBLISH_FAILED"
)

// StandardError is the error shape used across the engine. Recoverable
// failures are wrapped in it so callers can log a stable code.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

func NewProviderNotConfiguredError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderNotConfigured,
		Message:   "No credential configured for provider",
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewProviderRequestFailedError(provider string, err error) *StandardError {
	se := newError(ErrCodeProviderRequestFailed, fmt.Sprintf("Provider '%s' request failed", provider), err, true)
	se.Metadata = map[string]interface{}{"provider": provider}
	return se
}

func NewProviderTimeoutError(provider string, err error) *StandardError {
	se := newError(ErrCodeProviderTimeout, fmt.Sprintf("Provider '%s' timeout", provider), err, true)
	se.Metadata = map[string]interface{}{"provider": provider}
	return se
}

func NewProviderEmptyResponseError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderEmptyResponse,
		Message:   fmt.Sprintf("Provider '%s' returned no content", provider),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

func NewResponseParseFailedError(err error) *StandardError {
	return newError(ErrCodeResponseParseFailed, "Model output is not a JSON object", err, false)
}

func NewStoreReadFailedError(store string, err error) *StandardError {
	return newError(ErrCodeStoreReadFailed, fmt.Sprintf("Read from %s failed", store), err, true)
}

func NewStoreWriteFailedError(store string, err error) *StandardError {
	return newError(ErrCodeStoreWriteFailed, fmt.Sprintf("Write to %s failed", store), err, true)
}

func NewInvalidTurnInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTurnInput,
		Message:   "Turn input is incomplete",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationPublishFailedError(err error) *StandardError {
	return newError(ErrCodeNotificationPublishFailed, "Stage transition publish failed", err, true)
}

// CodeOf returns the code of a StandardError anywhere in err's chain, or
// "INTERNAL_ERROR".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if se, ok := err.(*StandardError); ok {
			return se.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return "INTERNAL_ERROR"
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeNotificationPublishFailed:
		return 3
	case ErrCodeProviderTimeout:
		return 1
	default:
		return 0
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.Contains(codeStr, "PARSE"):
		return "PARSE"
	case strings.HasPrefix(codeStr, "STORE"):
		return "STORE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
