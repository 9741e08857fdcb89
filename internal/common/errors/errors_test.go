package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct", NewProviderTimeoutError("gemini", context.DeadlineExceeded), ErrCodeProviderTimeout},
		{"wrapped", fmt.Errorf("extract: %w", NewResponseParseFailedError(fmt.Errorf("bad"))), ErrCodeResponseParseFailed},
		{"plain", fmt.Errorf("boom"), "INTERNAL_ERROR"},
		{"nil", nil, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestStandardError_UnwrapKeepsCause(t *testing.T) {
	err := NewProviderTimeoutError("openai", context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "PROVIDER_TIMEOUT")
	assert.Equal(t, "openai", err.Metadata["provider"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "PROVIDER", GetErrorCategory(ErrCodeProviderRequestFailed))
	assert.Equal(t, "PARSE", GetErrorCategory(ErrCodeResponseParseFailed))
	assert.Equal(t, "STORE", GetErrorCategory(ErrCodeStoreWriteFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationPublishFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidTurnInput))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestRetryPolicy(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeStoreWriteFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeProviderTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidTurnInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeResponseParseFailed))
}

func TestNormalize(t *testing.T) {
	se := NewInvalidTurnInputError("userId is required")
	assert.Same(t, se, Normalize(fmt.Errorf("wrap: %w", se)))

	other := Normalize(fmt.Errorf("unexpected"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), other.Code)
	assert.Equal(t, "unexpected", other.Details)

	vars := ToErrorVariables(se)
	assert.Equal(t, "INVALID_TURN_INPUT", vars["errorCode"])
	assert.Equal(t, "VALIDATION", vars["errorCategory"])
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(0), RemainingRetries(NewInvalidTurnInputError("message is required"), 3))
	assert.Equal(t, int32(2), RemainingRetries(NewStoreWriteFailedError("redis", fmt.Errorf("down")), 3))
	assert.Equal(t, int32(0), RemainingRetries(NewStoreWriteFailedError("redis", fmt.Errorf("down")), 1))
	assert.Equal(t, int32(0), RemainingRetries(NewStoreWriteFailedError("redis", fmt.Errorf("down")), 0))
}
