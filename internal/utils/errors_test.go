package contextutils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := &AppError{Code: ErrorCodeProjectNotFound, Severity: SeverityInfo, Message: "Project not found"}
	assert.Equal(t, "PROJECT_NOT_FOUND: Project not found", err.Error())

	err.Details = "project id 42"
	assert.Equal(t, "PROJECT_NOT_FOUND: Project not found - project id 42", err.Error())
}

func TestAppErrorIs(t *testing.T) {
	wrapped := WrapError(ErrHistoryLoadFailed, "refresh failed")
	assert.True(t, errors.Is(wrapped, ErrHistoryLoadFailed))
	assert.False(t, errors.Is(wrapped, ErrSubmissionFailed))
}

func TestWrapErrorPreservesCode(t *testing.T) {
	wrapped := WrapError(ErrSubmissionFailed, "submitting answer for question 3")

	var appErr *AppError
	require.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, ErrorCodeSubmissionFailed, appErr.Code)
	assert.Equal(t, "submitting answer for question 3", appErr.Message)
	assert.Equal(t, ErrSubmissionFailed, appErr.Unwrap())
}

func TestWrapErrorGenericBecomesInternal(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), "context")
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestWrapErrorfWithVerb(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := WrapErrorf(base, "history fetch: %w", base)
	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrHistoryLoadFailed))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.False(t, IsRetryable(ErrSubmissionFailed))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestToJSON(t *testing.T) {
	j := ErrBookmarkFailed.ToJSON()
	assert.Equal(t, "BOOKMARK_FAILED", j["code"])
	assert.Equal(t, "Bookmark mutation failed", j["message"])
	assert.Equal(t, false, j["retryable"])
}

func TestIsValidISODate(t *testing.T) {
	assert.True(t, IsValidISODate("2025-10-30"))
	assert.False(t, IsValidISODate("2025/10/30"))
	assert.False(t, IsValidISODate("not a date"))
}

func TestIsNonBlank(t *testing.T) {
	assert.False(t, IsNonBlank(""))
	assert.False(t, IsNonBlank("   \t"))
	assert.True(t, IsNonBlank(" x "))
}
