package errorutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryableFlagSurvivesWrapping(t *testing.T) {
	inner := Retriable("persist match result failed")

	// 函数链等中间层用 %w 二次包装后，可重试标记仍可沿链取出
	wrapped := fmt.Errorf("stage execute_match failed: %w", inner)

	require.True(t, IsRetryable(wrapped))
	require.Same(t, inner, Wrap(wrapped))
}

func TestWrapPlainErrorDefaultsNonRetryable(t *testing.T) {
	e := Wrap(errors.New("scan_item.id is required"))

	require.NotNil(t, e)
	require.False(t, e.Retryable)
	require.Equal(t, 500, e.Code)
	require.Equal(t, "scan_item.id is required", e.Message)
}

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil))
	require.False(t, IsRetryable(nil))
}

func TestNonRetriableWithDetails(t *testing.T) {
	e := NonRetriableWithDetails("scan record not found", "scan_id=scan-rec-9")

	require.False(t, IsRetryable(e))
	require.Equal(t, 400, e.Code)
	require.Equal(t, "scan_id=scan-rec-9", e.DevDetails)
}
