package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadsyncError_Error(t *testing.T) {
	err := &HeadsyncError{
		Type:    ErrorTypeBridge,
		Code:    ErrCodeBridgeCallFailed,
		Message: "bridge call failed: set_title",
		Cause:   fmt.Errorf("connection reset"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_BRIDGE_CALL_FAILED]")
	assert.Contains(t, msg, "bridge call failed: set_title")
	assert.Contains(t, msg, "connection reset")
}

func TestHeadsyncError_ErrorWithComponent(t *testing.T) {
	err := NewContractError(ErrCodeHeadContentBeforeRender, "too early").
		WithComponent("coordinator")

	assert.Contains(t, err.Error(), "component:coordinator")
}

func TestHeadsyncError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := ErrBridgeCall("set_title", cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestHeadsyncError_Is(t *testing.T) {
	a := ErrHeadContentBeforeRender()
	b := ErrHeadContentBeforeRender()
	c := ErrCoordinatorDisposed()

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestIsContractViolation(t *testing.T) {
	assert.True(t, IsContractViolation(ErrHeadContentBeforeRender()))
	assert.True(t, IsContractViolation(ErrCoordinatorDisposed()))
	assert.False(t, IsContractViolation(ErrBridgeCall("set_title", nil)))
	assert.False(t, IsContractViolation(fmt.Errorf("plain")))
	assert.False(t, IsContractViolation(nil))
}

func TestIsContractViolation_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", ErrHeadContentBeforeRender())
	assert.True(t, IsContractViolation(wrapped))
}

func TestIsBridgeError(t *testing.T) {
	assert.True(t, IsBridgeError(ErrBridgeCall("set_title", fmt.Errorf("boom"))))
	assert.True(t, IsBridgeError(ErrBridgeUnavailable(fmt.Errorf("no module"))))
	assert.False(t, IsBridgeError(ErrHeadContentBeforeRender()))
}

func TestIsRecoverable(t *testing.T) {
	// Bridge failures are isolated per operation, so they are recoverable.
	assert.True(t, IsRecoverable(ErrBridgeCall("set_title", nil)))

	// Contract violations signal caller bugs and are not.
	assert.False(t, IsRecoverable(ErrHeadContentBeforeRender()))
	assert.False(t, IsRecoverable(NewConfigError(ErrCodeConfigInvalid, "bad port")))
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
}

func TestWithContext(t *testing.T) {
	err := ErrBridgeCall("process_head_content", nil).
		WithContext("ref_id", "head-1")

	assert.Equal(t, "head-1", err.Context["ref_id"])
}
