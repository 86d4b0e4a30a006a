package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	wrapped := fmt.Errorf("outer: %w", ErrPlanInactive)
	assert.Equal(t, ErrCodePlanInactive, Classify(wrapped).Code)

	timeout := Classify(context.DeadlineExceeded)
	assert.Equal(t, ErrCodeNetwork, timeout.Code)
	assert.True(t, errors.Is(timeout, context.DeadlineExceeded))

	assert.Equal(t, ErrCodeNetwork, Classify(errors.New("dial tcp: refused")).Code)
}

func TestError_Silent(t *testing.T) {
	assert.True(t, ErrSessionExpired.Silent())
	assert.True(t, ErrStorageCorrupt.Silent())
	assert.False(t, ErrInvalidCredentials.Silent())
	assert.False(t, ErrPlanInactive.Silent())
	assert.False(t, ErrNetwork.Silent())
	assert.False(t, (*Error)(nil).Silent())
}

func TestIsDomainError(t *testing.T) {
	err := WrapError(ErrCodeNetwork, "request failed", errors.New("timeout"))
	assert.True(t, IsDomainError(err, ErrCodeNetwork))
	assert.False(t, IsDomainError(err, ErrCodeSessionExpired))
	assert.Equal(t, "request failed: timeout", err.Error())
}
