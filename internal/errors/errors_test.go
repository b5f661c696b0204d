package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      Error
		expected string
	}{
		{"message only", New(CodeBusy, "update in progress", nil), "update in progress"},
		{"message and cause", New(CodeNetwork, "fetch tags", errors.New("timeout")), "fetch tags: timeout"},
		{"cause only", New(CodeFileSystem, "", errors.New("disk full")), "disk full"},
		{"code only", New(CodeInvalidBranch, "", nil), "invalid_branch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestCodeOf(t *testing.T) {
	t.Run("walks wrapped chain", func(t *testing.T) {
		base := New(CodeNetwork, "list branches", nil)
		wrapped := fmt.Errorf("check update: %w", base)
		assert.Equal(t, CodeNetwork, CodeOf(wrapped))
		assert.True(t, IsCode(wrapped, CodeNetwork))
		assert.False(t, IsCode(wrapped, CodeBusy))
	})

	t.Run("plain error is unknown", func(t *testing.T) {
		assert.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
	})

	t.Run("unwrap exposes cause", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := New(CodeFileSystem, "swap install", cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestIsRecoverable(t *testing.T) {
	assert.False(t, IsRecoverable(New(CodeConfiguration, "owner missing", nil)))
	assert.False(t, IsRecoverable(New(CodeUninitialized, "", nil)))
	assert.True(t, IsRecoverable(New(CodeNetwork, "", nil)))
	assert.True(t, IsRecoverable(New(CodeInvalidBranch, "", nil)))
	assert.True(t, IsRecoverable(errors.New("plain")))
}
