package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("MISSING_REASON", "reason required"), KindValidation},
		{"wrapped conflict", fmt.Errorf("save: %w", ErrConcurrencyConflict), KindConflict},
		{"audit", NewAuditWriteError(errors.New("insert failed")), KindAuditWrite},
		{"plain error", errors.New("connection reset"), KindStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("repo: %w", NewConflictError("OPTIMISTIC_LOCK_ERROR", "stale"))
	assert.True(t, errors.Is(err, ErrConcurrencyConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAuditWriteError_UnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewAuditWriteError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeAuditLogFailed, err.Code)
	assert.Contains(t, err.Error(), "disk full")
}
