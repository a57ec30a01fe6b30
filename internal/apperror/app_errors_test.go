package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReason(t *testing.T) {
	// Then: a known error maps to its wire code, wrapped or not
	assert.Equal(t, "not_your_turn", Reason(ErrNotYourTurn))
	assert.Equal(t, "match_not_found", Reason(fmt.Errorf("failed to move: %w", ErrMatchNotFound)))
	assert.Equal(t, "insufficient_balance", Reason(fmt.Errorf("stake: %w", ErrInsufficientBalance)))

	// Then: anything unexpected collapses to a generic code
	assert.Equal(t, "internal_error", Reason(errors.New("disk on fire")))
	assert.Empty(t, Reason(nil))
}
